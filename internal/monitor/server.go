// Package monitor provides the HTTP and WebSocket progress monitor.
//
// It exposes run history over REST and live per-dispatch progress over
// WebSocket, so a browser on the local network can watch a run without
// touching the machine driving the camera. The monitor is read-only:
// nothing it serves can start, stop, or alter a run.
//
// The server follows the same lifecycle pattern as the other
// long-lived components:
//
//	server, err := monitor.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ecliptic-labs/eclipseq/internal/infrastructure/config"
	"github.com/ecliptic-labs/eclipseq/internal/infrastructure/logging"
	"github.com/ecliptic-labs/eclipseq/internal/sequencer"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// RunStore is the read side of the run history the monitor serves.
type RunStore interface {
	List(ctx context.Context, limit, offset int) ([]sequencer.Run, error)
	Get(ctx context.Context, id string) (*sequencer.Run, error)
	Dispatches(ctx context.Context, runID string) ([]sequencer.Dispatch, error)
}

// Deps holds the dependencies required by the monitor server.
type Deps struct {
	Config  config.MonitorConfig
	WS      config.WebSocketConfig
	Logger  *logging.Logger
	History RunStore // may be nil; history endpoints then return 404
	Hub     *Hub     // if set, the server uses this hub instead of creating its own
	Version string
}

// Server is the progress monitor HTTP server.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg         config.MonitorConfig
	wsCfg       config.WebSocketConfig
	logger      *logging.Logger
	history     RunStore
	version     string
	server      *http.Server
	hub         *Hub
	externalHub bool
	cancel      context.CancelFunc
}

// New creates a new monitor server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger; history optional)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	s := &Server{
		cfg:     deps.Config,
		wsCfg:   deps.WS,
		logger:  deps.Logger,
		history: deps.History,
		version: deps.Version,
	}

	// Use an externally-provided hub if available (the sequencer also
	// needs the hub for progress broadcasting).
	if deps.Hub != nil {
		s.hub = deps.Hub
		s.externalHub = true
	}

	return s, nil
}

// WSHub returns the WebSocket hub, creating it if necessary. Call before
// Start() when the sequencer needs a broadcast target.
func (s *Server) WSHub() *Hub {
	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
	}
	return s.hub
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, and launches the
// HTTP listener in a background goroutine. The server can be stopped
// with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
	}
	go s.hub.Run(srvCtx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("monitor server error", "error", err)
		}
	}()

	s.logger.Info("monitor server started", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the monitor server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("monitor server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down monitor server: %w", err)
	}
	return nil
}

// HealthCheck verifies the monitor server is running.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("monitor health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("monitor server not started")
	}

	return nil
}
