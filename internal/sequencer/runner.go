package sequencer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ecliptic-labs/eclipseq/internal/camera"
	"github.com/ecliptic-labs/eclipseq/internal/sequence"
)

// Run status values, rolled up from per-dispatch outcomes.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusPartial   = "partial"
	StatusCancelled = "cancelled"
)

// Per-dispatch outcomes.
const (
	DispatchOK     = "ok"
	DispatchFailed = "failed"
)

// Run is the persistent record of one execution.
type Run struct {
	ID          string     `json:"id"`
	Script      string     `json:"script,omitempty"`
	ClockMode   string     `json:"clock_mode"` // "real" or "simulated"
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Total       int        `json:"total"`
	Done        int        `json:"done"`
	Failed      int        `json:"failed"`
	Late        int        `json:"late"`
	Skipped     int        `json:"skipped"`
}

// Dispatch is the persistent record of one dispatched command.
type Dispatch struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	Index      int       `json:"index"`
	Kind       string    `json:"kind"`
	Detail     string    `json:"detail"`
	Scheduled  time.Time `json:"scheduled"`
	Dispatched time.Time `json:"dispatched"`
	LatencyMS  int       `json:"latency_ms"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
}

// Repository persists run records. May be nil on the Runner, in which
// case nothing is recorded.
type Repository interface {
	CreateRun(ctx context.Context, run *Run) error
	UpdateRun(ctx context.Context, run *Run) error
	CreateDispatch(ctx context.Context, d *Dispatch) error
}

// MQTTClient publishes progress events for remote observers in the
// field (a phone subscribed over the local broker).
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// WSHub broadcasts progress events to connected monitor clients.
type WSHub interface {
	Broadcast(channel string, payload any)
}

// LatencyRecorder records scheduled-versus-actual dispatch latency for
// post-run analysis.
type LatencyRecorder interface {
	RecordDispatch(kind string, scheduled, dispatched time.Time)
}

// Logger is the logging interface the runner needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options configures optional runner collaborators. Any field may be
// nil or zero.
type Options struct {
	Player  camera.Player
	Repo    Repository
	MQTT    MQTTClient
	Hub     WSHub
	Latency LatencyRecorder

	// Script names the source script for the run record.
	Script string

	// LateTolerance is how far behind schedule a dispatch may be
	// before it is counted late. Default 500ms.
	LateTolerance time.Duration
}

const defaultLateTolerance = 500 * time.Millisecond

// Runner executes command lists. One Runner handles one run at a time;
// Run is not safe for concurrent use.
type Runner struct {
	clock  Clock
	camera camera.Camera
	logger Logger
	opts   Options
}

// NewRunner creates a runner around a clock and an open camera session.
func NewRunner(clock Clock, cam camera.Camera, logger Logger, opts Options) *Runner {
	if opts.LateTolerance <= 0 {
		opts.LateTolerance = defaultLateTolerance
	}
	return &Runner{clock: clock, camera: cam, logger: logger, opts: opts}
}

// Run executes the command list in order and returns the completed run
// record. Camera failures are counted, not fatal. Cancelling ctx stops
// the run at the next wait; the command in flight always finishes.
//
// Commands whose time has already passed when their turn comes are
// dispatched immediately, in order, with no wait between them. This is
// deliberate: a sequence started late should fire everything it can
// rather than silently skip the gap.
func (r *Runner) Run(ctx context.Context, cmds sequence.Commands) (*Run, error) {
	if len(cmds) == 0 {
		return nil, ErrNoCommands
	}

	run := &Run{
		ID:        "run-" + uuid.NewString()[:8],
		Script:    r.opts.Script,
		ClockMode: clockMode(r.clock),
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
		Total:     len(cmds),
	}
	if r.opts.Repo != nil {
		if err := r.opts.Repo.CreateRun(ctx, run); err != nil {
			r.logger.Error("failed to create run record", "error", err)
			// The schedule matters more than the record; keep going.
		}
	}

	r.logger.Info("run started",
		"run_id", run.ID,
		"commands", run.Total,
		"clock", run.ClockMode,
		"first_due", cmds[0].Time.Format(time.RFC3339),
	)

	for i, cmd := range cmds {
		if err := r.waitUntil(ctx, cmd.Time); err != nil {
			run.Status = StatusCancelled
			run.Skipped = len(cmds) - i
			r.logger.Warn("run cancelled", "run_id", run.ID, "skipped", run.Skipped)
			break
		}
		r.dispatch(ctx, run, i, cmd)
	}

	completed := time.Now().UTC()
	run.CompletedAt = &completed
	switch {
	case run.Status == StatusCancelled:
		// Already set.
	case run.Failed > 0:
		run.Status = StatusPartial
	default:
		run.Status = StatusCompleted
	}

	if r.opts.Repo != nil {
		// The summary is persisted even when ctx was cancelled.
		if err := r.opts.Repo.UpdateRun(context.WithoutCancel(ctx), run); err != nil {
			r.logger.Error("failed to update run record", "error", err)
		}
	}

	r.logger.Info("run finished",
		"run_id", run.ID,
		"status", run.Status,
		"done", run.Done,
		"failed", run.Failed,
		"late", run.Late,
		"skipped", run.Skipped,
	)
	return run, nil
}

// waitUntil blocks until the clock reaches target or ctx is cancelled.
// Returns immediately for targets already in the past.
func (r *Runner) waitUntil(ctx context.Context, target time.Time) error {
	d := target.Sub(r.clock.Now())
	if d <= 0 {
		// Cancellation still wins over an overdue burst.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dispatch executes one command and records the outcome. Never returns
// an error: failures are folded into the run counters.
//
// The context is detached from cancellation here: once a command is in
// flight it always finishes. Cancellation is honoured at the wait
// boundary in Run, never mid-capture.
func (r *Runner) dispatch(ctx context.Context, run *Run, index int, cmd sequence.Command) {
	ctx = context.WithoutCancel(ctx)
	dispatched := r.clock.Now()
	latency := dispatched.Sub(cmd.Time)

	rec := &Dispatch{
		ID:         "dsp-" + uuid.NewString()[:8],
		RunID:      run.ID,
		Index:      index,
		Kind:       string(cmd.Kind),
		Detail:     cmd.String(),
		Scheduled:  cmd.Time,
		Dispatched: dispatched,
		LatencyMS:  int(latency.Milliseconds()),
		Status:     DispatchOK,
	}

	if latency > r.opts.LateTolerance {
		run.Late++
		r.logger.Warn("dispatching late",
			"run_id", run.ID, "index", index, "behind", latency, "command", rec.Detail)
	}

	var err error
	switch cmd.Kind {
	case sequence.KindPlay:
		err = r.play(ctx, cmd.File)
	default:
		err = r.camera.Capture(ctx, camera.Exposure{
			Aperture:       cmd.Aperture,
			Shutter:        cmd.Shutter.Text,
			ShutterSeconds: cmd.Shutter.Seconds,
			ISO:            cmd.ISO,
		})
	}

	if err != nil {
		run.Failed++
		rec.Status = DispatchFailed
		rec.Error = err.Error()
		r.logger.Error("dispatch failed",
			"run_id", run.ID, "index", index, "command", rec.Detail, "error", err)
	} else {
		run.Done++
		r.logger.Info("dispatched",
			"run_id", run.ID, "index", index, "command", rec.Detail, "latency", latency)
	}

	if r.opts.Latency != nil {
		r.opts.Latency.RecordDispatch(rec.Kind, rec.Scheduled, rec.Dispatched)
	}
	if r.opts.Repo != nil {
		if repoErr := r.opts.Repo.CreateDispatch(ctx, rec); repoErr != nil {
			r.logger.Error("failed to record dispatch", "error", repoErr)
		}
	}
	r.publishProgress(run, rec)
}

func (r *Runner) play(ctx context.Context, file string) error {
	if r.opts.Player == nil {
		r.logger.Warn("no sound player configured, skipping", "file", file)
		return nil
	}
	return r.opts.Player.Play(ctx, file)
}

// progressEvent is the payload broadcast after every dispatch.
type progressEvent struct {
	RunID     string    `json:"run_id"`
	Index     int       `json:"index"`
	Total     int       `json:"total"`
	Command   string    `json:"command"`
	Status    string    `json:"status"`
	LatencyMS int       `json:"latency_ms"`
	Done      int       `json:"done"`
	Failed    int       `json:"failed"`
	At        time.Time `json:"at"`
}

func (r *Runner) publishProgress(run *Run, rec *Dispatch) {
	if r.opts.MQTT == nil && r.opts.Hub == nil {
		return
	}
	event := progressEvent{
		RunID:     run.ID,
		Index:     rec.Index,
		Total:     run.Total,
		Command:   rec.Detail,
		Status:    rec.Status,
		LatencyMS: rec.LatencyMS,
		Done:      run.Done,
		Failed:    run.Failed,
		At:        rec.Dispatched,
	}
	if r.opts.Hub != nil {
		r.opts.Hub.Broadcast("run", event)
	}
	if r.opts.MQTT != nil {
		payload, err := json.Marshal(event)
		if err != nil {
			r.logger.Error("failed to encode progress event", "error", err)
			return
		}
		topic := fmt.Sprintf("eclipseq/run/%s/progress", run.ID)
		if err := r.opts.MQTT.Publish(topic, payload, 0, false); err != nil {
			r.logger.Warn("failed to publish progress", "topic", topic, "error", err)
		}
	}
}

func clockMode(c Clock) string {
	if _, ok := c.(*SimulatedClock); ok {
		return "simulated"
	}
	return "real"
}
