package monitor

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/runs", func(r chi.Router) {
			r.Get("/", s.handleListRuns)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetRun)
				r.Get("/dispatches", s.handleListDispatches)
			})
		})

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"clients": s.hub.ClientCount(),
	})
}

// handleListRuns returns run history, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeNotFound(w, "run history is not configured")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))   //nolint:errcheck // zero means default
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset")) //nolint:errcheck // zero means default

	runs, err := s.history.List(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("listing runs", "error", err)
		writeInternalError(w, "failed to list runs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// handleGetRun returns one run by ID.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeNotFound(w, "run history is not configured")
		return
	}

	run, err := s.history.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeNotFound(w, "run not found")
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// handleListDispatches returns a run's dispatch records in list order.
func (s *Server) handleListDispatches(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeNotFound(w, "run history is not configured")
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := s.history.Get(r.Context(), id); err != nil {
		writeNotFound(w, "run not found")
		return
	}

	dispatches, err := s.history.Dispatches(r.Context(), id)
	if err != nil {
		s.logger.Error("listing dispatches", "run_id", id, "error", err)
		writeInternalError(w, "failed to list dispatches")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"dispatches": dispatches})
}
