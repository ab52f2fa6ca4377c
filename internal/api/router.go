package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// buildRouter mounts the read-only status routes under /api/v1.
//
//	GET /api/v1/health    liveness and version
//	GET /api/v1/status    controller snapshot
//	GET /api/v1/switches  known switches with ledger purposes (?purpose=)
//	GET /api/v1/events    audit trail (?since=&address=&action=&failed=&limit=&offset=)
//	GET /api/v1/metrics   runtime and loop counters
//	GET /api/v1/ws        live cycle and actuation events
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "no such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "the status API is read-only")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)
		r.Get("/switches", s.handleListSwitches)
		r.Get("/events", s.handleListEvents)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        s.version,
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
	})
}
