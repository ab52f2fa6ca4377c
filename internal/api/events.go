package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/nerrad567/gray-logic-climate/internal/audit"
)

// handleListEvents returns paginated actuation records with optional filters.
//
// Query parameters:
//   - action: turn_on, turn_off, query, override, fan_speed, fan_off
//   - address: one switch MAC or fan id
//   - purpose: heating, cooling, humidifying
//   - since: RFC 3339 timestamp
//   - failed: "true" for interactions that returned an error
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeUnavailable(w, "audit trail not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action:  q.Get("action"),
		Address: q.Get("address"),
		Purpose: q.Get("purpose"),
	}

	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = t
	}
	if v := q.Get("failed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeBadRequest(w, "failed must be true or false")
			return
		}
		filter.Failed = b
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.events.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list audit events", "error", err)
		writeInternalError(w, "failed to list events")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
