package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/wesm/agendaview/internal/filter"
	"github.com/wesm/agendaview/internal/refresh"
)

func (s *Server) handleListEvents(
	w http.ResponseWriter, r *http.Request,
) {
	snap := s.engine.Snapshot()
	g, tc := parseFilters(r, s.config(), s.engine.Location())
	events := filter.Apply(snap.Events, g, tc)
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshot_id": snap.ID,
		"count":       len(events),
		"events":      events,
	})
}

// handleTriggerRefresh runs one refresh, streaming progress over
// SSE when the client supports it. A second trigger while one is
// outstanding is rejected with 409.
func (s *Server) handleTriggerRefresh(
	w http.ResponseWriter, r *http.Request,
) {
	if s.engine.Loading() {
		writeError(w, http.StatusConflict, "refresh already in progress")
		return
	}
	// The fetch outlives a disconnected client: other viewers
	// share the snapshot it produces.
	ctx := context.WithoutCancel(r.Context())

	stream, err := NewSSEStream(w)
	if err != nil {
		// Non-streaming fallback
		_, err := s.engine.Refresh(ctx, nil)
		if err != nil {
			writeError(w, refreshErrorStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, s.engine.Status())
		return
	}

	_, err = s.engine.Refresh(ctx, func(p refresh.Progress) {
		stream.SendJSON("progress", p)
	})
	if err != nil {
		stream.SendJSON("error", jsonError{Error: err.Error()})
		return
	}
	stream.SendJSON("done", s.engine.Status())
}

func refreshErrorStatus(err error) int {
	if errors.Is(err, refresh.ErrNoSource) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

func (s *Server) handleRefreshStatus(
	w http.ResponseWriter, _ *http.Request,
) {
	writeJSON(w, http.StatusOK, s.engine.Status())
}
