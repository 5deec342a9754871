package server

import (
	"net/http"

	"github.com/wesm/agendaview/internal/aggregate"
)

// dashboardResponse is the full recomputed view set for one
// filter state.
type dashboardResponse struct {
	SnapshotID string `json:"snapshot_id"`
	aggregate.Bundle
}

// recompute derives the bundle for the request's filters from
// the current snapshot.
func (s *Server) recompute(r *http.Request) (string, aggregate.Bundle) {
	snap := s.engine.Snapshot()
	g, tc := parseFilters(r, s.config(), s.engine.Location())
	return snap.ID, aggregate.Recompute(snap.Events, g, tc)
}

func (s *Server) handleDashboard(
	w http.ResponseWriter, r *http.Request,
) {
	id, b := s.recompute(r)
	writeJSON(w, http.StatusOK, dashboardResponse{
		SnapshotID: id,
		Bundle:     b,
	})
}

func (s *Server) handleAnalyticsSummary(
	w http.ResponseWriter, r *http.Request,
) {
	_, b := s.recompute(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"count":  b.Count,
		"totals": b.Totals,
		"pie":    b.Pie,
	})
}

func (s *Server) handleAnalyticsDaily(
	w http.ResponseWriter, r *http.Request,
) {
	_, b := s.recompute(r)
	writeJSON(w, http.StatusOK, b.Daily)
}

func (s *Server) handleAnalyticsHourly(
	w http.ResponseWriter, r *http.Request,
) {
	_, b := s.recompute(r)
	writeJSON(w, http.StatusOK, b.Hourly)
}

func (s *Server) handleAnalyticsWeekly(
	w http.ResponseWriter, r *http.Request,
) {
	_, b := s.recompute(r)
	writeJSON(w, http.StatusOK, b.Weekly)
}
