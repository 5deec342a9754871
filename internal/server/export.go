package server

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/wesm/agendaview/internal/export"
	"github.com/wesm/agendaview/internal/filter"
)

// handleExport streams the filtered events as a CSV attachment.
// An empty result is answered with 204 and no body.
func (s *Server) handleExport(
	w http.ResponseWriter, r *http.Request,
) {
	loc := s.engine.Location()
	g, tc := parseFilters(r, s.config(), loc)
	events := filter.Apply(s.engine.Snapshot().Events, g, tc)
	if len(events) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h := w.Header()
	h.Set("Content-Type", export.ContentType)
	h.Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.Filename))
	h.Set("X-Row-Count", strconv.Itoa(len(events)))
	w.WriteHeader(http.StatusOK)

	// Headers are gone; a failure here can only be logged.
	if _, err := export.WriteCSV(w, events, loc); err != nil {
		log.Printf("export: %v", err)
	}
}
