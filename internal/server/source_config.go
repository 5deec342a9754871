package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/wesm/agendaview/internal/config"
	"github.com/wesm/agendaview/internal/source"
)

type sourceConfigResponse struct {
	config.SourceFields
	Kind  source.Kind `json:"kind"`
	Ready bool        `json:"ready"`
}

func sourceConfigOf(cfg config.Config) sourceConfigResponse {
	return sourceConfigResponse{
		SourceFields: cfg.Source(),
		Kind:         cfg.SourceKind,
		Ready:        source.Ready(cfg.SourceSettings()),
	}
}

func (s *Server) handleGetSourceConfig(
	w http.ResponseWriter, _ *http.Request,
) {
	writeJSON(w, http.StatusOK, sourceConfigOf(s.config()))
}

// handleSetSourceConfig saves the Sheets identifiers, swaps the
// engine's source and starts or stops polling to match the new
// readiness. It does not trigger a refresh.
func (s *Server) handleSetSourceConfig(
	w http.ResponseWriter, r *http.Request,
) {
	var req config.SourceFields
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.ClientID = strings.TrimSpace(req.ClientID)
	req.SpreadsheetID = strings.TrimSpace(req.SpreadsheetID)
	req.SheetName = strings.TrimSpace(req.SheetName)

	s.mu.Lock()
	updated, err := s.cfg.SaveSource(req)
	if err == nil {
		s.cfg = updated
	}
	s.mu.Unlock()
	if err != nil {
		writeInternalError(w, "saving source config", err)
		return
	}

	settings := updated.SourceSettings()
	src, err := source.New(settings)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.engine.SetSource(src)
	ready := source.Ready(settings)
	if s.poller != nil {
		s.poller.SetReady(ready)
	}
	log.Printf("source config updated: kind=%s ready=%t",
		updated.SourceKind, ready)

	writeJSON(w, http.StatusOK, sourceConfigOf(updated))
}
