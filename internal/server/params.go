package server

import (
	"net/http"
	"time"

	"github.com/wesm/agendaview/internal/config"
	"github.com/wesm/agendaview/internal/filter"
	"github.com/wesm/agendaview/internal/window"
)

// parseFilters reads the dashboard filter query parameters.
// Malformed values never fail the request: they fall back to
// "no constraint".
//
//	from, to   YYYY-MM-DD, inclusive
//	type       all | IA | Humano
//	mode       rules | business_hours (default from config)
//	rule       DAYS[/START-END], repeatable (rules mode)
//	business   all | inside | outside (business_hours mode)
func parseFilters(
	r *http.Request, cfg config.Config, loc *time.Location,
) (filter.Global, filter.TimeConstraint) {
	q := r.URL.Query()
	g := filter.ParseGlobal(q.Get("from"), q.Get("to"), q.Get("type"), loc)

	switch filter.ParseKind(q.Get("mode"), cfg.TimeMode) {
	case filter.KindBusinessHours:
		return g, filter.BusinessHours(
			filter.ParseBusinessFilter(q.Get("business")),
			cfg.BusinessHours,
		)
	default:
		return g, filter.Rules(window.ParseRules(q["rule"]))
	}
}
