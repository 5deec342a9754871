// Package filter composes the global date and category filters
// with a time constraint to produce the working event subset.
package filter

import (
	"strings"
	"time"

	"github.com/wesm/agendaview/internal/event"
	"github.com/wesm/agendaview/internal/window"
)

// CategoryFilter restricts events to one category.
type CategoryFilter string

const (
	AnyCategory   CategoryFilter = "all"
	AICategory    CategoryFilter = "IA"
	HumanCategory CategoryFilter = "Humano"
)

// ParseCategory maps user input to a filter. Unknown values
// mean no restriction.
func ParseCategory(s string) CategoryFilter {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ia", "ai":
		return AICategory
	case "humano", "human":
		return HumanCategory
	default:
		return AnyCategory
	}
}

func (c CategoryFilter) allows(cat event.Category) bool {
	switch c {
	case AICategory:
		return cat == event.AI
	case HumanCategory:
		return cat == event.Human
	default:
		return true
	}
}

// Global holds the date range and category filters. Zero
// Start or End leaves that side unbounded.
type Global struct {
	Start    time.Time      `json:"start,omitzero"`
	End      time.Time      `json:"end,omitzero"`
	Category CategoryFilter `json:"type"`
}

// ParseGlobal builds a Global from form values. Dates are
// YYYY-MM-DD in loc; Start is the first second of its day and
// End the last (23:59:59). Unparseable dates are ignored.
func ParseGlobal(start, end, category string, loc *time.Location) Global {
	if loc == nil {
		loc = time.UTC
	}
	var g Global
	if t, err := time.ParseInLocation(
		"2006-01-02", strings.TrimSpace(start), loc,
	); err == nil {
		g.Start = t
	}
	if t, err := time.ParseInLocation(
		"2006-01-02", strings.TrimSpace(end), loc,
	); err == nil {
		y, m, d := t.Date()
		g.End = time.Date(y, m, d, 23, 59, 59, 0, loc)
	}
	g.Category = ParseCategory(category)
	return g
}

func (g Global) allows(e event.Event) bool {
	if !g.Start.IsZero() && e.CreatedAt.Before(g.Start) {
		return false
	}
	if !g.End.IsZero() && e.CreatedAt.After(g.End) {
		return false
	}
	return g.Category.allows(e.Category)
}

// BusinessFilter selects events by business-hours membership.
type BusinessFilter string

const (
	AllHours     BusinessFilter = "all"
	InsideHours  BusinessFilter = "inside"
	OutsideHours BusinessFilter = "outside"
)

// ParseBusinessFilter maps user input to a BusinessFilter.
// Unknown values mean no restriction.
func ParseBusinessFilter(s string) BusinessFilter {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inside", "dentro":
		return InsideHours
	case "outside", "fora":
		return OutsideHours
	default:
		return AllHours
	}
}

// Kind selects the time-constraint strategy.
type Kind string

const (
	KindRules         Kind = "rules"
	KindBusinessHours Kind = "business_hours"
)

// ParseKind maps user input to a Kind, falling back to def.
func ParseKind(s string, def Kind) Kind {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindRules:
		return KindRules
	case KindBusinessHours:
		return KindBusinessHours
	default:
		return def
	}
}

// TimeConstraint is either a rule set (events must match at
// least one rule) or a business-hours toggle (events inside or
// outside the schedule). Only the fields of the active Kind are
// consulted.
type TimeConstraint struct {
	Kind     Kind            `json:"mode"`
	Rules    window.RuleSet  `json:"rules,omitempty"`
	Business BusinessFilter  `json:"business,omitempty"`
	Schedule window.Schedule `json:"schedule,omitempty"`
}

// Rules returns a rule-set constraint.
func Rules(rules window.RuleSet) TimeConstraint {
	return TimeConstraint{Kind: KindRules, Rules: rules}
}

// BusinessHours returns a business-hours constraint.
func BusinessHours(
	bf BusinessFilter, schedule window.Schedule,
) TimeConstraint {
	return TimeConstraint{
		Kind:     KindBusinessHours,
		Business: bf,
		Schedule: schedule,
	}
}

func (tc TimeConstraint) allows(e event.Event) bool {
	switch tc.Kind {
	case KindBusinessHours:
		switch tc.Business {
		case InsideHours:
			return window.IsInsideBusinessHours(e, tc.Schedule)
		case OutsideHours:
			return !window.IsInsideBusinessHours(e, tc.Schedule)
		default:
			return true
		}
	default:
		return window.MatchesAny(e, tc.Rules)
	}
}

// Apply returns the events that pass the global filter and the
// time constraint, in input order. The input is not modified.
func Apply(
	events []event.Event, g Global, tc TimeConstraint,
) []event.Event {
	out := make([]event.Event, 0, len(events))
	for _, e := range events {
		if !g.allows(e) {
			continue
		}
		if !tc.allows(e) {
			continue
		}
		out = append(out, e)
	}
	return out
}
