package filter

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesm/agendaview/internal/event"
	"github.com/wesm/agendaview/internal/window"
)

func mustEvents(t *testing.T, rows ...event.RawRow) []event.Event {
	t.Helper()
	events := event.Normalize(rows, time.UTC)
	require.Len(t, events, len(rows))
	return events
}

func ids(events []event.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func sampleEvents(t *testing.T) []event.Event {
	return mustEvents(t,
		event.RawRow{ID: "sat-night-h", Created: "2025-07-12T20:00:00", Activity: "agendadahumano"},
		event.RawRow{ID: "sat-late-ia", Created: "2025-07-12T23:59:59", Activity: "agendadoia"},
		event.RawRow{ID: "sun-early-h", Created: "2025-07-13T01:00:00", Activity: "agendadahumano"},
		event.RawRow{ID: "mon-morning-ia", Created: "2025-07-14T09:30:00", Activity: "agendadoia"},
		event.RawRow{ID: "tue-afternoon-ia", Created: "2025-07-15T14:00:00", Activity: "agendadoia"},
		event.RawRow{ID: "fri-dawn-h", Created: "2025-07-18T05:00:00", Activity: "agendadahumano"},
	)
}

func TestParseGlobal(t *testing.T) {
	g := ParseGlobal("2025-07-12", "2025-07-13", "IA", time.UTC)
	assert.Equal(t,
		time.Date(2025, 7, 12, 0, 0, 0, 0, time.UTC), g.Start)
	assert.Equal(t,
		time.Date(2025, 7, 13, 23, 59, 59, 0, time.UTC), g.End)
	assert.Equal(t, AICategory, g.Category)

	g = ParseGlobal("12/07/2025", "", "whatever", time.UTC)
	assert.True(t, g.Start.IsZero())
	assert.True(t, g.End.IsZero())
	assert.Equal(t, AnyCategory, g.Category)
}

func TestApplyDateRangeInclusive(t *testing.T) {
	events := sampleEvents(t)

	g := ParseGlobal("", "2025-07-12", "all", time.UTC)
	got := Apply(events, g, Rules(nil))
	assert.Equal(t, []string{"sat-night-h", "sat-late-ia"}, ids(got))

	g = ParseGlobal("", "2025-07-11", "all", time.UTC)
	assert.Empty(t, Apply(events, g, Rules(nil)))

	g = ParseGlobal("2025-07-14", "2025-07-15", "all", time.UTC)
	got = Apply(events, g, Rules(nil))
	assert.Equal(t, []string{"mon-morning-ia", "tue-afternoon-ia"}, ids(got))
}

func TestParseGlobalAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name string
		day  string
	}{
		{"FallBack", "2025-11-02"},
		{"SpringForward", "2025-03-09"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := ParseGlobal(tt.day, tt.day, "all", ny)
			day, err := time.ParseInLocation("2006-01-02", tt.day, ny)
			require.NoError(t, err)
			y, m, d := day.Date()
			assert.Equal(t, time.Date(y, m, d, 0, 0, 0, 0, ny), g.Start)
			assert.Equal(t, time.Date(y, m, d, 23, 59, 59, 0, ny), g.End)

			events := event.Normalize([]event.RawRow{
				{ID: "late", Created: tt.day + "T23:30:00", Activity: "agendadoia"},
				{ID: "next", Created: day.AddDate(0, 0, 1).Format("2006-01-02") + "T00:30:00", Activity: "agendadoia"},
			}, ny)
			require.Len(t, events, 2)
			assert.Equal(t, []string{"late"}, ids(Apply(events, g, Rules(nil))))
		})
	}
}

func TestApplyEndBoundIsLastSecond(t *testing.T) {
	events := event.Normalize([]event.RawRow{
		{ID: "edge", Created: "2025-07-12T23:59:59.500", Activity: "agendadoia"},
	}, time.UTC)
	g := ParseGlobal("", "2025-07-12", "", time.UTC)
	assert.Empty(t, Apply(events, g, Rules(nil)))
}

func TestApplyCategory(t *testing.T) {
	events := sampleEvents(t)

	got := Apply(events, Global{Category: HumanCategory}, Rules(nil))
	assert.Equal(t,
		[]string{"sat-night-h", "sun-early-h", "fri-dawn-h"}, ids(got))

	got = Apply(events, Global{Category: AICategory}, Rules(nil))
	assert.Len(t, got, 3)

	got = Apply(events, Global{}, Rules(nil))
	assert.Len(t, got, len(events))
}

func TestApplyRules(t *testing.T) {
	events := sampleEvents(t)
	weekendNights := window.RuleSet{window.ParseRule("6,0/20-8")}

	got := Apply(events, Global{}, Rules(weekendNights))
	assert.Equal(t,
		[]string{"sat-night-h", "sat-late-ia", "sun-early-h"}, ids(got))

	// OR across rules, AND with category.
	rules := append(weekendNights, window.ParseRule("1"))
	got = Apply(events, Global{Category: AICategory}, Rules(rules))
	assert.Equal(t, []string{"sat-late-ia", "mon-morning-ia"}, ids(got))

	// A rule without days filters everything out.
	got = Apply(events, Global{}, Rules(window.RuleSet{{}}))
	assert.Empty(t, got)
}

func TestApplyBusinessHours(t *testing.T) {
	events := sampleEvents(t)
	sched := window.DefaultSchedule()

	inside := Apply(events, Global{}, BusinessHours(InsideHours, sched))
	assert.Equal(t,
		[]string{"mon-morning-ia", "tue-afternoon-ia"}, ids(inside))

	outside := Apply(events, Global{}, BusinessHours(OutsideHours, sched))
	assert.Len(t, outside, len(events)-len(inside))

	all := Apply(events, Global{}, BusinessHours(AllHours, sched))
	assert.Len(t, all, len(events))
}

func TestApplyBusinessHoursIgnoresRules(t *testing.T) {
	events := sampleEvents(t)
	tc := BusinessHours(AllHours, window.DefaultSchedule())
	tc.Rules = window.RuleSet{{}}
	assert.Len(t, Apply(events, Global{}, tc), len(events))
}

func TestApplyDoesNotMutate(t *testing.T) {
	events := sampleEvents(t)
	before := append([]event.Event(nil), events...)
	_ = Apply(events, Global{Category: AICategory}, Rules(nil))
	assert.Equal(t, before, events)
}

func TestParsers(t *testing.T) {
	assert.Equal(t, HumanCategory, ParseCategory(" humano "))
	assert.Equal(t, AICategory, ParseCategory("ai"))
	assert.Equal(t, InsideHours, ParseBusinessFilter("Inside"))
	assert.Equal(t, OutsideHours, ParseBusinessFilter("fora"))
	assert.Equal(t, AllHours, ParseBusinessFilter("?"))
	assert.Equal(t, KindBusinessHours, ParseKind("business_hours", KindRules))
	assert.Equal(t, KindRules, ParseKind("bogus", KindRules))
}
