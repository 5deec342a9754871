package window

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wesm/agendaview/internal/event"
)

func hourPtr(h int) *int { return &h }

func ev(dow, hour int) event.Event {
	return event.Event{DayOfWeek: dow, Hour: hour}
}

func TestRuleMatches(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		dow  int
		hour int
		want bool
	}{
		{"wrap late evening", Rule{Days: []int{6}, Start: hourPtr(20), End: hourPtr(8)}, 6, 23, true},
		{"wrap early morning", Rule{Days: []int{6}, Start: hourPtr(20), End: hourPtr(8)}, 6, 1, true},
		{"wrap at start", Rule{Days: []int{6}, Start: hourPtr(20), End: hourPtr(8)}, 6, 20, true},
		{"wrap at end", Rule{Days: []int{6}, Start: hourPtr(20), End: hourPtr(8)}, 6, 8, true},
		{"wrap midday", Rule{Days: []int{6}, Start: hourPtr(20), End: hourPtr(8)}, 6, 12, false},
		{"single hour hit", Rule{Days: []int{2}, Start: hourPtr(14), End: hourPtr(14)}, 2, 14, true},
		{"single hour before", Rule{Days: []int{2}, Start: hourPtr(14), End: hourPtr(14)}, 2, 13, false},
		{"single hour after", Rule{Days: []int{2}, Start: hourPtr(14), End: hourPtr(14)}, 2, 15, false},
		{"single hour other day", Rule{Days: []int{2}, Start: hourPtr(14), End: hourPtr(14)}, 3, 14, false},
		{"inclusive end", Rule{Days: []int{1}, Start: hourPtr(8), End: hourPtr(18)}, 1, 18, true},
		{"all day", Rule{Days: []int{0, 6}}, 0, 3, true},
		{"only start set is all day", Rule{Days: []int{0}, Start: hourPtr(10)}, 0, 3, true},
		{"day missing", Rule{Days: []int{1, 2}}, 3, 10, false},
		{"no days", Rule{Start: hourPtr(0), End: hourPtr(23)}, 3, 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.Matches(tt.dow, tt.hour); got != tt.want {
				t.Errorf("Matches(%d, %d) = %v, want %v",
					tt.dow, tt.hour, got, tt.want)
			}
		})
	}
}

func TestMatchesAny(t *testing.T) {
	rules := RuleSet{
		{Days: []int{1}, Start: hourPtr(8), End: hourPtr(12)},
		{Days: []int{5}},
	}

	if !MatchesAny(ev(3, 3), nil) {
		t.Error("empty rule set should match everything")
	}
	if !MatchesAny(ev(1, 9), rules) {
		t.Error("first rule should match monday 09h")
	}
	if !MatchesAny(ev(5, 23), rules) {
		t.Error("second rule should match any friday hour")
	}
	if MatchesAny(ev(1, 13), rules) {
		t.Error("monday 13h should not match")
	}
	if MatchesAny(ev(3, 9), RuleSet{{}}) {
		t.Error("a rule without days should never match")
	}
}

func TestIsInsideBusinessHours(t *testing.T) {
	sched := Schedule{1: {Start: 8, End: 18}}
	tests := []struct {
		name string
		e    event.Event
		want bool
	}{
		{"end hour is outside", ev(1, 18), false},
		{"last full hour inside", ev(1, 17), true},
		{"start hour inside", ev(1, 8), true},
		{"before start", ev(1, 7), false},
		{"closed day", ev(0, 10), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsInsideBusinessHours(tt.e, sched); got != tt.want {
				t.Errorf("IsInsideBusinessHours = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultSchedule(t *testing.T) {
	s := DefaultSchedule()
	if _, ok := s[0]; ok {
		t.Error("sunday should be closed")
	}
	if _, ok := s[6]; ok {
		t.Error("saturday should be closed")
	}
	if !IsInsideBusinessHours(ev(3, 10), s) {
		t.Error("wednesday 10h should be inside")
	}
}

func TestScheduleClean(t *testing.T) {
	got := Schedule{
		1: {Start: -3, End: 30},
		7: {Start: 8, End: 18},
	}.Clean()
	want := Schedule{1: {Start: 0, End: 24}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Clean() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseHour(t *testing.T) {
	tests := []struct {
		in   string
		want *int
	}{
		{"", nil},
		{"  ", nil},
		{"abc", nil},
		{"-", nil},
		{"8", hourPtr(8)},
		{" 14 ", hourPtr(14)},
		{"08", hourPtr(8)},
		{"9h", hourPtr(9)},
		{"7.5", hourPtr(7)},
		{"24", hourPtr(23)},
		{"99999999999999999999", hourPtr(23)},
		{"-4", hourPtr(0)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseHour(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseHour(%q) mismatch (-want +got):\n%s",
					tt.in, diff)
			}
		})
	}
}

func TestParseRule(t *testing.T) {
	tests := []struct {
		in   string
		want Rule
	}{
		{"1,2,3/8-18", Rule{Days: []int{1, 2, 3}, Start: hourPtr(8), End: hourPtr(18)}},
		{"6/20-8", Rule{Days: []int{6}, Start: hourPtr(20), End: hourPtr(8)}},
		{"0,6", Rule{Days: []int{0, 6}}},
		{"1,1,9,x/8", Rule{Days: []int{1}}},
		{"2/x-14", Rule{Days: []int{2}, End: hourPtr(14)}},
		{"", Rule{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseRule(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseRule(%q) mismatch (-want +got):\n%s",
					tt.in, diff)
			}
		})
	}
}

func TestRuleStringRoundTrip(t *testing.T) {
	for _, s := range []string{"1,2,3/8-18", "6/20-8", "0,6"} {
		if got := ParseRule(s).String(); got != s {
			t.Errorf("ParseRule(%q).String() = %q", s, got)
		}
	}
}

func TestParseRules(t *testing.T) {
	got := ParseRules([]string{"1/8-12", " ", "5"})
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
}
