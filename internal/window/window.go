// Package window decides whether an event's local hour and
// weekday fall inside user-defined time windows or a weekly
// business-hours schedule.
package window

import (
	"slices"
	"strconv"
	"strings"

	"github.com/wesm/agendaview/internal/event"
)

// Rule selects events on a set of weekdays (0=Sun, 6=Sat),
// optionally restricted to an hour window. Start and End are
// both inclusive; a window with Start > End wraps midnight.
// When either bound is nil the rule covers the whole day.
type Rule struct {
	Days  []int `json:"days"`
	Start *int  `json:"start,omitempty"`
	End   *int  `json:"end,omitempty"`
}

// RuleSet is an ordered list of rules combined with OR.
type RuleSet []Rule

// Matches reports whether a weekday/hour pair satisfies the
// rule. A rule without days never matches.
func (r Rule) Matches(dayOfWeek, hour int) bool {
	if len(r.Days) == 0 {
		return false
	}
	if !slices.Contains(r.Days, dayOfWeek) {
		return false
	}
	if r.Start == nil || r.End == nil {
		return true
	}
	start, end := *r.Start, *r.End
	if start <= end {
		return hour >= start && hour <= end
	}
	return hour >= start || hour <= end
}

// MatchesAny reports whether e matches at least one rule. An
// empty set places no time restriction and always matches.
func MatchesAny(e event.Event, rules RuleSet) bool {
	if len(rules) == 0 {
		return true
	}
	for _, r := range rules {
		if r.Matches(e.DayOfWeek, e.Hour) {
			return true
		}
	}
	return false
}

// String renders the rule in the syntax accepted by ParseRule.
func (r Rule) String() string {
	days := make([]string, len(r.Days))
	for i, d := range r.Days {
		days[i] = strconv.Itoa(d)
	}
	s := strings.Join(days, ",")
	if r.Start != nil && r.End != nil {
		s += "/" + strconv.Itoa(*r.Start) + "-" + strconv.Itoa(*r.End)
	}
	return s
}

// ParseHour reads a user-entered hour. Blank or non-numeric
// input yields nil (no constraint); a leading integer is
// honoured the way a lenient form field would, and the value
// is clamped to 0-23.
func ParseHour(s string) *int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return nil
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		// overflow: clamp by sign
		if s[0] == '-' {
			v = 0
		} else {
			v = 23
		}
	}
	v = min(max(v, 0), 23)
	return &v
}

// ParseDays reads a comma-separated weekday list. Entries
// that are not integers in 0-6 are ignored and duplicates
// collapse.
func ParseDays(s string) []int {
	var days []int
	for part := range strings.SplitSeq(s, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || v < 0 || v > 6 {
			continue
		}
		if !slices.Contains(days, v) {
			days = append(days, v)
		}
	}
	return days
}

// ParseRule reads "DAYS[/START-END]", for example "1,2,3/8-18",
// "6/20-8" or "0,6". It never fails: malformed hours leave
// the window unset and malformed days are dropped.
func ParseRule(s string) Rule {
	daysPart, hoursPart, hasHours := strings.Cut(strings.TrimSpace(s), "/")
	r := Rule{Days: ParseDays(daysPart)}
	if !hasHours {
		return r
	}
	start, end, ok := strings.Cut(hoursPart, "-")
	if !ok {
		return r
	}
	r.Start = ParseHour(start)
	r.End = ParseHour(end)
	return r
}

// ParseRules parses each entry with ParseRule, skipping blank
// entries.
func ParseRules(specs []string) RuleSet {
	var rules RuleSet
	for _, s := range specs {
		if strings.TrimSpace(s) == "" {
			continue
		}
		rules = append(rules, ParseRule(s))
	}
	return rules
}
