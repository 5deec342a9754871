package window

import (
	"github.com/wesm/agendaview/internal/event"
)

// Span is a half-open hour interval [Start, End).
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Schedule maps a weekday (0=Sun) to its business hours. A
// missing weekday is closed all day.
type Schedule map[int]Span

// DefaultSchedule is Monday to Friday, 08:00 to 18:00.
func DefaultSchedule() Schedule {
	s := make(Schedule, 5)
	for d := 1; d <= 5; d++ {
		s[d] = Span{Start: 8, End: 18}
	}
	return s
}

// Contains reports whether hour falls in [Start, End).
func (s Span) Contains(hour int) bool {
	return hour >= s.Start && hour < s.End
}

// IsInsideBusinessHours reports whether e falls inside the
// schedule. Unlike Rule windows, the end hour is exclusive.
func IsInsideBusinessHours(e event.Event, schedule Schedule) bool {
	span, ok := schedule[e.DayOfWeek]
	if !ok {
		return false
	}
	return span.Contains(e.Hour)
}

// Clean drops entries whose weekday is outside 0-6 and clamps
// hours to 0-24.
func (s Schedule) Clean() Schedule {
	out := make(Schedule, len(s))
	for d, span := range s {
		if d < 0 || d > 6 {
			continue
		}
		span.Start = min(max(span.Start, 0), 24)
		span.End = min(max(span.End, 0), 24)
		out[d] = span
	}
	return out
}
