// Package event turns raw scheduling rows into classified,
// time-stamped events.
package event

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Category classifies who handled a scheduling event.
type Category int

const (
	AI Category = iota + 1
	Human
)

// String returns the dashboard label for the category.
func (c Category) String() string {
	switch c {
	case AI:
		return "IA"
	case Human:
		return "Humano"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the category as its label.
func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts either label.
func (c *Category) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "IA":
		*c = AI
	case "Humano":
		*c = Human
	default:
		return fmt.Errorf("unknown category %q", s)
	}
	return nil
}

// RawRow is one record as delivered by a data source, before
// normalization. Empty fields are treated as missing.
type RawRow struct {
	ID       string `json:"id"`
	Created  string `json:"created"`
	Activity string `json:"activity"`
	Source   string `json:"source,omitempty"`
}

// Event is a normalized, classified scheduling event.
type Event struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Category  Category  `json:"type"`
	Hour      int       `json:"hour"`        // 0-23, local
	DayOfWeek int       `json:"day_of_week"` // 0=Sun, 6=Sat
	Source    string    `json:"source"`
}

// DateKey returns the calendar date used for daily bucketing.
func (e Event) DateKey() string {
	return e.CreatedAt.Format("2006-01-02")
}

var (
	aiMarkers    = []string{"agendadoia", "agendamento ia"}
	humanMarkers = []string{"agendadahumano", "agendamento humano"}
)

// Classify maps an activity label to a category by
// case-insensitive substring match. AI markers are checked
// first. Returns false when the label matches neither.
func Classify(label string) (Category, bool) {
	if label == "" {
		return 0, false
	}
	lower := strings.ToLower(label)
	for _, m := range aiMarkers {
		if strings.Contains(lower, m) {
			return AI, true
		}
	}
	for _, m := range humanMarkers {
		if strings.Contains(lower, m) {
			return Human, true
		}
	}
	return 0, false
}

// Layouts without a zone offset are interpreted in the
// caller's location.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601-like timestamp. Values
// carrying an offset keep it; others are read in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Stats counts the outcome of a normalization pass.
type Stats struct {
	Rows    int `json:"rows"`
	Kept    int `json:"kept"`
	Dropped int `json:"dropped"`
	IA      int `json:"ia"`
	Humano  int `json:"humano"`
}

// Normalize converts raw rows into events, silently dropping
// rows with a missing or unparseable timestamp, a missing
// label, or a label that is neither AI nor human. Hour and
// day of week are derived in loc. Input order is preserved.
func Normalize(rows []RawRow, loc *time.Location) []Event {
	events, _ := NormalizeWithStats(rows, loc)
	return events
}

// NormalizeWithStats is Normalize plus drop accounting.
func NormalizeWithStats(
	rows []RawRow, loc *time.Location,
) ([]Event, Stats) {
	if loc == nil {
		loc = time.UTC
	}
	st := Stats{Rows: len(rows)}
	events := make([]Event, 0, len(rows))
	for i, r := range rows {
		e, ok := normalizeRow(i, r, loc)
		if !ok {
			st.Dropped++
			continue
		}
		st.Kept++
		if e.Category == AI {
			st.IA++
		} else {
			st.Humano++
		}
		events = append(events, e)
	}
	return events, st
}

func normalizeRow(
	index int, r RawRow, loc *time.Location,
) (Event, bool) {
	if strings.TrimSpace(r.Activity) == "" {
		return Event{}, false
	}
	cat, ok := Classify(r.Activity)
	if !ok {
		return Event{}, false
	}
	t, ok := ParseTimestamp(r.Created, loc)
	if !ok {
		return Event{}, false
	}
	t = t.In(loc)

	id := strings.TrimSpace(r.ID)
	if id == "" {
		id = "contact_" + strconv.Itoa(index)
	}
	return Event{
		ID:        id,
		CreatedAt: t,
		Category:  cat,
		Hour:      t.Hour(),
		DayOfWeek: int(t.Weekday()),
		Source:    r.Source,
	}, true
}
