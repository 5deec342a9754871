// Package aggregate reduces a filtered event set to the
// dashboard's chart views.
package aggregate

import (
	"sort"
	"strconv"

	"github.com/wesm/agendaview/internal/event"
	"github.com/wesm/agendaview/internal/filter"
)

// Counts holds per-category counts for one bucket.
type Counts struct {
	IA     int `json:"IA"`
	Humano int `json:"Humano"`
}

func (c *Counts) add(cat event.Category) {
	switch cat {
	case event.AI:
		c.IA++
	case event.Human:
		c.Humano++
	}
}

// DailyEntry is one calendar day of the daily series.
type DailyEntry struct {
	Date string `json:"date"`
	Counts
}

// HourEntry is one bucket of the hour-of-day histogram.
type HourEntry struct {
	Hour  int    `json:"hour"`
	Label string `json:"label"`
	Counts
}

// DayEntry is one bucket of the day-of-week histogram.
type DayEntry struct {
	DayOfWeek int    `json:"day_of_week"` // 0=Sun
	Day       string `json:"day"`
	Counts
}

// CategoryTotals summarizes the category split. Percentages
// carry one decimal, or "0" when there are no events.
type CategoryTotals struct {
	IA               int    `json:"ia"`
	Humano           int    `json:"humano"`
	Total            int    `json:"total"`
	IAPercentage     string `json:"iaPercentage"`
	HumanoPercentage string `json:"humanoPercentage"`
}

// Slice is one wedge of the category pie chart.
type Slice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

// dayNames are the short Portuguese weekday labels, Sunday
// first.
var dayNames = [7]string{"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"}

// Daily groups events by calendar date. Only dates with at
// least one event appear; entries are sorted by date.
func Daily(events []event.Event) []DailyEntry {
	buckets := make(map[string]*DailyEntry)
	for _, e := range events {
		key := e.DateKey()
		b, ok := buckets[key]
		if !ok {
			b = &DailyEntry{Date: key}
			buckets[key] = b
		}
		b.add(e.Category)
	}

	out := make([]DailyEntry, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out
}

// Hourly counts events per local hour of day.
func Hourly(events []event.Event) [24]HourEntry {
	var out [24]HourEntry
	for h := range out {
		out[h].Hour = h
		out[h].Label = strconv.Itoa(h) + ":00"
	}
	for _, e := range events {
		if e.Hour < 0 || e.Hour > 23 {
			continue
		}
		out[e.Hour].add(e.Category)
	}
	return out
}

// Weekly counts events per day of week, Sunday first.
func Weekly(events []event.Event) [7]DayEntry {
	var out [7]DayEntry
	for d := range out {
		out[d].DayOfWeek = d
		out[d].Day = dayNames[d]
	}
	for _, e := range events {
		if e.DayOfWeek < 0 || e.DayOfWeek > 6 {
			continue
		}
		out[e.DayOfWeek].add(e.Category)
	}
	return out
}

// Totals computes category counts and percentages.
func Totals(events []event.Event) CategoryTotals {
	var c Counts
	for _, e := range events {
		c.add(e.Category)
	}
	total := c.IA + c.Humano
	return CategoryTotals{
		IA:               c.IA,
		Humano:           c.Humano,
		Total:            total,
		IAPercentage:     percentage(c.IA, total),
		HumanoPercentage: percentage(c.Humano, total),
	}
}

func percentage(n, total int) string {
	if total == 0 {
		return "0"
	}
	return strconv.FormatFloat(
		float64(n)/float64(total)*100, 'f', 1, 64,
	)
}

// Pie returns the category chart feed for t.
func Pie(t CategoryTotals) []Slice {
	return []Slice{
		{Name: event.AI.String(), Value: t.IA, Color: "#3b82f6"},
		{Name: event.Human.String(), Value: t.Humano, Color: "#10b981"},
	}
}

// Bundle is every view derived from one filter state.
type Bundle struct {
	Filtered []event.Event  `json:"-"`
	Count    int            `json:"count"`
	Totals   CategoryTotals `json:"totals"`
	Pie      []Slice        `json:"pie"`
	Daily    []DailyEntry   `json:"daily"`
	Hourly   [24]HourEntry  `json:"hourly"`
	Weekly   [7]DayEntry    `json:"weekly"`
}

// Recompute filters events and derives all views from scratch.
// The result shares no mutable state with the input.
func Recompute(
	events []event.Event, g filter.Global, tc filter.TimeConstraint,
) Bundle {
	filtered := filter.Apply(events, g, tc)
	totals := Totals(filtered)
	return Bundle{
		Filtered: filtered,
		Count:    len(filtered),
		Totals:   totals,
		Pie:      Pie(totals),
		Daily:    Daily(filtered),
		Hourly:   Hourly(filtered),
		Weekly:   Weekly(filtered),
	}
}
