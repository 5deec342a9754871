// Package timeutil formats timestamps for text-based sources.
package timeutil

import "time"

const wallClock = "2006-01-02T15:04:05.999999999"

// Format renders t as text for the normalizer. A time in UTC
// is written as offset-less wall clock, since drivers decode
// DATETIME values without an offset as UTC; the reader then
// places it in its display location. Other zones keep their
// offset (RFC3339Nano). The zero time becomes the empty
// string, which readers treat as missing.
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if t.Location() == time.UTC {
		return t.Format(wallClock)
	}
	return t.Format(time.RFC3339Nano)
}
