// Package source fetches raw scheduling rows from the
// configured backend: a Google Sheets range, a local CSV or
// JSON export, a SQLite table, or the built-in sample data.
package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/wesm/agendaview/internal/event"
)

// Kind names a source backend.
type Kind string

const (
	KindSheets Kind = "sheets"
	KindCSV    Kind = "csv"
	KindJSON   Kind = "json"
	KindSQLite Kind = "sqlite"
	KindMock   Kind = "mock"
)

// Source supplies a full batch of raw rows. Each Fetch returns
// the complete current dataset.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]event.RawRow, error)
}

// FileSource is implemented by sources backed by a local file
// that can be watched for changes.
type FileSource interface {
	Source
	FilePath() string
}

// Settings selects and parameterizes a source.
type Settings struct {
	Kind          Kind
	ClientID      string
	SpreadsheetID string
	SheetName     string
	Token         string
	BaseURL       string
	Path          string
	Table         string
}

// Ready reports whether s carries every identifier its kind
// needs before a fetch may be attempted.
func Ready(s Settings) bool {
	switch s.Kind {
	case KindSheets:
		return s.ClientID != "" && s.SpreadsheetID != "" &&
			s.SheetName != "" && s.Token != ""
	case KindCSV, KindJSON:
		return s.Path != ""
	case KindSQLite:
		return s.Path != "" && s.Table != ""
	case KindMock:
		return true
	default:
		return false
	}
}

// New builds the source described by s.
func New(s Settings) (Source, error) {
	switch s.Kind {
	case KindSheets:
		return NewSheets(
			s.SpreadsheetID, s.SheetName,
			StaticToken(s.Token),
			WithBaseURL(s.BaseURL),
		), nil
	case KindCSV:
		return &CSVFile{Path: s.Path}, nil
	case KindJSON:
		return &JSONFile{Path: s.Path}, nil
	case KindSQLite:
		return &SQLite{Path: s.Path, Table: s.Table}, nil
	case KindMock, "":
		return Mock{}, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", s.Kind)
	}
}

// tag fills in the source tag on rows that lack one.
func tag(rows []event.RawRow, name string) []event.RawRow {
	for i := range rows {
		if rows[i].Source == "" {
			rows[i].Source = name
		}
	}
	return rows
}

// positionalRow maps columns (0, 1, 2) to id, created and
// activity. Short rows leave the missing fields empty.
func positionalRow(cols []string) event.RawRow {
	get := func(i int) string {
		if i >= len(cols) {
			return ""
		}
		return strings.TrimSpace(cols[i])
	}
	return event.RawRow{
		ID:       get(0),
		Created:  get(1),
		Activity: get(2),
	}
}

// rowFromJSON reads a row given either as a positional array
// or as an object with id/created/activity/source keys.
func rowFromJSON(v gjson.Result) (event.RawRow, bool) {
	switch {
	case v.IsArray():
		var cols []string
		for _, c := range v.Array() {
			cols = append(cols, c.String())
		}
		return positionalRow(cols), true
	case v.IsObject():
		return event.RawRow{
			ID:       strings.TrimSpace(v.Get("id").String()),
			Created:  strings.TrimSpace(v.Get("created").String()),
			Activity: strings.TrimSpace(v.Get("activity").String()),
			Source:   strings.TrimSpace(v.Get("source").String()),
		}, true
	default:
		return event.RawRow{}, false
	}
}
