package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/gjson"

	"github.com/wesm/agendaview/internal/event"
)

// CSVFile reads a sheet exported as CSV. The first record is a
// header and is skipped; columns are positional.
type CSVFile struct {
	Path string
}

// Name implements Source.
func (c *CSVFile) Name() string { return string(KindCSV) }

// FilePath implements FileSource.
func (c *CSVFile) FilePath() string { return c.Path }

// Fetch implements Source.
func (c *CSVFile) Fetch(ctx context.Context) ([]event.RawRow, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("opening csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows []event.RawRow
	for line := 0; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		if line == 0 {
			continue
		}
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rows = append(rows, positionalRow(rec))
	}
	return tag(rows, c.Name()), nil
}

// JSONFile reads a JSON array of rows, each either an object
// with id/created/activity/source keys or a positional array.
type JSONFile struct {
	Path string
}

// Name implements Source.
func (j *JSONFile) Name() string { return string(KindJSON) }

// FilePath implements FileSource.
func (j *JSONFile) FilePath() string { return j.Path }

// Fetch implements Source.
func (j *JSONFile) Fetch(ctx context.Context) ([]event.RawRow, error) {
	data, err := os.ReadFile(j.Path)
	if err != nil {
		return nil, fmt.Errorf("reading json: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parsing %s: invalid json", j.Path)
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf(
			"parsing %s: top-level value must be an array", j.Path,
		)
	}

	var rows []event.RawRow
	root.ForEach(func(_, v gjson.Result) bool {
		if r, ok := rowFromJSON(v); ok {
			rows = append(rows, r)
		}
		return true
	})
	return tag(rows, j.Name()), nil
}
