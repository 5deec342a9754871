// Package export serializes filtered events for download.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/wesm/agendaview/internal/event"
)

// Filename is the suggested download name.
const Filename = "agendamentos_export.csv"

// ContentType is the MIME type of the CSV output.
const ContentType = "text/csv; charset=utf-8"

const (
	dateLayout = "02/01/2006"
	timeLayout = "15:04:05"
)

var header = []string{"ID", "Data", "Hora", "Tipo", "Fonte"}

// WriteCSV writes events as CSV with every field quoted. Dates
// and times are rendered in loc. Nothing is written when events
// is empty. It returns the number of data rows written.
func WriteCSV(
	w io.Writer, events []event.Event, loc *time.Location,
) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	bw := bufio.NewWriter(w)
	if err := writeRecord(bw, header, false); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}
	for i, e := range events {
		t := e.CreatedAt.In(loc)
		rec := []string{
			e.ID,
			t.Format(dateLayout),
			t.Format(timeLayout),
			e.Category.String(),
			e.Source,
		}
		if err := writeRecord(bw, rec, true); err != nil {
			return i, fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("flushing csv: %w", err)
	}
	return len(events), nil
}

// writeRecord emits one line. Quoted fields have embedded
// quotes doubled.
func writeRecord(w *bufio.Writer, fields []string, quote bool) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if quote {
			f = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
		}
		if _, err := w.WriteString(f); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}
