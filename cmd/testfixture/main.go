package main

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type rowSpec struct {
	prefix string
	label  string
	day    int // days after base
	hour   int
	count  int
}

// specs cover business hours, both wrap-around windows and a
// few rows the normalizer must drop.
var specs = []rowSpec{
	{"ia-morning", "AgendadoIA", 0, 9, 12},
	{"ia-afternoon", "Agendamento IA", 1, 14, 20},
	{"human-morning", "agendadahumano", 0, 10, 8},
	{"human-night", "Agendamento Humano", 5, 22, 6},
	{"ia-night", "agendadoia", 6, 2, 4},
	{"ia-evening", "agendadoia", 2, 19, 10},
	{"unclassified", "cancelado", 3, 11, 3},
}

type fixtureRow struct {
	ID       string `json:"id"`
	Created  string `json:"created"`
	Activity string `json:"activity"`
	Source   string `json:"source,omitempty"`
}

func main() {
	out := flag.String("out", "", "output file path")
	format := flag.String("format", "", "csv, json or sqlite (default from extension)")
	table := flag.String("table", "agendamentos", "table name for sqlite output")
	flag.Parse()
	if *out == "" {
		fmt.Fprintln(os.Stderr, "usage: testfixture -out <path> [-format csv|json|sqlite]")
		os.Exit(1)
	}
	if *format == "" {
		*format = strings.TrimPrefix(filepath.Ext(*out), ".")
	}

	if err := os.Remove(*out); err != nil &&
		!errors.Is(err, os.ErrNotExist) {
		log.Fatalf("removing existing fixture: %v", err)
	}

	// Monday, so day offsets map to weekdays 1..0.
	base := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)
	rows := buildRows(specs, base)

	if err := writeFixture(*out, *format, *table, rows); err != nil {
		log.Fatalf("writing fixture: %v", err)
	}
	for _, spec := range specs {
		fmt.Printf("  %-14s %3d rows (%s)\n", spec.prefix, spec.count, spec.label)
	}
	fmt.Printf("Fixture with %d rows written to %s\n", len(rows), *out)
}

// buildRows expands specs into rows spaced one minute apart,
// plus one row with an unparseable timestamp.
func buildRows(specs []rowSpec, base time.Time) []fixtureRow {
	var rows []fixtureRow
	for _, spec := range specs {
		start := base.AddDate(0, 0, spec.day).
			Add(time.Duration(spec.hour) * time.Hour)
		for i := range spec.count {
			rows = append(rows, fixtureRow{
				ID:       fmt.Sprintf("%s-%d", spec.prefix, i),
				Created:  start.Add(time.Duration(i) * time.Minute).Format("2006-01-02T15:04:05"),
				Activity: spec.label,
				Source:   "fixture",
			})
		}
	}
	rows = append(rows, fixtureRow{
		ID: "bad-timestamp", Created: "not a date", Activity: "AgendadoIA",
	})
	return rows
}

func writeFixture(path, format, table string, rows []fixtureRow) error {
	switch format {
	case "csv":
		return writeFile(path, func(w io.Writer) error { return writeCSV(w, rows) })
	case "json":
		return writeFile(path, func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		})
	case "sqlite":
		return writeSQLite(path, table, rows)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeCSV mirrors the sheet layout: id, created, activity.
func writeCSV(w io.Writer, rows []fixtureRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "created", "activity"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.ID, r.Created, r.Activity}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeSQLite(path, table string, rows []fixtureRow) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("opening db: %w", err)
	}
	defer db.Close()

	quoted := `"` + strings.ReplaceAll(table, `"`, `""`) + `"`
	if _, err := db.Exec(`CREATE TABLE ` + quoted + ` (
		id TEXT, created TEXT, activity TEXT
	)`); err != nil {
		return fmt.Errorf("creating table: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO ` + quoted +
		` (id, created, activity) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.Exec(r.ID, r.Created, r.Activity); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}
