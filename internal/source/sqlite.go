package source

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/wesm/agendaview/internal/event"
	"github.com/wesm/agendaview/internal/timeutil"
)

// SQLite reads rows from a table in an existing SQLite
// database, opened read-only. The table's first three columns
// are taken as id, created and activity.
type SQLite struct {
	Path  string
	Table string
}

// Name implements Source.
func (s *SQLite) Name() string { return string(KindSQLite) }

// FilePath implements FileSource.
func (s *SQLite) FilePath() string { return s.Path }

// makeDSN builds a read-only connection string.
func makeDSN(path string) string {
	params := url.Values{}
	params.Set("mode", "ro")
	params.Set("_busy_timeout", "5000")
	return "file:" + path + "?" + params.Encode()
}

// quoteIdent quotes a table name for interpolation.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Fetch implements Source.
func (s *SQLite) Fetch(ctx context.Context) ([]event.RawRow, error) {
	db, err := sql.Open("sqlite3", makeDSN(s.Path))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite source: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	query := "SELECT * FROM " + quoteIdent(s.Table) + " ORDER BY rowid"
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.Table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	var out []event.RawRow
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		n := min(len(vals), 3)
		rec := make([]string, n)
		for i := range n {
			rec[i] = columnString(vals[i])
		}
		out = append(out, positionalRow(rec))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return tag(out, s.Name()), nil
}

// columnString renders a scanned column value as text. NULL
// becomes empty so the normalizer treats it as missing.
func columnString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return timeutil.Format(x)
	default:
		return fmt.Sprint(x)
	}
}
