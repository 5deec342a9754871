package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/wesm/agendaview/internal/event"
)

// DefaultSheetsURL is the Google Sheets API endpoint.
const DefaultSheetsURL = "https://sheets.googleapis.com"

const maxSheetsBody = 32 << 20

// TokenFunc returns an OAuth access token with read access to
// the spreadsheet. Acquiring it is the caller's concern.
type TokenFunc func(ctx context.Context) (string, error)

// StaticToken returns a TokenFunc that always yields tok.
func StaticToken(tok string) TokenFunc {
	return func(context.Context) (string, error) {
		if tok == "" {
			return "", fmt.Errorf("no access token configured")
		}
		return tok, nil
	}
}

// Sheets reads columns A:C of one sheet through the Sheets
// values API. Row 1 is a header and is skipped.
type Sheets struct {
	SpreadsheetID string
	SheetName     string

	token   TokenFunc
	baseURL string
	client  *http.Client
}

// SheetsOption configures a Sheets source.
type SheetsOption func(*Sheets)

// WithBaseURL overrides the API endpoint. Empty is ignored.
func WithBaseURL(u string) SheetsOption {
	return func(s *Sheets) {
		if u != "" {
			s.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient overrides the HTTP client. Nil is ignored.
func WithHTTPClient(c *http.Client) SheetsOption {
	return func(s *Sheets) {
		if c != nil {
			s.client = c
		}
	}
}

// NewSheets creates a Sheets source.
func NewSheets(
	spreadsheetID, sheetName string, token TokenFunc,
	opts ...SheetsOption,
) *Sheets {
	s := &Sheets{
		SpreadsheetID: spreadsheetID,
		SheetName:     sheetName,
		token:         token,
		baseURL:       DefaultSheetsURL,
		client:        &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements Source.
func (s *Sheets) Name() string { return string(KindSheets) }

func (s *Sheets) valuesURL() string {
	rng := s.SheetName + "!A:C"
	return s.baseURL + "/v4/spreadsheets/" +
		url.PathEscape(s.SpreadsheetID) + "/values/" +
		url.PathEscape(rng)
}

// Fetch implements Source.
func (s *Sheets) Fetch(ctx context.Context) ([]event.RawRow, error) {
	tok, err := s.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring token: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, s.valuesURL(), nil,
	)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching sheet: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSheetsBody))
	if err != nil {
		return nil, fmt.Errorf("reading sheet response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(body, "error.message").Str
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf(
			"sheets api: status %d: %s", resp.StatusCode, msg,
		)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("sheets api: invalid json response")
	}

	values := gjson.GetBytes(body, "values")
	var rows []event.RawRow
	first := true
	values.ForEach(func(_, v gjson.Result) bool {
		if first {
			first = false
			return true
		}
		if r, ok := rowFromJSON(v); ok {
			rows = append(rows, r)
		}
		return true
	})
	return tag(rows, s.Name()), nil
}
