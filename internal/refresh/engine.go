// Package refresh pulls raw rows from a source, normalizes them
// and holds the result as the current in-memory snapshot.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log"
	gosync "sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/wesm/agendaview/internal/event"
	"github.com/wesm/agendaview/internal/metrics"
	"github.com/wesm/agendaview/internal/source"
)

// ErrNoSource is returned by Refresh when no source is configured.
var ErrNoSource = errors.New("no data source configured")

// Snapshot is one normalized batch. Events must not be mutated
// once published.
type Snapshot struct {
	ID        string        `json:"id"`
	FetchedAt time.Time     `json:"fetched_at"`
	Source    string        `json:"source"`
	Events    []event.Event `json:"-"`
	Stats     event.Stats   `json:"stats"`
}

// Empty reports whether no refresh has completed yet.
func (s Snapshot) Empty() bool {
	return s.ID == ""
}

// Status summarizes the engine state for the API.
type Status struct {
	Loading     bool        `json:"loading"`
	SnapshotID  string      `json:"snapshot_id,omitempty"`
	Source      string      `json:"source,omitempty"`
	LastRefresh time.Time   `json:"last_refresh,omitzero"`
	LastAttempt time.Time   `json:"last_attempt,omitzero"`
	LastError   string      `json:"last_error,omitempty"`
	Stats       event.Stats `json:"stats"`
}

// Engine runs refreshes. Concurrent refreshes are not serialized:
// whichever finishes last replaces the snapshot.
type Engine struct {
	loc      *time.Location
	metrics  *metrics.Metrics
	now      func() time.Time
	inflight atomic.Int32

	mu          gosync.RWMutex
	src         source.Source
	current     Snapshot
	lastAttempt time.Time
	lastErr     error
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics records refresh outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine reading from src. Derived event
// fields are computed in loc; a nil loc means UTC.
func NewEngine(
	src source.Source, loc *time.Location, opts ...Option,
) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	e := &Engine{src: src, loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetSource swaps the source used by subsequent refreshes. A
// refresh already in flight keeps the source it started with.
func (e *Engine) SetSource(src source.Source) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.src = src
}

// Source returns the configured source, or nil.
func (e *Engine) Source() source.Source {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.src
}

// Location returns the display location.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Loading reports whether a refresh is in flight.
func (e *Engine) Loading() bool {
	return e.inflight.Load() > 0
}

// Snapshot returns the current snapshot.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}

// Status returns the engine state.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	st := Status{
		Loading:     e.Loading(),
		SnapshotID:  e.current.ID,
		Source:      e.current.Source,
		LastRefresh: e.current.FetchedAt,
		LastAttempt: e.lastAttempt,
		Stats:       e.current.Stats,
	}
	if e.lastErr != nil {
		st.LastError = e.lastErr.Error()
	}
	return st
}

// Refresh fetches and normalizes one batch. On failure the
// previous snapshot stays current and the error is recorded.
func (e *Engine) Refresh(
	ctx context.Context, onProgress ProgressFunc,
) (Snapshot, error) {
	src := e.Source()
	if src == nil {
		return Snapshot{}, ErrNoSource
	}
	if onProgress == nil {
		onProgress = func(Progress) {}
	}

	if n := e.inflight.Add(1); n > 1 {
		log.Printf("refresh: %d refreshes in flight, last to finish wins", n)
	}
	defer e.inflight.Add(-1)

	start := e.now()
	e.mu.Lock()
	e.lastAttempt = start
	e.mu.Unlock()

	progress := Progress{Phase: PhaseFetching, Source: src.Name()}
	onProgress(progress)

	rows, err := src.Fetch(ctx)
	if err != nil {
		err = fmt.Errorf("fetching %s: %w", src.Name(), err)
		e.fail(err)
		e.metrics.Refresh(src.Name(), e.now().Sub(start), err)
		return Snapshot{}, err
	}

	progress.Phase = PhaseNormalizing
	progress.Rows = len(rows)
	onProgress(progress)

	events, stats := event.NormalizeWithStats(rows, e.loc)
	snap := Snapshot{
		ID:        uuid.NewString(),
		FetchedAt: e.now(),
		Source:    src.Name(),
		Events:    events,
		Stats:     stats,
	}

	e.mu.Lock()
	e.current = snap
	e.lastErr = nil
	e.mu.Unlock()

	e.metrics.Refresh(src.Name(), e.now().Sub(start), nil)
	e.metrics.SnapshotRows(stats.Kept, stats.Dropped)

	progress.Phase = PhaseDone
	progress.Kept = stats.Kept
	progress.Dropped = stats.Dropped
	onProgress(progress)

	log.Printf("refresh: %s: %d rows, %d kept, %d dropped",
		src.Name(), stats.Rows, stats.Kept, stats.Dropped)
	return snap, nil
}

func (e *Engine) fail(err error) {
	log.Printf("refresh: %v", err)
	e.mu.Lock()
	e.lastErr = err
	e.mu.Unlock()
}
