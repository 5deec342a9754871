package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshCounters(t *testing.T) {
	m := New()
	m.Refresh("csv", 10*time.Millisecond, nil)
	m.Refresh("csv", 10*time.Millisecond, errors.New("boom"))
	m.Refresh("csv", 10*time.Millisecond, nil)

	assert.Equal(t, 2.0,
		testutil.ToFloat64(m.refreshes.WithLabelValues("csv", "ok")))
	assert.Equal(t, 1.0,
		testutil.ToFloat64(m.refreshes.WithLabelValues("csv", "error")))

	m.SnapshotRows(10, 3)
	assert.Equal(t, 3.0,
		testutil.ToFloat64(m.rows.WithLabelValues("dropped")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.Refresh("x", time.Second, nil)
	m.SnapshotRows(1, 1)

	h := m.WrapHandler("r", http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		},
	))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestWrapHandlerAndExposition(t *testing.T) {
	m := New()
	h := m.WrapHandler("dashboard", http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		},
	))
	h.ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.httpRequests.WithLabelValues("dashboard", "404")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(),
		"agendaview_http_requests_total"))
}

func TestRecorderFlush(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec, status: http.StatusOK}
	var w http.ResponseWriter = sr
	f, ok := w.(http.Flusher)
	require.True(t, ok)
	f.Flush()
	assert.True(t, rec.Flushed)
}
