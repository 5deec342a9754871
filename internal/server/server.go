package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	gosync "sync"
	"time"

	"github.com/wesm/agendaview/internal/config"
	"github.com/wesm/agendaview/internal/metrics"
	"github.com/wesm/agendaview/internal/refresh"
)

// VersionInfo holds build-time version metadata.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// Server is the HTTP server that serves the dashboard API.
type Server struct {
	mu      gosync.RWMutex
	cfg     config.Config
	engine  *refresh.Engine
	poller  *refresh.Poller
	metrics *metrics.Metrics
	mux     *http.ServeMux
	httpSrv *http.Server
	version VersionInfo

	// handlerDelay is injected before each timeout-wrapped
	// handler, used only by tests to guarantee handlers
	// exceed a short timeout. Zero in production.
	handlerDelay time.Duration
}

// New creates a new Server.
func New(
	cfg config.Config, engine *refresh.Engine, opts ...Option,
) *Server {
	s := &Server{
		cfg:    cfg,
		engine: engine,
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the build-time version metadata.
func WithVersion(v VersionInfo) Option {
	return func(s *Server) { s.version = v }
}

// WithMetrics instruments routes and serves /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithPoller lets source updates start or stop periodic
// refreshes.
func WithPoller(p *refresh.Poller) Option {
	return func(s *Server) { s.poller = p }
}

func (s *Server) routes() {
	s.handle("GET /api/v1/dashboard", s.withTimeout(s.handleDashboard))
	s.handle("GET /api/v1/analytics/summary", s.withTimeout(s.handleAnalyticsSummary))
	s.handle("GET /api/v1/analytics/daily", s.withTimeout(s.handleAnalyticsDaily))
	s.handle("GET /api/v1/analytics/hourly", s.withTimeout(s.handleAnalyticsHourly))
	s.handle("GET /api/v1/analytics/weekly", s.withTimeout(s.handleAnalyticsWeekly))
	s.handle("GET /api/v1/events", s.withTimeout(s.handleListEvents))
	// Export: Do not use timeout handler to avoid buffering large downloads.
	s.handle("GET /api/v1/export", http.HandlerFunc(s.handleExport))
	// SSE: Do not use timeout, progress streams until the fetch ends.
	s.handle("POST /api/v1/refresh", http.HandlerFunc(s.handleTriggerRefresh))
	s.handle("GET /api/v1/refresh/status", s.withTimeout(s.handleRefreshStatus))
	s.handle("GET /api/v1/version", s.withTimeout(s.handleGetVersion))
	s.handle("GET /api/v1/config/source", s.withTimeout(s.handleGetSourceConfig))
	s.handle("POST /api/v1/config/source", s.withTimeout(s.handleSetSourceConfig))

	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

// handle registers h under pattern, instrumented with the
// pattern as its route label.
func (s *Server) handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, s.metrics.WrapHandler(pattern, h))
}

func (s *Server) handleGetVersion(
	w http.ResponseWriter, _ *http.Request,
) {
	writeJSON(w, http.StatusOK, s.version)
}

// config returns the current configuration (thread-safe).
func (s *Server) config() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// SetPort updates the listen port (for testing).
func (s *Server) SetPort(port int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Port = port
}

// Handler returns the http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return corsMiddleware(logMiddleware(s.mux))
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	cfg := s.config()
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	s.mu.Lock()
	s.httpSrv = srv
	s.mu.Unlock()
	log.Printf("Starting server at http://%s", addr)
	return srv.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.httpSrv
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// FindAvailablePort finds an available port starting from the
// given port, binding to the specified host.
func FindAvailablePort(host string, start int) int {
	for port := start; port < start+100; port++ {
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			ln.Close()
			return port
		}
	}
	return start
}

// URL returns the base URL the server listens on.
func (s *Server) URL() string {
	cfg := s.config()
	return fmt.Sprintf("http://%s",
		net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)))
}
