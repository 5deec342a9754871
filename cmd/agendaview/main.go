package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/wesm/agendaview/internal/config"
	"github.com/wesm/agendaview/internal/metrics"
	"github.com/wesm/agendaview/internal/refresh"
	"github.com/wesm/agendaview/internal/server"
	"github.com/wesm/agendaview/internal/source"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

const (
	watcherDebounce = 500 * time.Millisecond
	shutdownTimeout = 5 * time.Second
	maxLogSize      = 10 << 20
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "report":
			runReport(os.Args[2:])
			return
		case "export":
			runExport(os.Args[2:])
			return
		case "serve":
			runServe(os.Args[2:])
			return
		case "version", "--version", "-v":
			fmt.Printf("agendaview %s (commit %s, built %s)\n",
				version, commit, buildDate)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		}
	}

	runServe(os.Args[1:])
}

func printUsage() {
	fmt.Printf(`agendaview %s - AI vs human scheduling dashboard backend

Pulls scheduling rows from Google Sheets or a local export,
classifies them as IA or Humano and serves daily, hourly and
weekly distributions as JSON and CSV.

Usage:
  agendaview [flags]           Start the server (default command)
  agendaview serve [flags]     Start the server (explicit)
  agendaview report [flags]    Fetch once and print the dashboard as JSON
  agendaview export [flags]    Fetch once and write the filtered CSV
  agendaview version           Show version information
  agendaview help              Show this help

Server flags:
  -host string        Host to bind to (default "127.0.0.1")
  -port int           Port to listen on (default 8080)

Source flags (all commands):
  -source string      sheets, csv, json, sqlite or mock
  -path string        File for csv, json and sqlite sources
  -table string       Table for the sqlite source
  -tz string          Display timezone, e.g. America/Sao_Paulo
  -mode string        rules or business_hours

Report and export flags:
  -from, -to string   Date range, YYYY-MM-DD, inclusive
  -type string        all, IA or Humano
  -rules string       Shell-quoted rule list, e.g. '1,2,3/8-18 "6/20-8"'
  -business string    all, inside or outside (business_hours mode)
  -o string           Export file (default agendamentos_export.csv)
  -yes                Overwrite the export file without asking

Environment variables (also read from .env):
  AGENDAVIEW_DATA_DIR         Data directory (config, logs)
  AGENDAVIEW_SOURCE           Source kind
  AGENDAVIEW_SOURCE_PATH      File for local sources
  AGENDAVIEW_SPREADSHEET_ID   Google Sheets spreadsheet ID
  AGENDAVIEW_SHEET_NAME       Sheet tab name (default "entrada")
  AGENDAVIEW_TIMEZONE         Display timezone
  AGENDAVIEW_TIME_MODE        rules or business_hours
  AGENDAVIEW_REFRESH_INTERVAL Polling interval (default 5m)
  GOOGLE_CLIENT_ID            OAuth client ID
  GOOGLE_OAUTH_TOKEN          OAuth access token for Sheets

Data is stored in ~/.agendaview/ by default.
`, version)
}

func runServe(args []string) {
	cfg := mustLoadConfig(args)
	setupLogFile(cfg.DataDir)

	m := metrics.New()
	engine := refresh.NewEngine(
		mustBuildSource(cfg), cfg.Location(), refresh.WithMetrics(m),
	)

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	ready := source.Ready(cfg.SourceSettings())
	if ready {
		runInitialRefresh(ctx, engine)
	} else {
		fmt.Printf("Source %q not configured yet; waiting for settings\n",
			cfg.SourceKind)
	}

	poller := refresh.NewPoller(cfg.RefreshInterval, func() {
		log.Println("Running scheduled refresh...")
		_, _ = engine.Refresh(ctx, nil)
	})
	poller.SetReady(ready)
	defer poller.Stop()

	stopWatcher := startFileWatcher(ctx, engine)
	defer stopWatcher()

	port := server.FindAvailablePort(cfg.Host, cfg.Port)
	if port != cfg.Port {
		fmt.Printf("Port %d in use, using %d\n", cfg.Port, port)
	}
	cfg.Port = port

	srv := server.New(cfg, engine,
		server.WithVersion(server.VersionInfo{
			Version:   version,
			Commit:    commit,
			BuildDate: buildDate,
		}),
		server.WithMetrics(m),
		server.WithPoller(poller),
	)
	fmt.Printf("agendaview %s listening at %s\n", version, srv.URL())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	case <-ctx.Done():
		log.Println("shutting down")
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), shutdownTimeout,
		)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}
}

func mustLoadConfig(args []string) config.Config {
	fs := flag.NewFlagSet("agendaview", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			"Usage: agendaview [serve] [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	config.RegisterServeFlags(fs)
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parsing flags: %v", err)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("creating data dir: %v", err)
	}
	return cfg
}

func mustBuildSource(cfg config.Config) source.Source {
	src, err := source.New(cfg.SourceSettings())
	if err != nil {
		log.Fatalf("building source: %v", err)
	}
	return src
}

// setupLogFile mirrors log output into debug.log in dataDir,
// truncating it first when it has grown past maxLogSize.
func setupLogFile(dataDir string) {
	path := filepath.Join(dataDir, "debug.log")
	truncateLogFile(path, maxLogSize)
	f, err := os.OpenFile(
		path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644,
	)
	if err != nil {
		log.Printf("warning: cannot open log file: %v", err)
		return
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
}

// truncateLogFile empties path when it exceeds limit bytes.
// Symlinks are left alone.
func truncateLogFile(path string, limit int64) {
	info, err := os.Lstat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}
	if info.Size() <= limit {
		return
	}
	if err := os.Truncate(path, 0); err != nil {
		log.Printf("warning: truncating log file: %v", err)
	}
}

func runInitialRefresh(ctx context.Context, engine *refresh.Engine) {
	fmt.Println("Running initial refresh...")
	snap, err := engine.Refresh(ctx, printRefreshProgress)
	if err != nil {
		fmt.Printf("\nRefresh failed: %v\n", err)
		return
	}
	fmt.Printf(
		"\nRefresh complete: %d rows (%d kept, %d dropped)\n",
		snap.Stats.Rows, snap.Stats.Kept, snap.Stats.Dropped,
	)
}

func printRefreshProgress(p refresh.Progress) {
	switch p.Phase {
	case refresh.PhaseFetching:
		fmt.Printf("\r  fetching from %s", p.Source)
	case refresh.PhaseNormalizing:
		fmt.Printf("\r  normalizing %d rows", p.Rows)
	}
}

// startFileWatcher refreshes when the configured local source
// file changes. It is a no-op for remote sources.
func startFileWatcher(
	ctx context.Context, engine *refresh.Engine,
) func() {
	fsrc, ok := engine.Source().(source.FileSource)
	if !ok || fsrc.FilePath() == "" {
		return func() {}
	}
	onChange := func([]string) {
		_, _ = engine.Refresh(ctx, nil)
	}
	watcher, err := refresh.NewWatcher(watcherDebounce, onChange)
	if err != nil {
		log.Printf("warning: file watcher unavailable: %v", err)
		return func() {}
	}
	watcher.Start()
	if err := watcher.WatchFile(fsrc.FilePath()); err != nil {
		log.Printf("warning: %v", err)
		watcher.Stop()
		return func() {}
	}
	return watcher.Stop
}
