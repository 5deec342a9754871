package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/google/shlex"

	"github.com/wesm/agendaview/internal/aggregate"
	"github.com/wesm/agendaview/internal/config"
	"github.com/wesm/agendaview/internal/export"
	"github.com/wesm/agendaview/internal/filter"
	"github.com/wesm/agendaview/internal/refresh"
	"github.com/wesm/agendaview/internal/source"
	"github.com/wesm/agendaview/internal/window"
)

// QueryConfig holds parsed CLI options for report and export.
type QueryConfig struct {
	From     string
	To       string
	Type     string
	Rules    []string
	Mode     string
	Business string
	Output   string
	Yes      bool
}

// parseQueryFlags parses the report/export flag set. Source
// flags are registered too so fs can be handed to config.Load.
func parseQueryFlags(
	name string, args []string,
) (QueryConfig, *flag.FlagSet, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	config.RegisterSourceFlags(fs)
	from := fs.String("from", "", "Start date, YYYY-MM-DD (inclusive)")
	to := fs.String("to", "", "End date, YYYY-MM-DD (inclusive)")
	typ := fs.String("type", "all", "Category: all, IA or Humano")
	rules := fs.String(
		"rules", "",
		`Shell-quoted rule list, e.g. '1,2,3/8-18 "6/20-8"'`,
	)
	business := fs.String(
		"business", "all",
		"Business hours filter: all, inside or outside",
	)
	output := fs.String("o", export.Filename, "Export file")
	yes := fs.Bool("yes", false, "Overwrite without confirmation")

	if err := fs.Parse(args); err != nil {
		return QueryConfig{}, nil, err
	}

	ruleList, err := shlex.Split(*rules)
	if err != nil {
		return QueryConfig{}, nil, fmt.Errorf("parsing -rules: %w", err)
	}
	if len(ruleList) == 0 {
		ruleList = nil
	}

	var mode string
	if f := fs.Lookup("mode"); f != nil {
		mode = f.Value.String()
	}

	return QueryConfig{
		From:     *from,
		To:       *to,
		Type:     *typ,
		Rules:    ruleList,
		Mode:     mode,
		Business: *business,
		Output:   *output,
		Yes:      *yes,
	}, fs, nil
}

// filters turns the CLI options into pipeline filters. Like the
// HTTP layer, malformed values mean "no constraint".
func (q QueryConfig) filters(
	cfg config.Config,
) (filter.Global, filter.TimeConstraint) {
	g := filter.ParseGlobal(q.From, q.To, q.Type, cfg.Location())
	if filter.ParseKind(q.Mode, cfg.TimeMode) == filter.KindBusinessHours {
		return g, filter.BusinessHours(
			filter.ParseBusinessFilter(q.Business), cfg.BusinessHours,
		)
	}
	return g, filter.Rules(window.ParseRules(q.Rules))
}

// Runner executes one-shot fetch workflows.
type Runner struct {
	Cfg config.Config
	Src source.Source
	Out io.Writer
	In  io.Reader
}

func (r *Runner) fetch(ctx context.Context) (refresh.Snapshot, error) {
	engine := refresh.NewEngine(r.Src, r.Cfg.Location())
	return engine.Refresh(ctx, nil)
}

// Report fetches once and prints the recomputed dashboard.
func (r *Runner) Report(ctx context.Context, q QueryConfig) error {
	snap, err := r.fetch(ctx)
	if err != nil {
		return err
	}
	g, tc := q.filters(r.Cfg)
	bundle := aggregate.Recompute(snap.Events, g, tc)

	enc := json.NewEncoder(r.Out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(bundle); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// Export fetches once and writes the filtered events as CSV.
func (r *Runner) Export(ctx context.Context, q QueryConfig) error {
	snap, err := r.fetch(ctx)
	if err != nil {
		return err
	}
	g, tc := q.filters(r.Cfg)
	events := filter.Apply(snap.Events, g, tc)
	if len(events) == 0 {
		fmt.Fprintln(r.Out, "No events match the given filters.")
		return nil
	}

	if _, err := os.Stat(q.Output); err == nil && !q.Yes {
		msg := fmt.Sprintf("%s exists. Overwrite?", q.Output)
		if !confirm(r.In, r.Out, msg) {
			fmt.Fprintln(r.Out, "Aborted.")
			return nil
		}
	}

	f, err := os.Create(q.Output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", q.Output, err)
	}
	n, err := export.WriteCSV(f, events, r.Cfg.Location())
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", q.Output, err)
	}
	fmt.Fprintf(r.Out, "Exported %d events to %s\n", n, q.Output)
	return nil
}

func confirm(r io.Reader, w io.Writer, msg string) bool {
	fmt.Fprintf(w, "%s [y/N] ", msg)
	scanner := bufio.NewScanner(r)
	scanner.Scan()
	ans := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return ans == "y" || ans == "yes"
}

// mustRunner parses flags, loads config and builds the source.
func mustRunner(name string, args []string) (*Runner, QueryConfig) {
	q, fs, err := parseQueryFlags(name, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if !source.Ready(cfg.SourceSettings()) {
		fmt.Fprintf(os.Stderr,
			"error: source %q is missing required settings\n",
			cfg.SourceKind)
		os.Exit(1)
	}
	return &Runner{
		Cfg: cfg,
		Src: mustBuildSource(cfg),
		Out: os.Stdout,
		In:  os.Stdin,
	}, q
}

func runReport(args []string) {
	r, q := mustRunner("report", args)
	if err := r.Report(context.Background(), q); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runExport(args []string) {
	r, q := mustRunner("export", args)
	if err := r.Export(context.Background(), q); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
