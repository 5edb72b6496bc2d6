package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"moduledeps/internal/core/config"
	"moduledeps/internal/core/ports"
	"moduledeps/internal/core/watcher"
	"moduledeps/internal/engine/filter"
	"moduledeps/internal/engine/rules"
	"moduledeps/internal/ui/report"
)

type analyzeOptions struct {
	facts          string
	class          string
	module         string
	root           string
	team           string
	onlyTeam       bool
	autoActionable bool
	applyActions   bool
	kinds          []string
	format         string
	color          bool
	ui             bool
	watch          bool
	metricsAddr    string
}

func newAnalyzeCommand(a *app) *cobra.Command {
	var opts analyzeOptions
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Check module layering and report class move readiness",
		Long: `Analyze builds the class and module graph, runs every layering check and
the move eligibility simulation, and prints the findings sorted by severity.

Examples:
  moduledeps analyze
  moduledeps analyze --facts facts.yaml --class io.harness.delegate
  moduledeps analyze --module //400-rest:module --apply-actions
  moduledeps analyze --team CDP --only-team --kind AutoAction,DevAction
  moduledeps analyze --facts facts.yaml --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, a, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.facts, "facts", "", "Read facts from a YAML snapshot instead of querying bazel")
	f.StringVar(&opts.class, "class", "", "Only findings for classes matching this substring or glob, plus what blocks them")
	f.StringVar(&opts.module, "module", "", "Only findings involving this module, plus what blocks them")
	f.StringVar(&opts.root, "root", "", "Only findings for modules under this build root")
	f.StringVar(&opts.team, "team", "", "Only findings owned by this team (and unowned ones unless --only-team)")
	f.BoolVar(&opts.onlyTeam, "only-team", false, "Drop findings with no team owner when --team is set")
	f.BoolVar(&opts.autoActionable, "auto-actionable", false, "Only findings that carry a move action")
	f.BoolVar(&opts.applyActions, "apply-actions", false, "Print the move-class command under each actionable finding")
	f.StringSliceVar(&opts.kinds, "kind", nil, "Only these severities (Critical, Error, AutoAction, DevAction, Blocked, ToDo)")
	f.StringVar(&opts.format, "format", "", "Output format: "+strings.Join(report.Formats(), ", "))
	f.BoolVar(&opts.color, "color", false, "Color the severity prefix of text output")
	f.BoolVar(&opts.ui, "ui", false, "Browse findings in a terminal UI")
	f.BoolVar(&opts.watch, "watch", false, "Re-run the analysis when facts or sources change")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address while watching")
	return cmd
}

// settings merges flags over the configuration. Flags win when set.
func (opts analyzeOptions) settings(cmd *cobra.Command, cfg *config.Config) (filter.Options, report.Options, error) {
	changed := cmd.Flags().Changed
	pick := func(flag, flagValue, cfgValue string) string {
		if changed(flag) {
			return flagValue
		}
		return cfgValue
	}
	pickBool := func(flag string, flagValue, cfgValue bool) bool {
		if changed(flag) {
			return flagValue
		}
		return cfgValue
	}

	kindNames := cfg.Filters.Kinds
	if changed("kind") {
		kindNames = opts.kinds
	}
	kinds := make([]rules.Kind, 0, len(kindNames))
	for _, name := range kindNames {
		k, err := rules.ParseKind(name)
		if err != nil {
			return filter.Options{}, report.Options{}, err
		}
		kinds = append(kinds, k)
	}

	fo := filter.Options{
		Class:          pick("class", opts.class, cfg.Filters.Class),
		Module:         pick("module", opts.module, cfg.Filters.Module),
		Root:           pick("root", opts.root, cfg.Filters.Root),
		Team:           strings.ToUpper(strings.TrimSpace(pick("team", opts.team, cfg.Filters.Team))),
		OnlyTeam:       pickBool("only-team", opts.onlyTeam, cfg.Filters.OnlyTeam),
		AutoActionable: pickBool("auto-actionable", opts.autoActionable, cfg.Filters.AutoActionable),
		Kinds:          kinds,
	}
	ro := report.Options{
		ApplyActions: pickBool("apply-actions", opts.applyActions, cfg.Output.ApplyActions),
		Color:        pickBool("color", opts.color, cfg.Output.Color),
		Format:       strings.ToLower(pick("format", opts.format, cfg.Output.Format)),
	}
	return fo, ro, nil
}

func runAnalyze(cmd *cobra.Command, a *app, opts analyzeOptions) error {
	if opts.metricsAddr == "" {
		opts.metricsAddr = a.cfg.Observability.MetricsAddr
	}
	factsPath := a.factsPath(opts.facts)
	svc, err := a.service(factsPath)
	if err != nil {
		return err
	}

	// Settings and the service are rebuilt when the config file changes
	// while watching.
	var mu sync.Mutex
	analyzeOnce := func(ctx context.Context) (ports.AnalyzeResult, report.Options, error) {
		mu.Lock()
		cfg, current := a.cfg, svc
		mu.Unlock()
		fo, ro, err := opts.settings(cmd, cfg)
		if err != nil {
			return ports.AnalyzeResult{}, ro, err
		}
		res, err := current.Analyze(ctx, ports.AnalyzeRequest{Filter: fo})
		return res, ro, err
	}

	ctx := cmd.Context()
	res, ro, err := analyzeOnce(ctx)
	if err != nil {
		return err
	}
	if !opts.ui {
		if err := report.Render(cmd.OutOrStdout(), res.Reports, ro); err != nil {
			return err
		}
	}
	slog.Info("analysis complete", "modules", res.Modules, "classes", res.Classes, "findings", res.Total, "shown", len(res.Reports))

	if !opts.watch {
		if opts.ui {
			return runBrowser(ctx, res, ro.ApplyActions, nil)
		}
		return nil
	}

	health := newHealthTracker()
	health.record(res, nil)
	if opts.metricsAddr != "" {
		srv := NewObservabilityServer(opts.metricsAddr, health)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(stopCtx)
		}()
	}

	updates := make(chan browserUpdate, 1)
	refresh := func(changed []string) {
		if a.cfgPath != "" && containsPath(changed, a.cfgPath) {
			cfg, next, err := a.reloadConfig(factsPath)
			if err != nil {
				slog.Error("failed to reload configuration", "path", a.cfgPath, "error", err)
			} else {
				mu.Lock()
				a.cfg, svc = cfg, next
				mu.Unlock()
				slog.Info("configuration reloaded", "path", a.cfgPath)
			}
		}

		res, ro, err := analyzeOnce(ctx)
		health.record(res, err)
		if err != nil {
			slog.Error("analysis failed", "error", err)
			if opts.ui {
				sendLatest(updates, browserUpdate{err: err})
			}
			return
		}
		slog.Info("analysis refreshed", "changed", len(changed), "findings", res.Total, "shown", len(res.Reports))
		if opts.ui {
			sendLatest(updates, browserUpdate{result: res})
			return
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out)
		if err := report.Render(out, res.Reports, ro); err != nil {
			slog.Error("failed to render report", "error", err)
		}
	}

	w, err := startWatcher(a, factsPath, refresh)
	if err != nil {
		return err
	}
	defer w.Close()

	if opts.ui {
		return runBrowser(ctx, res, ro.ApplyActions, updates)
	}
	slog.Info("watching for changes", "facts", factsPath, "config", a.cfgPath)
	<-ctx.Done()
	return nil
}

// startWatcher watches the snapshot and config file, or the workspace
// sources when facts come from bazel.
func startWatcher(a *app, factsPath string, onChange func([]string)) (*watcher.Watcher, error) {
	cfg := a.cfg
	w, err := watcher.NewWatcher(cfg.Watch.Debounce, cfg.Watch.ExcludeDirs, nil, onChange)
	if err != nil {
		return nil, err
	}
	if factsPath != "" {
		err = w.WatchFiles([]string{factsPath, a.cfgPath})
	} else {
		if a.cfgPath != "" {
			w.SetFilters([]string{".java"}, []string{"BUILD", "BUILD.bazel", filepath.Base(a.cfgPath)})
		}
		err = w.Watch([]string{a.root})
	}
	if err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

func containsPath(paths []string, target string) bool {
	want, err := filepath.Abs(target)
	if err != nil {
		return false
	}
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil && abs == want {
			return true
		}
	}
	return false
}

// sendLatest replaces any undelivered update with u.
func sendLatest(ch chan browserUpdate, u browserUpdate) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- u:
	default:
	}
}

// writeLines prints one line per value.
func writeLines(w io.Writer, values []string) error {
	for _, v := range values {
		if _, err := fmt.Fprintln(w, v); err != nil {
			return err
		}
	}
	return nil
}
