package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	coreapp "moduledeps/internal/core/app"
	"moduledeps/internal/core/config"
	"moduledeps/internal/core/ports"
	"moduledeps/internal/data/bazel"
	"moduledeps/internal/data/facts"
	"moduledeps/internal/engine/parser"
	"moduledeps/internal/shared/observability"
)

const configFileName = config.FileName

// app is the state shared by every command of one invocation.
type app struct {
	env  *env
	opts rootOptions

	cwd     string
	root    string
	cfg     *config.Config
	cfgPath string
	runID   string

	closers []func()
}

func (a *app) setup(cmd *cobra.Command) error {
	uiMode := false
	if f := cmd.Flags().Lookup("ui"); f != nil && f.Value.String() == "true" {
		uiMode = true
	}
	a.runID = uuid.NewString()
	a.closers = append(a.closers, configureLogging(a.env.stderr, uiMode, a.opts.verbose, a.runID))

	cwd, err := a.env.getwd()
	if err != nil {
		return fmt.Errorf("detect working directory: %w", err)
	}
	a.cwd = cwd

	var root string
	if a.opts.workspace != "" {
		root = config.ResolveRelative(cwd, a.opts.workspace)
	} else if root, err = a.env.workspaceRoot(cwd); err != nil {
		return fmt.Errorf("detect workspace root: %w", err)
	}

	configPath := a.opts.configPath
	if configPath != "" {
		configPath = config.ResolveRelative(cwd, configPath)
	}
	cfg, cfgPath, err := config.LoadOrDefault(configPath, root)
	if err != nil {
		return err
	}
	if a.opts.workspace == "" && cfg.Paths.Root != "" {
		root = config.ResolveRelative(root, cfg.Paths.Root)
	}
	a.root, a.cfg, a.cfgPath = root, cfg, cfgPath
	slog.Debug("configuration loaded", "workspace", root, "config", cfgPath)

	shutdown, err := observability.SetupTracing(cmd.Context(), cfg.Observability.OTLPEndpoint, cfg.Observability.OTLPInsecure)
	if err != nil {
		return fmt.Errorf("set up tracing: %w", err)
	}
	a.closers = append(a.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	})
	return nil
}

// close writes the metrics textfile and releases resources in reverse
// order of acquisition.
func (a *app) close() {
	if a.cfg != nil {
		if err := observability.WriteTextfile(a.cfg.Observability.MetricsTextfile); err != nil {
			slog.Warn("failed to write metrics textfile", "path", a.cfg.Observability.MetricsTextfile, "error", err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// factsPath returns the snapshot to read, if any. A flag value is relative
// to the working directory, a configured one to the workspace root.
func (a *app) factsPath(flagValue string) string {
	if flagValue != "" {
		return config.ResolveRelative(a.cwd, flagValue)
	}
	if a.cfg.Paths.Facts != "" {
		return config.ResolveRelative(a.root, a.cfg.Paths.Facts)
	}
	return ""
}

// factSource reads the snapshot when one is given, otherwise queries the
// workspace with bazel and jdeps.
func (a *app) factSource(cfg *config.Config, factsPath string) (ports.FactSource, error) {
	if factsPath != "" {
		return facts.File(factsPath), nil
	}
	extractor := parser.NewAnnotationExtractor(parser.AnnotationNames{
		TargetModule:      cfg.Annotations.TargetModule,
		BreakDependencyOn: cfg.Annotations.BreakDependencyOn,
		OwnedBy:           cfg.Annotations.OwnedBy,
	})
	return bazel.NewIngester(bazel.Options{
		Workspace:      a.root,
		Binary:         cfg.Bazel.Binary,
		Jdeps:          cfg.Bazel.Jdeps,
		ModuleQuery:    cfg.Bazel.ModuleQuery,
		SourceRoots:    cfg.Bazel.SourceRoots,
		TestSuffixes:   cfg.Bazel.TestSuffixes,
		DefaultIndex:   cfg.Modules.DefaultIndex,
		IndexOverrides: cfg.Modules.IndexOverrides,
		Deprecated:     cfg.Modules.Deprecated,
		Exclude:        cfg.Modules.Exclude,
		Externals:      cfg.Bazel.Externals,
		Workers:        cfg.Bazel.Workers,
		Rate:           cfg.Bazel.Rate,
		Burst:          cfg.Bazel.Burst,
	}, a.env.runner, extractor)
}

func (a *app) service(factsPath string) (ports.AnalysisService, error) {
	return a.serviceFor(a.cfg, factsPath)
}

func (a *app) serviceFor(cfg *config.Config, factsPath string) (ports.AnalysisService, error) {
	source, err := a.factSource(cfg, factsPath)
	if err != nil {
		return nil, err
	}
	return coreapp.NewAnalysisService(source), nil
}

// reloadConfig re-reads the config file and builds a service from it.
// Callers keep the previous config and service when an error is returned.
func (a *app) reloadConfig(factsPath string) (*config.Config, ports.AnalysisService, error) {
	cfg, _, err := config.LoadOrDefault(a.cfgPath, a.root)
	if err != nil {
		return nil, nil, err
	}
	svc, err := a.serviceFor(cfg, factsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("rebuild analysis: %w", err)
	}
	return cfg, svc, nil
}

// configureLogging installs the default logger. Logs go to w, or to a file
// in UI mode so they do not corrupt the terminal.
func configureLogging(w io.Writer, uiMode, verbose bool, runID string) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	output := w
	closeFn := func() {}
	if uiMode {
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(w, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
			fmt.Fprintf(w, "warning: refusing to write logs to symlink path %s\n", logPath)
		} else if f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600); err == nil {
			output = f
			closeFn = func() { _ = f.Close() }
		} else {
			fmt.Fprintf(w, "warning: failed to open log file %s: %v\n", logPath, err)
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel})).With("run_id", runID)
	slog.SetDefault(logger)
	return closeFn
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "moduledeps", "moduledeps.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "moduledeps", "moduledeps.log")
	}

	return "moduledeps.log"
}
