// Package cli is the moduledeps command line: analyze, move-class,
// dump-facts and trace.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"moduledeps/internal/core/config"
	"moduledeps/internal/data/bazel"
)

const versionString = "1.0.0"

// env holds the process surroundings so commands can be run in tests.
type env struct {
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	getwd    func() (string, error)
	// runner executes bazel and jdeps. Nil means bazel.ExecRunner.
	runner   bazel.Runner
	// findRoot locates the workspace from cwd. Nil walks up from cwd.
	findRoot func(cwd string) (string, error)
}

func (e *env) workspaceRoot(cwd string) (string, error) {
	if e.findRoot != nil {
		return e.findRoot(cwd)
	}
	return config.DetectWorkspaceRoot(cwd)
}

type rootOptions struct {
	configPath string
	workspace  string
	verbose    bool
}

// Run executes the command line and returns the process exit status.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, args, &env{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		getwd:  os.Getwd,
		findRoot: func(string) (string, error) {
			return config.WorkspaceRoot()
		},
	})
}

func run(ctx context.Context, args []string, e *env) int {
	a := &app{env: e}
	defer a.close()

	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetIn(e.stdin)
	root.SetOut(e.stdout)
	root.SetErr(e.stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		if err != errMovesFailed {
			fmt.Fprintf(e.stderr, "error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "moduledeps",
		Short: "Check and plan class moves across layered build modules",
		Long: `moduledeps reads module and class facts from a Bazel workspace (or a
facts snapshot), checks them against the module layering rules, and reports
which classes can be moved to their declared target modules.`,
		Version:       versionString,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetVersionTemplate("moduledeps v{{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.configPath, "config", "", "Path to config file (default: <workspace>/"+configFileName+")")
	flags.StringVar(&a.opts.workspace, "workspace", "", "Workspace root (default: discovered from the working directory)")
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		newAnalyzeCommand(a),
		newMoveCommand(a),
		newDumpFactsCommand(a),
		newTraceCommand(a),
	)
	return root
}
