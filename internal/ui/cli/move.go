package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"moduledeps/internal/engine/mover"
)

// errMovesFailed signals that failures were already reported per action.
var errMovesFailed = errors.New("one or more moves failed")

type moveOptions struct {
	action mover.Action
	batch  string
}

func newMoveCommand(a *app) *cobra.Command {
	var opts moveOptions
	cmd := &cobra.Command{
		Use:   "move-class",
		Short: "Move a class source file to another module",
		Long: `Move-class relocates a source file to the mirrored path of the destination
module, removing its target-module annotation. Action lines printed by
"analyze --apply-actions" can be replayed with --batch.

Examples:
  moduledeps move-class --from-module="//400-rest:module" \
    --from-location=src/main/java/io/harness/Foo.java \
    --to-module="//870-cg-orchestration:module"
  moduledeps analyze --auto-actionable --apply-actions --format tsv | cut -f6 > moves.txt
  moduledeps move-class --batch moves.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMove(cmd, a, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.action.FromModule, "from-module", "", "Module the class currently lives in")
	f.StringVar(&opts.action.FromLocation, "from-location", "", "Source path relative to the module directory")
	f.StringVar(&opts.action.ToModule, "to-module", "", "Destination module")
	f.StringVar(&opts.batch, "batch", "", "File of action lines to apply, or - for stdin")
	cmd.MarkFlagsMutuallyExclusive("batch", "from-module")
	cmd.MarkFlagsMutuallyExclusive("batch", "from-location")
	cmd.MarkFlagsMutuallyExclusive("batch", "to-module")
	return cmd
}

func runMove(cmd *cobra.Command, a *app, opts moveOptions) error {
	var actions []mover.Action
	if opts.batch != "" {
		var r io.Reader = cmd.InOrStdin()
		if opts.batch != "-" {
			f, err := os.Open(opts.batch)
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}
		parsed, err := mover.ParseBatch(r)
		if err != nil {
			return err
		}
		actions = parsed
	} else {
		actions = []mover.Action{opts.action}
	}

	m := mover.New(a.root, nil, a.cfg.Annotations.TargetModule)
	failed := 0
	for _, res := range m.ApplyAll(cmd.Context(), actions) {
		if res.Err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %s: %v\n", res.Action.String(), res.Err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "moved %s -> %s\n", res.Action.FromLocation, res.Dest)
	}
	if failed > 0 {
		return errMovesFailed
	}
	return nil
}
