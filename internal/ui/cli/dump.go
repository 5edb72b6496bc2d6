package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"moduledeps/internal/data/facts"
)

func newDumpFactsCommand(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "dump-facts",
		Short: "Query the workspace and write the facts snapshot as YAML",
		Long: `Dump-facts runs the bazel and jdeps ingestion and writes the result as a
YAML snapshot, which "analyze --facts" reads without a build tool.

Examples:
  moduledeps dump-facts --output facts.yaml
  moduledeps dump-facts > facts.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service("")
			if err != nil {
				return err
			}
			snap, err := svc.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return facts.Encode(cmd.OutOrStdout(), snap)
			}
			path := a.factsPath(output)
			if err := facts.Save(path, snap); err != nil {
				return err
			}
			slog.Info("facts written", "path", path, "modules", len(snap.Modules))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the snapshot here instead of stdout")
	return cmd
}
