package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newTraceCommand(a *app) *cobra.Command {
	var factsFlag string
	cmd := &cobra.Command{
		Use:   "trace <from-class> <to-class>",
		Short: "Print the shortest class dependency chain between two classes",
		Long: `Trace explains why one class depends on another, which helps decide
which dependency to break before a move.

Examples:
  moduledeps trace io.harness.Service io.harness.Helper --facts facts.yaml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(a.factsPath(factsFlag))
			if err != nil {
				return err
			}
			chain, err := svc.TraceDependency(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return writeLines(cmd.OutOrStdout(), []string{strings.Join(chain, " -> ")})
		},
	}
	cmd.Flags().StringVar(&factsFlag, "facts", "", "Read facts from a YAML snapshot instead of querying bazel")
	return cmd
}
