package cli

import (
	"github.com/spf13/cobra"

	"github.com/bch9248/benchctl/internal/actions"
	"github.com/bch9248/benchctl/internal/runtime"
)

// newRunsCmd creates the runs command
func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the ledger of launched runs",
	}

	cmd.AddCommand(newRunsListCmd())
	cmd.AddCommand(newRunsShowCmd())

	return cmd
}

// newRunsListCmd creates the runs list command
func newRunsListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}

			return actions.RunsListAction(ctx, actions.RunsListOptions{
				Limit: limit,
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Show at most this many runs (0 for all)")

	return cmd
}

// newRunsShowCmd creates the runs show command
func newRunsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <runID>",
		Short: "Show one run and its artifacts",
		Long: `Show a ledger entry in full. Run IDs may be abbreviated to any
unique prefix, like git SHAs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}

			return actions.RunsShowAction(ctx, actions.RunsShowOptions{
				RunID: args[0],
			})
		},
	}

	return cmd
}
