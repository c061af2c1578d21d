package cli

import (
	"github.com/spf13/cobra"

	"github.com/bch9248/benchctl/internal/actions"
	"github.com/bch9248/benchctl/internal/runtime"
)

// newWatchCmd creates the watch command
func newWatchCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "watch [runID]",
		Short: "Follow a run's output directory live",
		Long: `Watch the artifacts of a batch run as the external tool writes them:
trajectory counts, predictions, results and the latest trajectory lines.

On a terminal this is a full-screen dashboard (q to quit); otherwise each
change is printed as a plain line. Without arguments the most recent run
in the ledger is watched.

Examples:
  benchctl watch
  benchctl watch 7c1b2a9e
  benchctl watch --dir outputs/nightly`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}

			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}

			return actions.WatchAction(ctx, actions.WatchOptions{
				RunID: runID,
				Dir:   dir,
			})
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Watch this directory instead of a ledger run")

	return cmd
}
