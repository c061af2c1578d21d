package cli

import (
	"github.com/spf13/cobra"

	"github.com/bch9248/benchctl/internal/actions"
	"github.com/bch9248/benchctl/internal/runtime"
)

// newDoctorCmd creates the doctor command
func newDoctorCmd() *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose common issues with your benchctl setup",
		Long: `Run diagnostic checks on the environment, the workspace and the agent.

The doctor command checks:
  - Environment: python3, the container engine CLI and daemon, the gh CLI
  - Workspace: credentials file, required keys, permissions, output directory
  - Agent: checkout state and the agent CLI on PATH

With --fix it creates the missing output directory, tightens the credentials
file to 0600 and prunes ledger entries whose outputs were deleted. Socket
permission and PATH problems get printed remediation commands instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}

			return actions.DoctorAction(ctx, actions.DoctorOptions{
				Fix: fix,
			})
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "Attempt to automatically fix any issues found")

	return cmd
}
