package cli

import (
	"github.com/spf13/cobra"

	"github.com/bch9248/benchctl/internal/actions"
	"github.com/bch9248/benchctl/internal/runtime"
)

// newSetupCmd creates the setup command
func newSetupCmd() *cobra.Command {
	var (
		ref         string
		dir         string
		skipInstall bool
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Clone or update the agent tool and install its CLI",
		Long: `Clone the agent repository into the workspace (or fast-forward an
existing checkout), switch to a release tag, and install the agent CLI
with an editable pip install.

Without --ref the latest published GitHub release is used; the default
branch is the fallback when no release can be resolved.

Examples:
  benchctl setup
  benchctl setup --ref v1.1.0
  benchctl setup --skip-install`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}

			return actions.SetupAction(ctx, actions.SetupOptions{
				Ref:         ref,
				Dir:         dir,
				SkipInstall: skipInstall,
			})
		},
	}

	cmd.Flags().StringVar(&ref, "ref", "", "Tag, branch or SHA to check out (default: latest release)")
	cmd.Flags().StringVar(&dir, "dir", "", "Checkout directory (default: from the workspace config)")
	cmd.Flags().BoolVar(&skipInstall, "skip-install", false, "Skip the editable pip install")

	return cmd
}
