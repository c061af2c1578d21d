package cli

import (
	"github.com/spf13/cobra"

	"github.com/bch9248/benchctl/internal/actions"
	"github.com/bch9248/benchctl/internal/runtime"
)

// newProbeCmd creates the probe command
func newProbeCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Test the Azure OpenAI credentials with one real request",
		Long: `Send a single chat completion through the configured deployment to
verify the credentials file before launching a long batch run. Rate limit
responses are retried with exponential backoff. When a GitHub token is
configured it is verified with a cheap authenticated call too.

With --verbose the request is traced with the API key redacted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}

			return actions.ProbeAction(ctx, actions.ProbeOptions{
				Verbose: verbose,
			})
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Trace the request and response")

	return cmd
}
