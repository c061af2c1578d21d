package cli

import (
	"github.com/spf13/cobra"

	"github.com/bch9248/benchctl/internal/actions"
	"github.com/bch9248/benchctl/internal/runtime"
)

// newInitCmd creates the init command
func newInitCmd() *cobra.Command {
	var (
		azureKey        string
		azureEndpoint   string
		azureDeployment string
		githubToken     string
		envFile         string
		noInteractive   bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the benchctl workspace and credentials file",
		Long: `Create or update the benchctl workspace in the current directory.

Init writes two files: the credentials env file the agent tool reads
(default .env, mode 0600) and the workspace settings file .benchctl.json.
Keys can be provided with flags for scripted use, or interactively;
re-running init updates only the values you provide.

Examples:
  benchctl init
  benchctl init --azure-key sk-... --azure-endpoint https://res.openai.azure.com --azure-deployment gpt-4o
  benchctl init --no-interactive --github-token $GITHUB_TOKEN`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := runtime.NewContext(cmd.Context())

			return actions.InitAction(ctx, actions.InitOptions{
				AzureKey:        azureKey,
				AzureEndpoint:   azureEndpoint,
				AzureDeployment: azureDeployment,
				GithubToken:     githubToken,
				EnvFile:         envFile,
				NoInteractive:   noInteractive,
			})
		},
	}

	cmd.Flags().StringVar(&azureKey, "azure-key", "", "Azure OpenAI API key")
	cmd.Flags().StringVar(&azureEndpoint, "azure-endpoint", "", "Azure OpenAI endpoint URL")
	cmd.Flags().StringVar(&azureDeployment, "azure-deployment", "", "Azure OpenAI deployment name")
	cmd.Flags().StringVar(&githubToken, "github-token", "", "GitHub token for the agent tool")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Write credentials to this file instead of the default")
	cmd.Flags().BoolVar(&noInteractive, "no-interactive", false, "Disable interactive prompts")

	return cmd
}
