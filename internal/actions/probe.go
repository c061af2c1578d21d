package actions

import (
	"fmt"

	"github.com/bch9248/benchctl/internal/agent"
	"github.com/bch9248/benchctl/internal/azure"
	"github.com/bch9248/benchctl/internal/config"
	"github.com/bch9248/benchctl/internal/envfile"
	"github.com/bch9248/benchctl/internal/keys"
	"github.com/bch9248/benchctl/internal/runtime"
)

// ProbeOptions contains options for the probe command
type ProbeOptions struct {
	Verbose bool
}

// ProbeAction sends one chat completion through the configured Azure OpenAI
// deployment, proving the credentials file works end to end before a long
// batch run burns through it
func ProbeAction(ctx *runtime.Context, opts ProbeOptions) error {
	console := ctx.Console

	envPath, err := config.GetEnvFile(ctx.WorkspaceRoot)
	if err != nil {
		return err
	}
	doc, err := envfile.LoadStrict(envPath)
	if err != nil {
		return err
	}
	creds, err := keys.Resolve(doc)
	if err != nil {
		return err
	}

	client := azure.NewClient(creds)
	if opts.Verbose {
		client.Debugf = func(format string, args ...any) {
			console.Info(format, args...)
		}
	}

	console.Info("Probing %s (deployment %s)...", creds.AzureEndpoint, creds.AzureDeployment)

	result, err := client.Probe(ctx.Context)
	if err != nil {
		return fmt.Errorf("probe failed: %w", err)
	}

	console.Info("HTTP status: %d (attempt %d)", result.StatusCode, result.Attempts)
	if result.Reply != "" {
		console.Newline()
		console.Info("=== Model response ===")
		console.Info("%s", result.Reply)
		console.Info("=== End ===")
	} else {
		console.Warn("no assistant message found in the response; full response below:")
		console.Page(result.RawBody + "\n")
	}

	if creds.GithubToken != "" {
		ghClient := agent.NewGitHubClient(ctx.Context, creds.GithubToken)
		login, err := agent.VerifyToken(ctx.Context, ghClient)
		if err != nil {
			console.Warn("GitHub token verification failed: %v", err)
		} else {
			console.Info("✅ GitHub token valid (authenticated as %s)", login)
		}
	}

	return nil
}
