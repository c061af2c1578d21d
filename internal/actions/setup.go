package actions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bch9248/benchctl/internal/agent"
	"github.com/bch9248/benchctl/internal/config"
	"github.com/bch9248/benchctl/internal/envfile"
	bencherrors "github.com/bch9248/benchctl/internal/errors"
	"github.com/bch9248/benchctl/internal/keys"
	"github.com/bch9248/benchctl/internal/runtime"
	"github.com/bch9248/benchctl/internal/tui"
)

// Editable installs pull the agent's full dependency tree; the captured-run
// default timeout is far too short for that.
const pipInstallTimeout = 30 * time.Minute

// SetupOptions contains options for the setup command
type SetupOptions struct {
	Ref         string
	Dir         string
	SkipInstall bool
}

// SetupAction clones or updates the agent checkout and installs its CLI with
// an editable pip install
func SetupAction(ctx *runtime.Context, opts SetupOptions) error {
	console := ctx.Console
	root := ctx.WorkspaceRoot

	repo, err := config.GetAgentRepo(root)
	if err != nil {
		return err
	}

	agentDir := opts.Dir
	if agentDir == "" {
		agentDir, err = config.GetAgentDir(root)
		if err != nil {
			return err
		}
	}

	token := resolveGitHubToken(ctx)
	ref := resolveSetupRef(ctx, repo, token, opts.Ref)

	status, err := agent.Status(agentDir)
	switch {
	case errors.Is(err, bencherrors.ErrCheckoutMissing):
		console.Info("Cloning %s into %s...", repo, agentDir)
		if err := agent.Clone(ctx.Context, agentDir, repo, ref, token, progressWriter(console)); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		switch {
		case status.Dirty:
			console.Warn("agent checkout at %s has uncommitted changes, skipping the update", agentDir)
		case status.Branch == "":
			// A detached checkout only moves via an explicit ref.
		default:
			console.Info("Updating agent checkout at %s...", agentDir)
			if err := agent.Update(ctx.Context, agentDir, token, progressWriter(console)); err != nil {
				return err
			}
		}
		if ref != "" {
			console.Info("Checking out %s...", ref)
			if err := agent.CheckoutRef(agentDir, ref); err != nil {
				return err
			}
		}
	}

	version, err := agent.InstalledVersion(agentDir)
	if err != nil {
		return err
	}
	console.Info("Agent checkout ready at %s (%s)", agentDir, version)

	if opts.SkipInstall {
		console.Info("Skipping the editable install.")
		return nil
	}

	console.Info("Installing the agent CLI with pip (editable)...")
	pipCtx, cancel := context.WithTimeout(ctx.Context, pipInstallTimeout)
	defer cancel()
	if _, err := ctx.Runner.RunInDir(pipCtx, agentDir, "python3", "-m", "pip", "install", "-e", "."); err != nil {
		return fmt.Errorf("pip install failed: %w", err)
	}

	agentBin, err := config.GetAgentBin(root)
	if err != nil {
		return err
	}
	if _, err := ctx.Runner.LookPath(agentBin); err != nil {
		console.Warn("%q was installed but is not on PATH", agentBin)
		console.Tip("pip places user installs in ~/.local/bin. Add it to PATH and open a new shell:")
		console.Tip("  export PATH=\"$HOME/.local/bin:$PATH\"")
	} else {
		console.Info("✅ Agent CLI %q is ready. Try 'benchctl run --dry-run'.", agentBin)
	}

	return nil
}

// resolveSetupRef decides which revision setup should land on. An explicit
// ref wins; otherwise the latest published release, falling back to the
// default branch when the release lookup fails.
func resolveSetupRef(ctx *runtime.Context, repo, token, requested string) string {
	console := ctx.Console
	client := agent.NewGitHubClient(ctx.Context, token)

	if requested != "" {
		// A requested ref that is not a release tag may still be a branch
		// or SHA, so lookup failures are not fatal.
		if release, err := agent.ReleaseByTag(ctx.Context, client, repo, requested); err == nil {
			console.Info("Release %s: %s (published %s)", release.Tag, release.Name, release.PublishedAt.Format("2006-01-02"))
		}
		return requested
	}

	release, err := agent.LatestRelease(ctx.Context, client, repo)
	if err != nil {
		console.Warn("could not resolve the latest release of %s: %v", repo, err)
		console.Info("Using the default branch instead.")
		return ""
	}
	console.Info("Latest release of %s: %s (published %s)", repo, release.Tag, release.PublishedAt.Format("2006-01-02"))
	return release.Tag
}

// resolveGitHubToken finds a token for GitHub API calls and clone auth
// without failing; setup works unauthenticated at a lower rate limit.
func resolveGitHubToken(ctx *runtime.Context) string {
	fileToken := ""
	if envPath, err := config.GetEnvFile(ctx.WorkspaceRoot); err == nil {
		if doc, err := envfile.Load(envPath); err == nil {
			fileToken, _ = doc.Get(keys.GithubToken.Name)
		}
	}
	return agent.ResolveToken(ctx.Context, ctx.Runner, fileToken)
}

// progressWriter routes clone and pull progress to stderr unless quiet.
func progressWriter(console *tui.Console) io.Writer {
	if console.IsQuiet() {
		return io.Discard
	}
	return os.Stderr
}
