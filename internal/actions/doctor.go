package actions

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/bch9248/benchctl/internal/agent"
	"github.com/bch9248/benchctl/internal/config"
	"github.com/bch9248/benchctl/internal/engine"
	"github.com/bch9248/benchctl/internal/envfile"
	bencherrors "github.com/bch9248/benchctl/internal/errors"
	"github.com/bch9248/benchctl/internal/history"
	"github.com/bch9248/benchctl/internal/keys"
	"github.com/bch9248/benchctl/internal/runtime"
	"github.com/bch9248/benchctl/internal/tui"
)

// DoctorOptions contains options for the doctor command
type DoctorOptions struct {
	Fix bool
}

var pythonVersionPattern = regexp.MustCompile(`Python (\d+)\.(\d+)`)

// DoctorAction checks the host environment, the workspace, and the agent
// checkout, and reports anything that would keep a batch run from working
func DoctorAction(ctx *runtime.Context, opts DoctorOptions) error {
	console := ctx.Console

	if opts.Fix {
		console.Info("Running benchctl doctor with --fix...")
	} else {
		console.Info("Running benchctl doctor...")
	}
	console.Newline()

	var warnings []string
	var errs []string

	console.Info("Environment:")
	warnings, errs = checkEnvironment(ctx, warnings, errs)

	console.Newline()
	console.Info("Workspace:")
	warnings, errs = checkWorkspace(ctx, warnings, errs, opts.Fix)

	console.Newline()
	console.Info("Agent:")
	warnings, errs = checkAgentCheckout(ctx, warnings, errs)

	console.Newline()
	if len(errs) > 0 {
		console.Error("Doctor found %d error(s) and %d warning(s).", len(errs), len(warnings))
		for _, e := range errs {
			console.Info("  ❌ %s", e)
		}
		for _, w := range warnings {
			console.Info("  ⚠️  %s", w)
		}
		return fmt.Errorf("doctor found %d error(s)", len(errs))
	}
	if len(warnings) > 0 {
		if opts.Fix {
			console.Info("Doctor found %d warning(s), some of which may have been fixed.", len(warnings))
		} else {
			console.Info("Doctor found %d warning(s). Your benchctl setup is mostly healthy.", len(warnings))
		}
		for _, w := range warnings {
			console.Info("  ⚠️  %s", w)
		}
		return nil
	}
	console.Info("✅ All checks passed. Your benchctl setup is healthy.")
	return nil
}

// checkEnvironment verifies the host tools the batch runner depends on
func checkEnvironment(ctx *runtime.Context, warnings, errs []string) ([]string, []string) {
	console := ctx.Console

	if version, err := ctx.Runner.Run(ctx.Context, "python3", "--version"); err != nil {
		errs = append(errs, "python3 not found")
		console.Error("python3 not found on PATH")
		console.Tip("The agent harness is a Python tool. Install Python 3.11 or newer.")
	} else if pythonTooOld(version) {
		warnings = append(warnings, fmt.Sprintf("%s is older than 3.11", version))
		console.Warn("%s is older than 3.11. The agent harness may refuse to install.", version)
	} else {
		console.Info("  ✅ %s", version)
	}

	cliPath, err := engine.CheckCLI(ctx.Runner)
	if err != nil {
		errs = append(errs, fmt.Sprintf("%s CLI not found", engine.DefaultCLI))
		console.Error("%s CLI not found on PATH", engine.DefaultCLI)
		console.Tip("Install Docker, or add the directory holding the docker binary to PATH and open a new shell.")
	} else {
		console.Info("  ✅ %s CLI at %s", engine.DefaultCLI, cliPath)
		warnings, errs = checkEngineDaemon(ctx, warnings, errs)
	}

	if _, err := ctx.Runner.LookPath("gh"); err != nil {
		warnings = append(warnings, "gh CLI not found")
		console.Warn("gh CLI not found on PATH. Release lookups will use unauthenticated requests.")
	} else {
		console.Info("  ✅ gh CLI available")
	}

	return warnings, errs
}

// checkEngineDaemon probes the container socket and daemon. Permission
// failures get the documented remediation commands
func checkEngineDaemon(ctx *runtime.Context, warnings, errs []string) ([]string, []string) {
	console := ctx.Console
	socketPath := engine.Socket()

	if err := engine.CheckSocket(socketPath); err != nil {
		var permErr *bencherrors.SocketPermissionError
		switch {
		case errors.As(err, &permErr):
			errs = append(errs, fmt.Sprintf("no permission on %s", socketPath))
			console.Error("cannot access %s: permission denied", socketPath)
			for _, remedy := range engine.SocketRemediation(socketPath) {
				console.Tip("%s", remedy)
			}
		case errors.Is(err, bencherrors.ErrEngineUnreachable):
			errs = append(errs, fmt.Sprintf("no container daemon at %s", socketPath))
			console.Error("no container daemon listening at %s", socketPath)
			console.Tip("Start the Docker daemon and run 'benchctl doctor' again.")
		default:
			errs = append(errs, fmt.Sprintf("socket check failed: %v", err))
			console.Error("socket check failed: %v", err)
		}
		return warnings, errs
	}

	version, err := engine.ServerVersion(ctx.Context, ctx.Runner)
	if err != nil {
		warnings = append(warnings, "daemon version query failed")
		console.Warn("daemon reachable but the version query failed: %v", engine.Classify(err))
	} else {
		console.Info("  ✅ container daemon reachable (server %s)", version)
	}

	return warnings, errs
}

// checkWorkspace verifies the workspace config, the credentials file, the
// output directory, and the run ledger
func checkWorkspace(ctx *runtime.Context, warnings, errs []string, fix bool) ([]string, []string) {
	console := ctx.Console
	root := ctx.WorkspaceRoot

	if !config.IsInitialized(root) {
		errs = append(errs, "workspace not initialized")
		console.Error("workspace not initialized")
		console.Tip("Run 'benchctl init' to create %s and the credentials file.", config.ConfigFileName)
		return warnings, errs
	}
	console.Info("  ✅ workspace config present")

	envPath, err := config.GetEnvFile(root)
	if err != nil {
		errs = append(errs, fmt.Sprintf("workspace config unreadable: %v", err))
		console.Error("workspace config unreadable: %v", err)
		return warnings, errs
	}

	doc, err := envfile.Load(envPath)
	switch {
	case errors.Is(err, bencherrors.ErrEnvFileMissing):
		errs = append(errs, fmt.Sprintf("credentials file %s missing", envPath))
		console.Error("credentials file %s does not exist", envPath)
		console.Tip("Run 'benchctl init' to create it.")
	case err != nil:
		errs = append(errs, fmt.Sprintf("credentials file unreadable: %v", err))
		console.Error("cannot read %s: %v", envPath, err)
	default:
		console.Info("  ✅ credentials file %s", envPath)
		for _, warning := range doc.Warnings() {
			warnings = append(warnings, fmt.Sprintf("%s:%d: %s", envPath, warning.Line, warning.Message))
			console.Warn("%s:%d: %s", envPath, warning.Line, warning.Message)
		}
		warnings = checkEnvFileMode(console, envPath, warnings, fix)
		if missing := keys.Missing(doc); len(missing) > 0 {
			for _, name := range missing {
				errs = append(errs, fmt.Sprintf("%s not set", name))
				console.Error("required key %s is not set", name)
			}
			console.Tip("Run 'benchctl init' to fill in the missing keys.")
		} else {
			console.Info("  ✅ all required keys set")
		}
	}

	warnings = checkOutputDir(console, root, warnings, fix)
	warnings = checkLedger(console, root, warnings, fix)

	return warnings, errs
}

func checkEnvFileMode(console *tui.Console, envPath string, warnings []string, fix bool) []string {
	info, err := os.Stat(envPath)
	if err != nil {
		return warnings
	}

	if info.Mode().Perm()&0077 == 0 {
		console.Info("  ✅ credentials file is private to the owner")
		return warnings
	}

	if fix {
		if err := os.Chmod(envPath, envfile.FileMode); err != nil {
			warnings = append(warnings, fmt.Sprintf("chmod %s failed", envPath))
			console.Warn("could not tighten permissions on %s: %v", envPath, err)
		} else {
			console.Info("  ✅ tightened %s to 0600", envPath)
		}
		return warnings
	}

	warnings = append(warnings, fmt.Sprintf("%s readable by others", envPath))
	console.Warn("%s is readable by other users. Run 'benchctl doctor --fix' to tighten it.", envPath)
	return warnings
}

func checkOutputDir(console *tui.Console, root string, warnings []string, fix bool) []string {
	outputDir, err := config.GetOutputDir(root)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("output dir unresolved: %v", err))
		console.Warn("could not resolve the output directory: %v", err)
		return warnings
	}

	if _, err := os.Stat(outputDir); err == nil {
		console.Info("  ✅ output directory %s", outputDir)
		return warnings
	}

	if fix {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			warnings = append(warnings, fmt.Sprintf("mkdir %s failed", outputDir))
			console.Warn("could not create %s: %v", outputDir, err)
		} else {
			console.Info("  ✅ created output directory %s", outputDir)
		}
		return warnings
	}

	warnings = append(warnings, fmt.Sprintf("output directory %s missing", outputDir))
	console.Warn("output directory %s does not exist. Run 'benchctl doctor --fix' to create it.", outputDir)
	return warnings
}

func checkLedger(console *tui.Console, root string, warnings []string, fix bool) []string {
	store, err := history.Open(root)
	if err != nil {
		warnings = append(warnings, "run ledger unreadable")
		console.Warn("could not open the run ledger: %v", err)
		return warnings
	}
	defer store.Close()

	if fix {
		pruned, err := store.Prune()
		if err != nil {
			warnings = append(warnings, "ledger prune failed")
			console.Warn("could not prune the run ledger: %v", err)
		} else if pruned > 0 {
			console.Info("  ✅ pruned %d run(s) whose outputs are gone", pruned)
		} else {
			console.Info("  ✅ run ledger matches the outputs on disk")
		}
		return warnings
	}

	runs, err := store.List(0)
	if err != nil {
		warnings = append(warnings, "run ledger unreadable")
		console.Warn("could not read the run ledger: %v", err)
		return warnings
	}

	stale := 0
	for _, run := range runs {
		if _, err := os.Stat(run.OutputDir); err != nil {
			stale++
		}
	}
	if stale > 0 {
		warnings = append(warnings, fmt.Sprintf("%d stale ledger entries", stale))
		console.Warn("%d ledger entries point at deleted outputs. Run 'benchctl doctor --fix' to prune them.", stale)
	} else {
		console.Info("  ✅ run ledger matches the outputs on disk")
	}
	return warnings
}

// checkAgentCheckout verifies the agent clone and its CLI entry point
func checkAgentCheckout(ctx *runtime.Context, warnings, errs []string) ([]string, []string) {
	console := ctx.Console
	root := ctx.WorkspaceRoot

	agentDir, err := config.GetAgentDir(root)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("agent dir unresolved: %v", err))
		console.Warn("could not resolve the agent directory: %v", err)
		return warnings, errs
	}

	status, err := agent.Status(agentDir)
	switch {
	case errors.Is(err, bencherrors.ErrCheckoutMissing):
		warnings = append(warnings, fmt.Sprintf("agent checkout %s missing", agentDir))
		console.Warn("agent checkout %s does not exist. Run 'benchctl setup' to clone it.", agentDir)
	case err != nil:
		errs = append(errs, fmt.Sprintf("agent checkout unreadable: %v", err))
		console.Error("cannot inspect the agent checkout: %v", err)
	default:
		if status.Branch != "" {
			console.Info("  ✅ agent checkout at %s (%s @ %s)", status.Path, status.Branch, status.Ref)
		} else {
			console.Info("  ✅ agent checkout at %s (%s)", status.Path, status.Ref)
		}
		if status.Dirty {
			warnings = append(warnings, "agent checkout dirty")
			console.Warn("agent checkout has uncommitted changes")
		}
		if installed, err := agent.InstalledVersion(agentDir); err == nil {
			warnings = checkAgentRelease(ctx, installed, warnings)
		}
	}

	agentBin, err := config.GetAgentBin(root)
	if err != nil {
		return warnings, errs
	}
	if _, err := ctx.Runner.LookPath(agentBin); err != nil {
		warnings = append(warnings, fmt.Sprintf("%s not on PATH", agentBin))
		if userBin, onPath := userBinDir(); userBin != "" && !onPath {
			console.Warn("agent CLI %q not found, and %s is not on PATH.", agentBin, userBin)
			console.Tip("pip places user installs there. Add it to PATH:")
			console.Tip("  export PATH=\"$HOME/.local/bin:$PATH\"")
		} else {
			console.Warn("agent CLI %q not found on PATH. 'benchctl setup' installs it with pip.", agentBin)
		}
	} else {
		console.Info("  ✅ agent CLI %q available", agentBin)
	}

	return warnings, errs
}

// checkAgentRelease compares the checkout against the newest published
// release. Lookup failures stay warnings so doctor works offline.
func checkAgentRelease(ctx *runtime.Context, installed string, warnings []string) []string {
	console := ctx.Console

	repo, err := config.GetAgentRepo(ctx.WorkspaceRoot)
	if err != nil {
		return warnings
	}

	token := resolveGitHubToken(ctx)
	client := agent.NewGitHubClient(ctx.Context, token)
	release, err := agent.LatestRelease(ctx.Context, client, repo)
	if err != nil {
		warnings = append(warnings, "release check failed")
		console.Warn("could not look up the latest release of %s: %v", repo, err)
		return warnings
	}

	if installed == release.Tag {
		console.Info("  ✅ agent checkout matches the latest release %s", release.Tag)
		return warnings
	}

	warnings = append(warnings, fmt.Sprintf("agent at %s, latest release is %s", installed, release.Tag))
	console.Warn("agent checkout is at %s but the latest release is %s. Run 'benchctl setup' to update.", installed, release.Tag)
	return warnings
}

// pythonTooOld reports whether a "Python X.Y.Z" version line is below the
// 3.11 floor the agent harness requires. Unparseable output passes.
func pythonTooOld(version string) bool {
	m := pythonVersionPattern.FindStringSubmatch(version)
	if m == nil {
		return false
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	if major != 3 {
		return major < 3
	}
	return minor < 11
}

// userBinDir returns pip's user install directory and whether PATH already
// contains it. An empty dir means the home directory could not be resolved.
func userBinDir() (string, bool) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	userBin := filepath.Join(home, ".local", "bin")
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == userBin {
			return userBin, true
		}
	}
	return userBin, false
}
