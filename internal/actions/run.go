package actions

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/bch9248/benchctl/internal/agent"
	"github.com/bch9248/benchctl/internal/bench"
	"github.com/bch9248/benchctl/internal/config"
	"github.com/bch9248/benchctl/internal/envfile"
	bencherrors "github.com/bch9248/benchctl/internal/errors"
	"github.com/bch9248/benchctl/internal/history"
	"github.com/bch9248/benchctl/internal/keys"
	"github.com/bch9248/benchctl/internal/runtime"
)

// DefaultAgentConfig is the agent's stock batch configuration, relative to
// the checkout.
const DefaultAgentConfig = "config/default.yaml"

// RunOptions contains options for the run command. Pointer booleans
// distinguish flags the operator set from flags left at their default.
type RunOptions struct {
	ManifestPath string
	AgentConfig  string
	Name         string
	Workers      int
	OutputDir    string
	Type         string
	Subset       string
	Split        string
	Slice        string
	Shuffle      *bool
	Evaluate     *bool
	DryRun       bool
	WriteConfig  string
}

// RunAction composes the batch command from workspace defaults, an optional
// manifest and flags, then launches it with the credentials injected and the
// invocation recorded in the ledger
func RunAction(ctx *runtime.Context, opts RunOptions) error {
	console := ctx.Console
	root := ctx.WorkspaceRoot

	batch, err := composeBatch(root, opts)
	if err != nil {
		return err
	}
	if err := batch.Validate(); err != nil {
		return err
	}

	if opts.WriteConfig != "" {
		if err := bench.Write(opts.WriteConfig, bench.FromOptions(batch)); err != nil {
			return err
		}
		console.Info("Merged run manifest written to %s", opts.WriteConfig)
	}

	envPath, err := config.GetEnvFile(root)
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

	if opts.DryRun {
		console.Info("Would run: %s", batch.CommandLine())
		console.Info("With environment: %s", strings.Join(batch.EnvKeys(), ", "))
		return nil
	}

	if err := os.MkdirAll(batch.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	store, err := history.Open(root)
	if err != nil {
		return err
	}
	defer store.Close()

	run := history.NewRun(append([]string{batch.Bin}, batch.Args()...), batch.Workers, batch.OutputDir)
	run.Subset = batch.Subset
	run.Split = batch.Split
	run.Slice = batch.Slice
	run.Shuffle = batch.Shuffle
	run.Evaluate = batch.Evaluate
	if err := store.Insert(run); err != nil {
		return err
	}

	console.Info("Launching: %s", batch.CommandLine())
	console.Info("Run %s, outputs in %s", history.ShortID(run.ID), batch.OutputDir)
	console.Tip("Follow progress with 'benchctl watch %s' in another terminal.", history.ShortID(run.ID))
	console.Newline()

	if err := store.MarkRunning(run.ID); err != nil {
		return err
	}

	code, runErr := ctx.Runner.Stream(ctx.Context, batch.Env(creds), os.Stdout, os.Stderr, batch.Bin, batch.Args()...)
	if err := store.Finish(run.ID, code); err != nil {
		console.Warn("could not record the run result: %v", err)
	}

	if runErr != nil {
		if errors.Is(runErr, exec.ErrNotFound) {
			console.Error("agent CLI %q not found on PATH", batch.Bin)
			console.Tip("pip places user installs in ~/.local/bin. Add it to PATH:")
			console.Tip("  export PATH=\"$HOME/.local/bin:$PATH\"")
			return fmt.Errorf("%w: %s", bencherrors.ErrAgentNotFound, batch.Bin)
		}
		console.Newline()
		console.Error("Run %s failed with exit code %d", history.ShortID(run.ID), code)
		return bencherrors.NewExitCodeError(code, nil)
	}

	console.Newline()
	console.Info("✅ Run %s finished. Inspect it with 'benchctl runs show %s'.", history.ShortID(run.ID), history.ShortID(run.ID))
	return nil
}

// composeBatch merges workspace defaults, the manifest and the flags, in that
// order, into a ready-to-validate invocation.
func composeBatch(root string, opts RunOptions) (*agent.BatchOptions, error) {
	batch := &agent.BatchOptions{}

	var err error
	if batch.Bin, err = config.GetAgentBin(root); err != nil {
		return nil, err
	}
	if batch.Workers, err = config.GetWorkers(root); err != nil {
		return nil, err
	}
	if batch.Subset, err = config.GetSubset(root); err != nil {
		return nil, err
	}
	if batch.Split, err = config.GetSplit(root); err != nil {
		return nil, err
	}

	if opts.ManifestPath != "" {
		manifest, err := bench.Load(opts.ManifestPath)
		if err != nil {
			return nil, err
		}
		manifest.ApplyTo(batch)
	}

	if opts.AgentConfig != "" {
		batch.ConfigPath = opts.AgentConfig
	}
	if opts.Workers > 0 {
		batch.Workers = opts.Workers
	}
	if opts.OutputDir != "" {
		batch.OutputDir = opts.OutputDir
	}
	if opts.Type != "" {
		batch.Type = opts.Type
	}
	if opts.Subset != "" {
		batch.Subset = opts.Subset
	}
	if opts.Split != "" {
		batch.Split = opts.Split
	}
	if opts.Slice != "" {
		batch.Slice = opts.Slice
	}
	if opts.Shuffle != nil {
		batch.Shuffle = *opts.Shuffle
	}
	if opts.Evaluate != nil {
		batch.Evaluate = *opts.Evaluate
	}

	if batch.ConfigPath == "" {
		agentDir, err := config.GetAgentDir(root)
		if err != nil {
			return nil, err
		}
		batch.ConfigPath = filepath.Join(agentDir, DefaultAgentConfig)
	}

	if batch.OutputDir == "" {
		base, err := config.GetOutputDir(root)
		if err != nil {
			return nil, err
		}
		name := opts.Name
		if name == "" {
			name = "run-" + time.Now().Format("20060102-150405")
		}
		batch.OutputDir = filepath.Join(base, name)
	} else if opts.Name != "" {
		return nil, fmt.Errorf("--name conflicts with an explicitly set output directory")
	}

	return batch, nil
}
