package cli

import (
	"github.com/spf13/cobra"

	"github.com/bch9248/benchctl/internal/actions"
	"github.com/bch9248/benchctl/internal/runtime"
)

// newRunCmd creates the run command
func newRunCmd() *cobra.Command {
	var (
		manifestPath string
		agentConfig  string
		name         string
		workers      int
		outputDir    string
		instType     string
		subset       string
		split        string
		slice        string
		shuffle      bool
		evaluate     bool
		dryRun       bool
		writeConfig  string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Launch a benchmark batch run of the agent tool",
		Long: `Compose and launch the external batch command. Settings merge in
order: workspace defaults, then the --config manifest, then flags. The
credentials file is loaded strictly and injected into the child process
environment; the run is recorded in the ledger and the child's exit code
becomes benchctl's.

Examples:
  benchctl run --dry-run
  benchctl run --workers 8 --slice :50 --shuffle
  benchctl run --config run.yaml --name nightly
  benchctl run --subset verified --split test --evaluate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}

			opts := actions.RunOptions{
				ManifestPath: manifestPath,
				AgentConfig:  agentConfig,
				Name:         name,
				Workers:      workers,
				OutputDir:    outputDir,
				Type:         instType,
				Subset:       subset,
				Split:        split,
				Slice:        slice,
				DryRun:       dryRun,
				WriteConfig:  writeConfig,
			}
			// Only forward booleans the operator actually set, so the
			// manifest keeps authority over untouched flags.
			if cmd.Flags().Changed("shuffle") {
				opts.Shuffle = &shuffle
			}
			if cmd.Flags().Changed("evaluate") {
				opts.Evaluate = &evaluate
			}

			return actions.RunAction(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&manifestPath, "config", "", "Run manifest to merge between workspace defaults and flags")
	cmd.Flags().StringVar(&agentConfig, "agent-config", "", "Agent YAML config passed to run-batch (default: config/default.yaml in the checkout)")
	cmd.Flags().StringVar(&name, "name", "", "Run name, used as the output subdirectory (default: run-<timestamp>)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of parallel workers")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Write artifacts here instead of <outputs>/<name>")
	cmd.Flags().StringVar(&instType, "type", "", "Instance source type (forwarded to the agent)")
	cmd.Flags().StringVar(&subset, "subset", "", "Benchmark subset, e.g. lite or verified")
	cmd.Flags().StringVar(&split, "split", "", "Benchmark split, e.g. dev or test")
	cmd.Flags().StringVar(&slice, "slice", "", "Instance slice, Python style: \":50\", \"10:20\", \"100:\"")
	cmd.Flags().BoolVar(&shuffle, "shuffle", false, "Shuffle instances before running")
	cmd.Flags().BoolVar(&evaluate, "evaluate", false, "Evaluate patches after generation (needs the container engine)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the command and environment keys without launching")
	cmd.Flags().StringVar(&writeConfig, "write-config", "", "Write the merged settings as a reusable manifest")

	return cmd
}
