package actions

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bch9248/benchctl/internal/artifacts"
	"github.com/bch9248/benchctl/internal/history"
	"github.com/bch9248/benchctl/internal/runtime"
	"github.com/bch9248/benchctl/internal/tui"
)

// RunsListOptions contains options for the runs list command
type RunsListOptions struct {
	Limit int
}

// RunsListAction prints the ledger, newest first
func RunsListAction(ctx *runtime.Context, opts RunsListOptions) error {
	console := ctx.Console

	store, err := history.Open(ctx.WorkspaceRoot)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(opts.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		console.Info("No runs recorded yet. Launch one with 'benchctl run'.")
		return nil
	}

	lines := make([]string, 0, len(runs))
	for _, run := range runs {
		lines = append(lines, formatRunLine(run))
	}
	console.Page(strings.Join(lines, "\n"))
	console.Newline()

	return nil
}

// formatRunLine renders one ledger row. The state is padded before styling
// so ANSI codes do not break the columns.
func formatRunLine(run *history.Run) string {
	state := tui.ColorRunState(fmt.Sprintf("%-9s", run.State))
	selection := run.Subset + "/" + run.Split
	if run.Slice != "" {
		selection += "/" + run.Slice
	}
	return fmt.Sprintf("%s  %s  %s  %dw  %-16s  %s",
		history.ShortID(run.ID),
		state,
		run.CreatedAt.Local().Format("2006-01-02 15:04"),
		run.Workers,
		selection,
		run.OutputDir,
	)
}

// RunsShowOptions contains options for the runs show command
type RunsShowOptions struct {
	RunID string
}

// RunsShowAction prints one ledger entry in full, plus a summary of whatever
// the run has written to its output directory so far
func RunsShowAction(ctx *runtime.Context, opts RunsShowOptions) error {
	console := ctx.Console

	store, err := history.Open(ctx.WorkspaceRoot)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Get(opts.RunID)
	if err != nil {
		return err
	}

	console.Info("Run %s (%s)", run.ID, tui.ColorRunState(string(run.State)))
	console.Info("  created:  %s", run.CreatedAt.Local().Format(time.RFC1123))
	if run.FinishedAt != nil {
		console.Info("  finished: %s (%s)", run.FinishedAt.Local().Format(time.RFC1123), run.FinishedAt.Sub(run.CreatedAt).Round(time.Second))
	} else if run.State == history.StateRunning {
		console.Info("  running:  %s so far", time.Since(run.CreatedAt).Round(time.Second))
	}
	if run.ExitCode != nil {
		console.Info("  exit:     %d", *run.ExitCode)
	}
	console.Info("  command:  %s", strings.Join(run.Argv, " "))
	console.Info("  workers:  %d", run.Workers)
	console.Info("  select:   subset=%s split=%s slice=%s shuffle=%t evaluate=%t", run.Subset, run.Split, run.Slice, run.Shuffle, run.Evaluate)
	console.Info("  outputs:  %s", run.OutputDir)

	summary, err := artifacts.Scan(run.OutputDir)
	if err != nil {
		return err
	}
	console.Newline()
	printArtifactSummary(console, summary)

	return nil
}

func printArtifactSummary(console *tui.Console, summary *artifacts.Summary) {
	if !summary.Exists {
		console.Info("No artifacts yet: %s does not exist.", summary.Dir)
		return
	}

	console.Info("Artifacts:")
	console.Info("  trajectories: %d", summary.TrajectoryCount())
	if last := summary.LatestUpdate(); !last.IsZero() {
		console.Info("  last update:  %s ago", time.Since(last).Round(time.Second))
	}
	if summary.HasPredictions {
		console.Info("  predictions:  %d", summary.Predictions)
	}
	if summary.Results == nil {
		return
	}

	console.Info("  results:      %s", summary.Results.Path)
	groups := make([]string, 0, len(summary.Results.Counts))
	for key := range summary.Results.Counts {
		groups = append(groups, key)
	}
	sort.Strings(groups)
	for _, key := range groups {
		console.Info("    %s: %d", key, summary.Results.Counts[key])
	}
	if len(summary.Results.Resolved) > 0 {
		console.Info("  resolved instances:")
		for _, id := range summary.Results.Resolved {
			console.Info("    %s %s", tui.IconOK(), id)
		}
	}
}
