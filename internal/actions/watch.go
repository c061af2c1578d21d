package actions

import (
	"fmt"

	"github.com/bch9248/benchctl/internal/artifacts"
	"github.com/bch9248/benchctl/internal/history"
	"github.com/bch9248/benchctl/internal/runtime"
	"github.com/bch9248/benchctl/internal/tui"
)

// WatchOptions contains options for the watch command
type WatchOptions struct {
	RunID string
	Dir   string
}

// WatchAction follows an output directory live: a full-screen dashboard on a
// TTY, plain changed-line output otherwise
func WatchAction(ctx *runtime.Context, opts WatchOptions) error {
	console := ctx.Console

	dir, err := resolveWatchDir(ctx, opts)
	if err != nil {
		return err
	}

	watcher, err := artifacts.NewWatcher(dir)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx.Context); err != nil {
		return err
	}
	defer watcher.Stop()

	if tui.IsTTY() {
		console.SetQuiet(true)
		defer console.SetQuiet(false)
		return tui.RunWatchTUI(ctx.Context, dir, watcher.Updates())
	}

	console.Info("Watching %s (not a TTY, printing changes)...", dir)
	return tui.RunWatchSimple(ctx.Context, dir, watcher.Updates(), console)
}

// resolveWatchDir picks the directory to follow: an explicit --dir, then the
// output directory of the named run, then the most recent run in the ledger.
func resolveWatchDir(ctx *runtime.Context, opts WatchOptions) (string, error) {
	if opts.Dir != "" {
		return opts.Dir, nil
	}

	store, err := history.Open(ctx.WorkspaceRoot)
	if err != nil {
		return "", err
	}
	defer store.Close()

	if opts.RunID != "" {
		run, err := store.Get(opts.RunID)
		if err != nil {
			return "", err
		}
		return run.OutputDir, nil
	}

	runs, err := store.List(1)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("no runs in the ledger yet; pass a run ID or --dir")
	}
	return runs[0].OutputDir, nil
}
