package history_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bch9248/benchctl/internal/history"
	"github.com/bch9248/benchctl/testhelpers"
)

func TestStoreLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("records a run through pending running and finished", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)

		store, err := history.Open(scene.Dir)
		require.NoError(t, err)
		defer store.Close()

		run := history.NewRun([]string{"sweagent", "run-batch", "--config", "cfg.yaml"}, 4, scene.OutputDir())
		run.Subset = "lite"
		run.Split = "dev"
		run.Shuffle = true
		require.NoError(t, store.Insert(run))

		got, err := store.Get(run.ID)
		require.NoError(t, err)
		require.Equal(t, history.StatePending, got.State)
		require.Equal(t, []string{"sweagent", "run-batch", "--config", "cfg.yaml"}, got.Argv)
		require.Equal(t, 4, got.Workers)
		require.Equal(t, "lite", got.Subset)
		require.Equal(t, "dev", got.Split)
		require.True(t, got.Shuffle)
		require.False(t, got.Evaluate)
		require.Nil(t, got.ExitCode)
		require.Nil(t, got.FinishedAt)

		require.NoError(t, store.MarkRunning(run.ID))
		got, err = store.Get(run.ID)
		require.NoError(t, err)
		require.Equal(t, history.StateRunning, got.State)

		require.NoError(t, store.Finish(run.ID, 0))
		got, err = store.Get(run.ID)
		require.NoError(t, err)
		require.Equal(t, history.StateSucceeded, got.State)
		require.NotNil(t, got.ExitCode)
		require.Equal(t, 0, *got.ExitCode)
		require.NotNil(t, got.FinishedAt)
		require.False(t, got.FinishedAt.Before(got.CreatedAt))
	})

	t.Run("nonzero exit code marks the run failed", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)

		store, err := history.Open(scene.Dir)
		require.NoError(t, err)
		defer store.Close()

		run := history.NewRun([]string{"sweagent", "run-batch"}, 1, scene.OutputDir())
		require.NoError(t, store.Insert(run))
		require.NoError(t, store.Finish(run.ID, 137))

		got, err := store.Get(run.ID)
		require.NoError(t, err)
		require.Equal(t, history.StateFailed, got.State)
		require.Equal(t, 137, *got.ExitCode)
	})

	t.Run("updating an unknown run fails", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)

		store, err := history.Open(scene.Dir)
		require.NoError(t, err)
		defer store.Close()

		err = store.MarkRunning("no-such-run")
		require.ErrorContains(t, err, "not found")

		err = store.Finish("no-such-run", 0)
		require.ErrorContains(t, err, "not found")
	})

	t.Run("reopening the ledger preserves recorded runs", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)

		store, err := history.Open(scene.Dir)
		require.NoError(t, err)

		run := history.NewRun([]string{"sweagent", "run-batch"}, 2, scene.OutputDir())
		require.NoError(t, store.Insert(run))
		require.NoError(t, store.Close())

		reopened, err := history.Open(scene.Dir)
		require.NoError(t, err)
		defer reopened.Close()

		got, err := reopened.Get(run.ID)
		require.NoError(t, err)
		require.Equal(t, run.ID, got.ID)
	})
}

func TestGet(t *testing.T) {
	t.Parallel()

	t.Run("accepts a unique ID prefix", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)

		store, err := history.Open(scene.Dir)
		require.NoError(t, err)
		defer store.Close()

		run := history.NewRun([]string{"sweagent", "run-batch"}, 1, scene.OutputDir())
		require.NoError(t, store.Insert(run))

		got, err := store.Get(run.ID[:8])
		require.NoError(t, err)
		require.Equal(t, run.ID, got.ID)
	})

	t.Run("rejects an unknown ID", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)

		store, err := history.Open(scene.Dir)
		require.NoError(t, err)
		defer store.Close()

		_, err = store.Get("deadbeef")
		require.ErrorContains(t, err, "not found")
	})
}

func TestList(t *testing.T) {
	t.Parallel()

	t.Run("returns runs newest first", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)

		store, err := history.Open(scene.Dir)
		require.NoError(t, err)
		defer store.Close()

		older := history.NewRun([]string{"sweagent", "run-batch"}, 1, scene.OutputDir())
		older.CreatedAt = time.Now().UTC().Add(-time.Hour)
		require.NoError(t, store.Insert(older))

		newer := history.NewRun([]string{"sweagent", "run-batch"}, 2, scene.OutputDir())
		require.NoError(t, store.Insert(newer))

		runs, err := store.List(0)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		require.Equal(t, newer.ID, runs[0].ID)
		require.Equal(t, older.ID, runs[1].ID)
	})

	t.Run("honors the limit", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)

		store, err := history.Open(scene.Dir)
		require.NoError(t, err)
		defer store.Close()

		for i := 0; i < 5; i++ {
			run := history.NewRun([]string{"sweagent", "run-batch"}, 1, scene.OutputDir())
			run.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second)
			require.NoError(t, store.Insert(run))
		}

		runs, err := store.List(3)
		require.NoError(t, err)
		require.Len(t, runs, 3)
	})

	t.Run("empty ledger lists nothing", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)

		store, err := history.Open(scene.Dir)
		require.NoError(t, err)
		defer store.Close()

		runs, err := store.List(0)
		require.NoError(t, err)
		require.Empty(t, runs)
	})
}

func TestPrune(t *testing.T) {
	t.Parallel()

	t.Run("removes runs whose output directory is gone", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)

		store, err := history.Open(scene.Dir)
		require.NoError(t, err)
		defer store.Close()

		keptDir := filepath.Join(scene.OutputDir(), "kept-run")
		require.NoError(t, os.MkdirAll(keptDir, 0755))
		goneDir := filepath.Join(scene.OutputDir(), "gone-run")

		kept := history.NewRun([]string{"sweagent", "run-batch"}, 1, keptDir)
		require.NoError(t, store.Insert(kept))
		gone := history.NewRun([]string{"sweagent", "run-batch"}, 1, goneDir)
		require.NoError(t, store.Insert(gone))

		pruned, err := store.Prune()
		require.NoError(t, err)
		require.Equal(t, 1, pruned)

		runs, err := store.List(0)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		require.Equal(t, kept.ID, runs[0].ID)
	})
}

func TestShortID(t *testing.T) {
	t.Parallel()

	require.Equal(t, "0199a2b4", history.ShortID("0199a2b4-7c31-7890-abcd-ef0123456789"))
	require.Equal(t, "short", history.ShortID("short"))
}
