package actions

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bch9248/benchctl/internal/history"
	"github.com/bch9248/benchctl/testhelpers"
)

func TestDoctorAction(t *testing.T) {
	t.Parallel()

	t.Run("uninitialized workspace fails", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)
		fake := testhelpers.NewFakeRunner()
		fake.Script("python3 --version", "Python 3.12.1", nil)
		fake.Missing = []string{"docker"}
		ctx := newTestContext(t, scene.Dir, fake)

		err := DoctorAction(ctx, DoctorOptions{})
		require.Error(t, err)
		require.ErrorContains(t, err, "error(s)")
	})

	t.Run("missing required keys are errors", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)
		require.NoError(t, scene.WriteWorkspaceConfig("{}"))
		require.NoError(t, scene.WriteEnvFile("AZURE_OPENAI_KEY=k\nAZURE_OPENAI_ENDPOINT=https://x\n"))
		fake := testhelpers.NewFakeRunner()
		fake.Script("python3 --version", "Python 3.12.1", nil)
		fake.Missing = []string{"docker"}
		ctx := newTestContext(t, scene.Dir, fake)

		err := DoctorAction(ctx, DoctorOptions{})
		require.Error(t, err)
	})

	t.Run("fix tightens loose env file permissions", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)
		require.NoError(t, scene.WriteWorkspaceConfig("{}"))
		require.NoError(t, os.Chmod(scene.EnvPath(), 0644))
		fake := testhelpers.NewFakeRunner()
		fake.Script("python3 --version", "Python 3.12.1", nil)
		fake.Missing = []string{"docker"}
		ctx := newTestContext(t, scene.Dir, fake)

		_ = DoctorAction(ctx, DoctorOptions{Fix: true})

		info, err := os.Stat(scene.EnvPath())
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})

	t.Run("fix recreates a missing output directory", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)
		require.NoError(t, scene.WriteWorkspaceConfig("{}"))
		require.NoError(t, os.RemoveAll(scene.OutputDir()))
		fake := testhelpers.NewFakeRunner()
		fake.Script("python3 --version", "Python 3.12.1", nil)
		fake.Missing = []string{"docker"}
		ctx := newTestContext(t, scene.Dir, fake)

		_ = DoctorAction(ctx, DoctorOptions{Fix: true})

		info, err := os.Stat(scene.OutputDir())
		require.NoError(t, err)
		require.True(t, info.IsDir())
	})

	t.Run("fix prunes ledger entries whose outputs are gone", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)
		require.NoError(t, scene.WriteWorkspaceConfig("{}"))

		store, err := history.Open(scene.Dir)
		require.NoError(t, err)
		run := history.NewRun([]string{"sweagent", "run-batch"}, 2, filepath.Join(scene.OutputDir(), "gone"))
		require.NoError(t, store.Insert(run))
		require.NoError(t, store.Close())

		fake := testhelpers.NewFakeRunner()
		fake.Script("python3 --version", "Python 3.12.1", nil)
		fake.Missing = []string{"docker"}
		ctx := newTestContext(t, scene.Dir, fake)

		_ = DoctorAction(ctx, DoctorOptions{Fix: true})

		store, err = history.Open(scene.Dir)
		require.NoError(t, err)
		defer store.Close()
		runs, err := store.List(0)
		require.NoError(t, err)
		require.Empty(t, runs)
	})
}

// TestDoctorHealthyEnvironment needs a fake docker socket via DOCKER_HOST, so
// it cannot run in parallel.
func TestDoctorHealthyEnvironment(t *testing.T) {
	sockDir, err := os.MkdirTemp("", "benchctl-sock-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(sockDir) })

	sockPath := filepath.Join(sockDir, "docker.sock")
	listener, err := net.Listen("unix", sockPath)
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	t.Setenv("DOCKER_HOST", "unix://"+sockPath)

	scene := testhelpers.NewScene(t, nil)
	require.NoError(t, scene.WriteWorkspaceConfig("{}"))
	fake := testhelpers.NewFakeRunner()
	fake.Script("python3 --version", "Python 3.12.1", nil)
	fake.Script("docker version", "24.0.7", nil)
	ctx := newTestContext(t, scene.Dir, fake)

	// The agent checkout is absent, which is a warning, not an error.
	err = DoctorAction(ctx, DoctorOptions{})
	require.NoError(t, err)
}

func TestPythonTooOld(t *testing.T) {
	t.Parallel()

	cases := []struct {
		version string
		old     bool
	}{
		{"Python 3.12.1", false},
		{"Python 3.11.0", false},
		{"Python 3.10.8", true},
		{"Python 3.8.10", true},
		{"Python 2.7.18", true},
		{"Python 4.0.0", false},
		{"not a version line", false},
	}

	for _, tc := range cases {
		require.Equal(t, tc.old, pythonTooOld(tc.version), "version %q", tc.version)
	}
}

// TestUserBinDir manipulates PATH, so it cannot run in parallel.
func TestUserBinDir(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	localBin := filepath.Join(home, ".local", "bin")

	t.Setenv("PATH", "/usr/bin")
	dir, onPath := userBinDir()
	require.Equal(t, localBin, dir)
	require.False(t, onPath)

	t.Setenv("PATH", "/usr/bin"+string(os.PathListSeparator)+localBin)
	dir, onPath = userBinDir()
	require.Equal(t, localBin, dir)
	require.True(t, onPath)
}
