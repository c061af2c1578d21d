package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bch9248/benchctl/testhelpers"
)

func stringPtr(s string) *string { return &s }
func intPtr(i int) *int          { return &i }

func TestGetWorkspaceConfig(t *testing.T) {
	t.Parallel()

	t.Run("returns default config when file does not exist", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)

		config, err := GetWorkspaceConfig(scene.Dir)
		require.NoError(t, err)
		require.Nil(t, config.AgentRepo)
		require.Nil(t, config.Workers)
	})

	t.Run("fails on invalid JSON", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)
		require.NoError(t, scene.WriteWorkspaceConfig("{not json"))

		_, err := GetWorkspaceConfig(scene.Dir)
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to parse workspace config")
	})
}

func TestWriteWorkspaceConfig(t *testing.T) {
	t.Parallel()

	t.Run("round trips all fields", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)

		in := &WorkspaceConfig{
			AgentRepo: stringPtr("example/agent"),
			AgentBin:  stringPtr("agentctl"),
			Workers:   intPtr(8),
		}
		require.NoError(t, WriteWorkspaceConfig(scene.Dir, in))

		out, err := GetWorkspaceConfig(scene.Dir)
		require.NoError(t, err)
		require.Equal(t, "example/agent", *out.AgentRepo)
		require.Equal(t, "agentctl", *out.AgentBin)
		require.Equal(t, 8, *out.Workers)
	})
}

func TestIsInitialized(t *testing.T) {
	t.Parallel()

	t.Run("false before init and true after", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)

		require.False(t, IsInitialized(scene.Dir))
		require.NoError(t, WriteWorkspaceConfig(scene.Dir, &WorkspaceConfig{}))
		require.True(t, IsInitialized(scene.Dir))
	})
}

func TestGetters(t *testing.T) {
	t.Parallel()

	t.Run("return defaults when config is absent", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)

		repo, err := GetAgentRepo(scene.Dir)
		require.NoError(t, err)
		require.Equal(t, DefaultAgentRepo, repo)

		bin, err := GetAgentBin(scene.Dir)
		require.NoError(t, err)
		require.Equal(t, DefaultAgentBin, bin)

		workers, err := GetWorkers(scene.Dir)
		require.NoError(t, err)
		require.Equal(t, DefaultWorkers, workers)

		subset, err := GetSubset(scene.Dir)
		require.NoError(t, err)
		require.Equal(t, DefaultSubset, subset)

		split, err := GetSplit(scene.Dir)
		require.NoError(t, err)
		require.Equal(t, DefaultSplit, split)
	})

	t.Run("resolve relative directories against the workspace root", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)

		agentDir, err := GetAgentDir(scene.Dir)
		require.NoError(t, err)
		require.Equal(t, filepath.Join(scene.Dir, DefaultAgentDir), agentDir)

		outputDir, err := GetOutputDir(scene.Dir)
		require.NoError(t, err)
		require.Equal(t, filepath.Join(scene.Dir, DefaultOutputDir), outputDir)
	})

	t.Run("keep absolute directories as given", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)
		require.NoError(t, scene.WriteWorkspaceConfig(`{"outputDir": "/var/benchctl/out"}`))

		outputDir, err := GetOutputDir(scene.Dir)
		require.NoError(t, err)
		require.Equal(t, "/var/benchctl/out", outputDir)
	})

	t.Run("use configured values when present", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)
		require.NoError(t, scene.WriteWorkspaceConfig(`{"agentBin": "mini", "workers": 12, "subset": "verified"}`))

		bin, err := GetAgentBin(scene.Dir)
		require.NoError(t, err)
		require.Equal(t, "mini", bin)

		workers, err := GetWorkers(scene.Dir)
		require.NoError(t, err)
		require.Equal(t, 12, workers)

		subset, err := GetSubset(scene.Dir)
		require.NoError(t, err)
		require.Equal(t, "verified", subset)
	})
}

func TestGetEnvFile(t *testing.T) {
	t.Run("defaults to .env in the workspace root", func(t *testing.T) {
		t.Setenv("BENCHCTL_ENV_FILE", "")
		scene := testhelpers.NewScene(t, nil)

		path, err := GetEnvFile(scene.Dir)
		require.NoError(t, err)
		require.Equal(t, filepath.Join(scene.Dir, ".env"), path)
	})

	t.Run("respects the workspace config override", func(t *testing.T) {
		t.Setenv("BENCHCTL_ENV_FILE", "")
		scene := testhelpers.NewScene(t, nil)
		require.NoError(t, scene.WriteWorkspaceConfig(`{"envFile": "secrets/creds.env"}`))

		path, err := GetEnvFile(scene.Dir)
		require.NoError(t, err)
		require.Equal(t, filepath.Join(scene.Dir, "secrets", "creds.env"), path)
	})

	t.Run("environment variable wins over config", func(t *testing.T) {
		scene := testhelpers.NewScene(t, nil)
		require.NoError(t, scene.WriteWorkspaceConfig(`{"envFile": "secrets/creds.env"}`))
		t.Setenv("BENCHCTL_ENV_FILE", "/tmp/override.env")

		path, err := GetEnvFile(scene.Dir)
		require.NoError(t, err)
		require.Equal(t, "/tmp/override.env", path)
	})
}

func TestSetters(t *testing.T) {
	t.Parallel()

	t.Run("SetWorkers persists and validates", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)

		require.Error(t, SetWorkers(scene.Dir, 0))
		require.NoError(t, SetWorkers(scene.Dir, 6))

		workers, err := GetWorkers(scene.Dir)
		require.NoError(t, err)
		require.Equal(t, 6, workers)
	})

	t.Run("SetOutputDir keeps other fields intact", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)
		require.NoError(t, SetWorkers(scene.Dir, 6))
		require.NoError(t, SetOutputDir(scene.Dir, "elsewhere"))

		workers, err := GetWorkers(scene.Dir)
		require.NoError(t, err)
		require.Equal(t, 6, workers)

		outputDir, err := GetOutputDir(scene.Dir)
		require.NoError(t, err)
		require.Equal(t, filepath.Join(scene.Dir, "elsewhere"), outputDir)
	})
}
