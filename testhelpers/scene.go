package testhelpers

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// DefaultEnvFile is the credentials artifact a fresh scene starts with.
const DefaultEnvFile = `# benchctl credentials
AZURE_OPENAI_KEY="test-azure-key-0123456789"
AZURE_OPENAI_ENDPOINT="https://scene.openai.azure.com"
AZURE_OPENAI_DEPLOYMENT="gpt-4o"
GITHUB_TOKEN="ghp_scene_token_0123456789"
`

// Scene represents a test workspace with a temporary directory holding a
// credentials file and an output directory. Workspace config is written only
// by tests that need one, so config getters exercise their defaults.
type Scene struct {
	Dir string
}

// SceneSetup is a function type for setting up a scene.
type SceneSetup func(*Scene) error

// NewScene creates a new test workspace in a temporary directory.
// It automatically handles cleanup using t.Cleanup(). Scenes never chdir,
// so they are safe under t.Parallel().
func NewScene(t *testing.T, setup SceneSetup) *Scene {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "benchctl-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	scene := &Scene{Dir: tmpDir}

	if err := scene.writeDefaults(); err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to write scene defaults: %v", err)
	}

	if setup != nil {
		if err := setup(scene); err != nil {
			os.RemoveAll(tmpDir)
			t.Fatalf("Setup failed: %v", err)
		}
	}

	t.Cleanup(func() {
		if os.Getenv("DEBUG") == "" {
			os.RemoveAll(tmpDir)
		}
	})

	return scene
}

func (s *Scene) writeDefaults() error {
	if err := os.WriteFile(s.EnvPath(), []byte(DefaultEnvFile), 0600); err != nil {
		return err
	}
	return os.MkdirAll(s.OutputDir(), 0755)
}

// EnvPath returns the path of the scene's credentials file.
func (s *Scene) EnvPath() string {
	return filepath.Join(s.Dir, ".env")
}

// OutputDir returns the scene's batch output directory.
func (s *Scene) OutputDir() string {
	return filepath.Join(s.Dir, "outputs")
}

// WriteEnvFile replaces the scene's credentials file.
func (s *Scene) WriteEnvFile(content string) error {
	return os.WriteFile(s.EnvPath(), []byte(content), 0600)
}

// WriteWorkspaceConfig writes a raw .benchctl.json at the workspace root.
func (s *Scene) WriteWorkspaceConfig(jsonText string) error {
	return os.WriteFile(filepath.Join(s.Dir, ".benchctl.json"), []byte(jsonText), 0600)
}

// WriteRunArtifacts populates an output run directory with one trajectory per
// instance ID, mimicking the layout the batch runner produces.
func (s *Scene) WriteRunArtifacts(runName string, instanceIDs ...string) error {
	runDir := filepath.Join(s.OutputDir(), runName)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}
	for _, id := range instanceIDs {
		instDir := filepath.Join(runDir, id)
		if err := os.MkdirAll(instDir, 0755); err != nil {
			return err
		}
		traj := filepath.Join(instDir, fmt.Sprintf("%s.traj", id))
		if err := os.WriteFile(traj, []byte("{}"), 0644); err != nil {
			return err
		}
	}
	return nil
}

// WritePredictions writes a predictions file into an output run directory.
func (s *Scene) WritePredictions(runName, content string) error {
	runDir := filepath.Join(s.OutputDir(), runName)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(runDir, "preds.json"), []byte(content), 0644)
}

// BasicSceneSetup populates a scene with a small finished run.
func BasicSceneSetup(scene *Scene) error {
	if err := scene.WriteRunArtifacts("run-basic", "astropy__astropy-12907", "django__django-11001"); err != nil {
		return err
	}
	return scene.WritePredictions("run-basic", "{}")
}
