package actions

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bch9248/benchctl/internal/runtime"
	"github.com/bch9248/benchctl/internal/tui"
	"github.com/bch9248/benchctl/testhelpers"
)

// newTestContext builds an action context over a scene with a scripted runner
// and a quiet console. The deadline keeps accidental network lookups from
// hanging the suite.
func newTestContext(t *testing.T, root string, fake *testhelpers.FakeRunner) *runtime.Context {
	t.Helper()
	goctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	console := tui.NewConsole()
	console.SetQuiet(true)
	t.Cleanup(func() { _ = console.Close() })
	return &runtime.Context{
		Context:       goctx,
		Runner:        fake,
		Console:       console,
		WorkspaceRoot: root,
	}
}

// newGitCheckout creates a real repository with one commit on main, standing
// in for an agent checkout.
func newGitCheckout(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	for _, argv := range [][]string{
		{"init", "-b", "main"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "Test"},
	} {
		cmd := exec.Command("git", argv...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", argv, out)
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pyproject.toml"), []byte("[project]\nname = \"sweagent\"\n"), 0644))

	for _, argv := range [][]string{
		{"add", "."},
		{"commit", "-m", "initial"},
	} {
		cmd := exec.Command("git", argv...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", argv, out)
	}

	return dir
}
