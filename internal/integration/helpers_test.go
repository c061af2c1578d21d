package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Shell - A helper to make integration tests read like terminal sessions
// =============================================================================

// TestShell runs benchctl commands inside a throwaway workspace directory.
// Tests using it read like a series of terminal commands.
type TestShell struct {
	t          *testing.T
	dir        string
	binaryPath string
	lastOutput string
}

// NewTestShell creates a shell rooted at an empty temporary directory.
func NewTestShell(t *testing.T, binaryPath string) *TestShell {
	t.Helper()
	return &TestShell{t: t, dir: t.TempDir(), binaryPath: binaryPath}
}

// Dir returns the working directory of the test shell.
func (s *TestShell) Dir() string {
	return s.dir
}

// Init initializes the workspace non-interactively with placeholder
// credentials and returns the shell for chaining.
func (s *TestShell) Init() *TestShell {
	s.t.Helper()
	return s.Run("init --no-interactive" +
		" --azure-key shell-azure-key-0123456789" +
		" --azure-endpoint https://shell.openai.azure.com" +
		" --azure-deployment gpt-4o" +
		" --github-token ghp_shell_token_0123456789")
}

// Run executes a benchctl command (e.g., "config get AZURE_OPENAI_ENDPOINT")
// and requires it to succeed.
func (s *TestShell) Run(args string) *TestShell {
	s.t.Helper()
	parts := splitArgs(args)
	cmd := exec.Command(s.binaryPath, parts...)
	cmd.Dir = s.dir
	output, err := cmd.CombinedOutput()
	s.lastOutput = string(output)
	require.NoError(s.t, err, "$ benchctl %s\n%s", args, s.lastOutput)
	return s
}

// RunExpectError executes a benchctl command and expects it to fail.
func (s *TestShell) RunExpectError(args string) *TestShell {
	s.t.Helper()
	parts := splitArgs(args)
	cmd := exec.Command(s.binaryPath, parts...)
	cmd.Dir = s.dir
	output, err := cmd.CombinedOutput()
	s.lastOutput = string(output)
	require.Error(s.t, err, "$ benchctl %s (expected error)\n%s", args, s.lastOutput)
	return s
}

// Output returns the combined output of the last command.
func (s *TestShell) Output() string {
	return s.lastOutput
}

// =============================================================================
// Assertions
// =============================================================================

// OutputContains asserts the last output contains the given string.
func (s *TestShell) OutputContains(substr string) *TestShell {
	s.t.Helper()
	require.Contains(s.t, s.lastOutput, substr)
	return s
}

// OutputNotContains asserts the last output does NOT contain the given string.
func (s *TestShell) OutputNotContains(substr string) *TestShell {
	s.t.Helper()
	require.NotContains(s.t, s.lastOutput, substr)
	return s
}

// FileExists asserts a path relative to the workspace exists.
func (s *TestShell) FileExists(rel string) *TestShell {
	s.t.Helper()
	_, err := os.Stat(filepath.Join(s.dir, rel))
	require.NoError(s.t, err, "expected %s to exist", rel)
	return s
}

// FileAbsent asserts a path relative to the workspace does not exist.
func (s *TestShell) FileAbsent(rel string) *TestShell {
	s.t.Helper()
	_, err := os.Stat(filepath.Join(s.dir, rel))
	require.True(s.t, os.IsNotExist(err), "expected %s to be absent", rel)
	return s
}

// FileMode asserts the permission bits of a path relative to the workspace.
func (s *TestShell) FileMode(rel string, mode os.FileMode) *TestShell {
	s.t.Helper()
	info, err := os.Stat(filepath.Join(s.dir, rel))
	require.NoError(s.t, err)
	require.Equal(s.t, mode, info.Mode().Perm())
	return s
}

// FileContains asserts a workspace-relative file contains the given string.
func (s *TestShell) FileContains(rel, substr string) *TestShell {
	s.t.Helper()
	data, err := os.ReadFile(filepath.Join(s.dir, rel))
	require.NoError(s.t, err)
	require.Contains(s.t, string(data), substr)
	return s
}

// splitArgs splits a command line into arguments, honoring single and double
// quotes so values with spaces survive.
func splitArgs(s string) []string {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := rune(0)

	for _, r := range s {
		switch {
		case r == '"' || r == '\'':
			switch {
			case inQuote && r == quoteChar:
				inQuote = false
			case !inQuote:
				inQuote = true
				quoteChar = r
			default:
				current.WriteRune(r)
			}
		case r == ' ' && !inQuote:
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		args = append(args, current.String())
	}
	return args
}
