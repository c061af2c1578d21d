package tui

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"
)

func init() {
	// Force color output so ANSI assertions are deterministic
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestConsole(t *testing.T) {
	t.Run("info writes the bare message", func(t *testing.T) {
		var buf bytes.Buffer
		console, err := NewConsoleWithLogFile(&buf, "")
		require.NoError(t, err)

		console.Info("cloning %s", "SWE-agent/SWE-agent")
		require.Equal(t, "cloning SWE-agent/SWE-agent\n", buf.String())
	})

	t.Run("warn and error carry their markers", func(t *testing.T) {
		var buf bytes.Buffer
		console, err := NewConsoleWithLogFile(&buf, "")
		require.NoError(t, err)

		console.Warn("env file is group readable")
		console.Error("no container engine on PATH")
		require.Contains(t, buf.String(), "⚠️  env file is group readable")
		require.Contains(t, buf.String(), "❌ no container engine on PATH")
	})

	t.Run("quiet mode suppresses output", func(t *testing.T) {
		var buf bytes.Buffer
		console, err := NewConsoleWithLogFile(&buf, "")
		require.NoError(t, err)

		console.SetQuiet(true)
		require.True(t, console.IsQuiet())
		console.Info("hidden")
		console.Error("also hidden")
		require.Empty(t, buf.String())

		console.SetQuiet(false)
		console.Info("visible")
		require.Equal(t, "visible\n", buf.String())
	})

	t.Run("debug is gated by the DEBUG environment variable", func(t *testing.T) {
		t.Setenv("DEBUG", "")
		var buf bytes.Buffer
		console, err := NewConsoleWithLogFile(&buf, "")
		require.NoError(t, err)
		console.Debug("invisible")
		require.Empty(t, buf.String())

		t.Setenv("DEBUG", "1")
		console, err = NewConsoleWithLogFile(&buf, "")
		require.NoError(t, err)
		console.Debug("visible")
		require.Contains(t, buf.String(), "visible")
	})

	t.Run("file logging writes timestamped lines", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "logs", "benchctl.log")
		var buf bytes.Buffer
		console, err := NewConsoleWithLogFile(&buf, logPath)
		require.NoError(t, err)

		console.Info("probe succeeded")
		require.NoError(t, console.Close())

		data, err := os.ReadFile(logPath)
		require.NoError(t, err)
		require.Contains(t, string(data), "probe succeeded")
		require.Contains(t, string(data), "time=")
	})

	t.Run("page and newline write directly even in debug mode", func(t *testing.T) {
		var buf bytes.Buffer
		console, err := NewConsoleWithLogFile(&buf, "")
		require.NoError(t, err)

		console.Page("raw markdown")
		console.Newline()
		require.Equal(t, "raw markdown\n", buf.String())
	})
}

func TestGetLogFilePath(t *testing.T) {
	t.Run("environment override wins", func(t *testing.T) {
		t.Setenv("BENCHCTL_LOG_FILE", "/tmp/custom.log")
		require.Equal(t, "/tmp/custom.log", GetLogFilePath())
	})

	t.Run("defaults under the home directory", func(t *testing.T) {
		t.Setenv("BENCHCTL_LOG_FILE", "")
		path := GetLogFilePath()
		require.Contains(t, path, filepath.Join(".benchctl", "logs"))
	})
}

func TestColorRunState(t *testing.T) {
	t.Parallel()

	require.Contains(t, ColorRunState("succeeded"), "succeeded")
	require.Contains(t, ColorRunState("failed"), "failed")
	require.Contains(t, ColorRunState("running"), "running")
	require.Contains(t, ColorRunState("pending"), "pending")
}
