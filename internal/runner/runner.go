// Package runner provides a wrapper around the external commands benchctl
// drives: python3, pip, the container engine CLI and the agent CLI.
package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	bencherrors "github.com/bch9248/benchctl/internal/errors"
)

// DefaultCommandTimeout is the default timeout for captured commands.
// Streaming commands carry no default timeout; batch runs are long-lived.
const DefaultCommandTimeout = 5 * time.Minute

// CommandRunner handles execution of external commands
type CommandRunner struct {
	workingDir string
}

// NewCommandRunner creates a new CommandRunner
func NewCommandRunner(workingDir string) *CommandRunner {
	return &CommandRunner{workingDir: workingDir}
}

// defaultRunner is the global runner used by the package-level functions
var defaultRunner = &CommandRunner{}

// SetWorkingDir sets the working directory for the default runner.
func SetWorkingDir(dir string) {
	defaultRunner.workingDir = dir
}

// GetWorkingDir returns the current working directory setting for the default runner.
func GetWorkingDir() string {
	return defaultRunner.workingDir
}

// Run executes a command with the given context and returns trimmed stdout
func (r *CommandRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	return r.runInternal(ctx, nil, name, args...)
}

// RunWithEnv executes a command with extra environment variables appended to
// the inherited environment
func (r *CommandRunner) RunWithEnv(ctx context.Context, env []string, name string, args ...string) (string, error) {
	return r.runInternal(ctx, env, name, args...)
}

func (r *CommandRunner) runInternal(ctx context.Context, env []string, name string, args ...string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// If no timeout/deadline is set in the context, add the default one
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultCommandTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	if r.workingDir != "" {
		cmd.Dir = r.workingDir
	}
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", bencherrors.NewCommandError(name, args, stdout.String(), stderr.String(), ctx.Err())
		}
		return "", bencherrors.NewCommandError(name, args, stdout.String(), stderr.String(), err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Stream executes a command with stdout/stderr wired to the given writers and
// no default timeout. It returns the child's exit code alongside any error.
func (r *CommandRunner) Stream(ctx context.Context, env []string, stdout, stderr io.Writer, name string, args ...string) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	if r.workingDir != "" {
		cmd.Dir = r.workingDir
	}
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	if err != nil {
		code := 1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return code, bencherrors.NewCommandError(name, args, "", "", err)
	}
	return 0, nil
}

// RunCommand executes a command using the default runner and returns the output.
// It uses context.Background() with a default timeout.
func RunCommand(name string, args ...string) (string, error) {
	return defaultRunner.Run(context.Background(), name, args...)
}

// RunCommandWithContext executes a command with the given context using the default runner.
func RunCommandWithContext(ctx context.Context, name string, args ...string) (string, error) {
	return defaultRunner.Run(ctx, name, args...)
}

// RunCommandInDir executes a command in a specific directory and returns the output.
func RunCommandInDir(ctx context.Context, dir, name string, args ...string) (string, error) {
	runner := &CommandRunner{workingDir: dir}
	return runner.Run(ctx, name, args...)
}

// RunCommandWithEnv executes a command with extra environment variables.
func RunCommandWithEnv(ctx context.Context, env []string, name string, args ...string) (string, error) {
	return defaultRunner.RunWithEnv(ctx, env, name, args...)
}

// RunCommandInteractive executes a command with stdin/stdout/stderr connected
// to the terminal.
func RunCommandInteractive(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if defaultRunner.workingDir != "" {
		cmd.Dir = defaultRunner.workingDir
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

// LookPath resolves a command name against PATH.
func LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// PythonVersion returns the `python3 --version` banner, e.g. "Python 3.11.4".
func PythonVersion(ctx context.Context) (string, error) {
	return defaultRunner.Run(ctx, "python3", "--version")
}

// PipInstallEditable runs `python3 -m pip install -e .` inside dir.
func PipInstallEditable(ctx context.Context, dir string) (string, error) {
	runner := &CommandRunner{workingDir: dir}
	return runner.Run(ctx, "python3", "-m", "pip", "install", "-e", ".")
}

// Runner defines the interface for external command execution used by the
// actions. This allows the actions to be used with both real commands and
// mock implementations.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
	RunInDir(ctx context.Context, dir, name string, args ...string) (string, error)
	RunWithEnv(ctx context.Context, env []string, name string, args ...string) (string, error)
	Stream(ctx context.Context, env []string, stdout, stderr io.Writer, name string, args ...string) (int, error)
	LookPath(name string) (string, error)
}

// NewRealRunner returns a standard implementation of Runner that calls
// the package-level functions.
func NewRealRunner() Runner {
	return &realRunner{}
}

// realRunner implements Runner by calling the actual package functions
type realRunner struct{}

func (r *realRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	return RunCommandWithContext(ctx, name, args...)
}

func (r *realRunner) RunInDir(ctx context.Context, dir, name string, args ...string) (string, error) {
	return RunCommandInDir(ctx, dir, name, args...)
}

func (r *realRunner) RunWithEnv(ctx context.Context, env []string, name string, args ...string) (string, error) {
	return RunCommandWithEnv(ctx, env, name, args...)
}

func (r *realRunner) Stream(ctx context.Context, env []string, stdout, stderr io.Writer, name string, args ...string) (int, error) {
	return defaultRunner.Stream(ctx, env, stdout, stderr, name, args...)
}

func (r *realRunner) LookPath(name string) (string, error) {
	return LookPath(name)
}
