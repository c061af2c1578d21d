// Package errors provides sentinel errors and custom error types for the benchctl application.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common conditions
var (
	// ErrEnvFileMissing indicates that the credentials env file does not exist
	ErrEnvFileMissing = errors.New("env file missing")

	// ErrMissingKey indicates that a required key is absent from the env file
	ErrMissingKey = errors.New("missing required key")

	// ErrMalformedLine indicates that an env file line could not be parsed
	ErrMalformedLine = errors.New("malformed line")

	// ErrEngineUnreachable indicates that the container engine daemon is not responding
	ErrEngineUnreachable = errors.New("container engine unreachable")

	// ErrSocketPermission indicates that the container engine control socket denied access
	ErrSocketPermission = errors.New("socket permission denied")

	// ErrAgentNotFound indicates that the agent CLI could not be resolved on PATH
	ErrAgentNotFound = errors.New("agent command not found")

	// ErrCheckoutMissing indicates that the agent tool checkout does not exist
	ErrCheckoutMissing = errors.New("agent checkout missing")

	// ErrNotInitialized indicates that no benchctl workspace exists here
	ErrNotInitialized = errors.New("workspace not initialized")
)

// MalformedLineError reports an env file line that has no KEY=VALUE shape
type MalformedLineError struct {
	Path string
	Line int
	Text string
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("%s:%d: malformed line %q (expected KEY=VALUE)", e.Path, e.Line, e.Text)
}

// Is returns true if the target error is ErrMalformedLine
func (e *MalformedLineError) Is(target error) bool {
	return target == ErrMalformedLine
}

// NewMalformedLineError creates a new MalformedLineError
func NewMalformedLineError(path string, line int, text string) *MalformedLineError {
	return &MalformedLineError{Path: path, Line: line, Text: text}
}

// MissingKeysError reports required keys absent from the env file
type MissingKeysError struct {
	Path string
	Keys []string
}

func (e *MissingKeysError) Error() string {
	return fmt.Sprintf("%s: missing required key(s): %s", e.Path, strings.Join(e.Keys, ", "))
}

// Is returns true if the target error is ErrMissingKey
func (e *MissingKeysError) Is(target error) bool {
	return target == ErrMissingKey
}

// NewMissingKeysError creates a new MissingKeysError
func NewMissingKeysError(path string, keys []string) *MissingKeysError {
	return &MissingKeysError{Path: path, Keys: keys}
}

// SocketPermissionError reports a denied open/dial on the engine control socket.
// Matches the failure mode where the socket exists but the operator's user
// cannot read or write it.
type SocketPermissionError struct {
	Path string
	Err  error
}

func (e *SocketPermissionError) Error() string {
	return fmt.Sprintf("permission denied on %s", e.Path)
}

func (e *SocketPermissionError) Unwrap() error {
	return e.Err
}

// Is returns true if the target error is ErrSocketPermission
func (e *SocketPermissionError) Is(target error) bool {
	return target == ErrSocketPermission
}

// NewSocketPermissionError creates a new SocketPermissionError
func NewSocketPermissionError(path string, err error) *SocketPermissionError {
	return &SocketPermissionError{Path: path, Err: err}
}

// ExitCodeError carries a child process exit code up to main so benchctl can
// exit with the same code the batch runner did
type ExitCodeError struct {
	Code int
	Err  error
}

func (e *ExitCodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("exited with code %d: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("exited with code %d", e.Code)
}

func (e *ExitCodeError) Unwrap() error {
	return e.Err
}

// NewExitCodeError creates a new ExitCodeError
func NewExitCodeError(code int, err error) *ExitCodeError {
	return &ExitCodeError{Code: code, Err: err}
}

// CommandError represents an error from an external command execution
type CommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new CommandError
func NewCommandError(command string, args []string, stdout, stderr string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}
