// Package engine probes the local container engine that the agent's
// evaluation harness depends on. It distinguishes "daemon not running" from
// "socket exists but you may not talk to it", because the two have different
// operator fixes.
package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	bencherrors "github.com/bch9248/benchctl/internal/errors"
	"github.com/bch9248/benchctl/internal/runner"
)

const (
	// DefaultCLI is the container engine command benchctl drives.
	DefaultCLI = "docker"

	// DefaultSocket is the engine control socket on Linux and macOS.
	DefaultSocket = "/var/run/docker.sock"

	dialTimeout = 2 * time.Second
)

// Socket returns the control socket path, honoring unix:// DOCKER_HOST
// overrides.
func Socket() string {
	host := os.Getenv("DOCKER_HOST")
	if strings.HasPrefix(host, "unix://") {
		return strings.TrimPrefix(host, "unix://")
	}
	return DefaultSocket
}

// CheckCLI resolves the engine CLI on PATH and returns its location.
func CheckCLI(r runner.Runner) (string, error) {
	path, err := r.LookPath(DefaultCLI)
	if err != nil {
		return "", fmt.Errorf("%s CLI not found on PATH", DefaultCLI)
	}
	return path, nil
}

// CheckSocket inspects the engine control socket. A missing or dead socket
// maps to ErrEngineUnreachable; a permission failure maps to
// SocketPermissionError so callers can print the documented remediation.
func CheckSocket(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("socket %s does not exist (is the daemon running?): %w", path, bencherrors.ErrEngineUnreachable)
		}
		if os.IsPermission(err) {
			return bencherrors.NewSocketPermissionError(path, err)
		}
		return fmt.Errorf("failed to stat socket %s: %w", path, err)
	}

	if info.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("%s is not a socket: %w", path, bencherrors.ErrEngineUnreachable)
	}

	conn, err := net.DialTimeout("unix", path, dialTimeout)
	if err != nil {
		if errors.Is(err, os.ErrPermission) || strings.Contains(err.Error(), "permission denied") {
			return bencherrors.NewSocketPermissionError(path, err)
		}
		return fmt.Errorf("failed to connect to %s: %w", path, bencherrors.ErrEngineUnreachable)
	}
	conn.Close()
	return nil
}

// ServerVersion asks the daemon for its version through the CLI, classifying
// the common failure modes.
func ServerVersion(ctx context.Context, r runner.Runner) (string, error) {
	out, err := r.Run(ctx, DefaultCLI, "version", "--format", "{{.Server.Version}}")
	if err != nil {
		return "", Classify(err)
	}
	return out, nil
}

// Classify maps a CLI failure onto the engine error taxonomy by inspecting
// the daemon's stderr.
func Classify(err error) error {
	var cmdErr *bencherrors.CommandError
	if !errors.As(err, &cmdErr) {
		return err
	}

	stderr := strings.ToLower(cmdErr.Stderr)
	switch {
	case strings.Contains(stderr, "permission denied"):
		return bencherrors.NewSocketPermissionError(Socket(), err)
	case strings.Contains(stderr, "cannot connect to the docker daemon"),
		strings.Contains(stderr, "is the docker daemon running"),
		strings.Contains(stderr, "connection refused"):
		return fmt.Errorf("container daemon unreachable: %w", bencherrors.ErrEngineUnreachable)
	}
	return err
}

// SocketRemediation returns the operator commands that fix a socket
// permission failure, preferred fix first.
func SocketRemediation(path string) []string {
	return []string{
		"sudo usermod -aG docker $USER && newgrp docker",
		fmt.Sprintf("sudo chmod 666 %s", path),
	}
}
