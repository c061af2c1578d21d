// Package runtime provides a context type that holds the command runner and
// console for use throughout the application. This avoids passing multiple
// parameters.
package runtime

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bch9248/benchctl/internal/config"
	bencherrors "github.com/bch9248/benchctl/internal/errors"
	"github.com/bch9248/benchctl/internal/runner"
	"github.com/bch9248/benchctl/internal/tui"
)

// Context provides access to the runner and console for commands
type Context struct {
	Context       context.Context
	Runner        runner.Runner
	Console       *tui.Console
	WorkspaceRoot string
}

// NewContext creates a context rooted at the current directory. Commands that
// run before initialization (init itself) use this.
func NewContext(goctx context.Context) *Context {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	ctx := NewContextWithWorkspace(cwd)
	ctx.Context = goctx
	return ctx
}

// NewContextWithWorkspace creates a context rooted at the given workspace
func NewContextWithWorkspace(workspaceRoot string) *Context {
	return &Context{
		Context:       context.Background(),
		Runner:        runner.NewRealRunner(),
		Console:       tui.NewConsole(),
		WorkspaceRoot: workspaceRoot,
	}
}

// FindWorkspaceRoot walks up from dir looking for a workspace config file.
func FindWorkspaceRoot(dir string) (string, bool) {
	current := dir
	for {
		if config.IsInitialized(current) {
			return current, true
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}

// GetContext returns a context for an initialized workspace, searching upward
// from the current directory the way git finds its repository root.
func GetContext(goctx context.Context) (*Context, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}

	root, found := FindWorkspaceRoot(cwd)
	if !found {
		return nil, fmt.Errorf("%w: run 'benchctl init' first", bencherrors.ErrNotInitialized)
	}

	ctx := NewContextWithWorkspace(root)
	ctx.Context = goctx
	return ctx, nil
}
