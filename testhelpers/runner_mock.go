package testhelpers

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// FakeResult is the scripted outcome for a command prefix.
type FakeResult struct {
	Output string
	Err    error
}

// FakeRunner is a scripted implementation of the runner.Runner interface.
// Commands are matched against Results by longest prefix of the joined argv,
// so a script can answer "docker version" specifically and "docker" generally.
type FakeRunner struct {
	mu    sync.Mutex
	calls [][]string
	dirs  []string

	// Results maps an argv prefix ("docker version") to its outcome.
	Results map[string]FakeResult

	// Missing lists command names LookPath should fail for.
	Missing []string

	// Stream script.
	StreamOutput string
	StreamCode   int
	StreamErr    error
}

// NewFakeRunner returns a FakeRunner with an empty script; unscripted
// commands succeed with empty output.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{Results: map[string]FakeResult{}}
}

// Script registers an outcome for an argv prefix.
func (f *FakeRunner) Script(prefix, output string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Results == nil {
		f.Results = map[string]FakeResult{}
	}
	f.Results[prefix] = FakeResult{Output: output, Err: err}
}

// Calls returns the recorded argv of every executed command.
func (f *FakeRunner) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallStrings returns the recorded commands as joined strings.
func (f *FakeRunner) CallStrings() []string {
	var out []string
	for _, call := range f.Calls() {
		out = append(out, strings.Join(call, " "))
	}
	return out
}

// Dirs returns the working directory used for each recorded call ("" when
// none was requested).
func (f *FakeRunner) Dirs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.dirs))
	copy(out, f.dirs)
	return out
}

func (f *FakeRunner) record(dir, name string, args []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.dirs = append(f.dirs, dir)
}

func (f *FakeRunner) lookup(name string, args []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	joined := strings.Join(append([]string{name}, args...), " ")
	bestLen := -1
	var best FakeResult
	for prefix, result := range f.Results {
		if strings.HasPrefix(joined, prefix) && len(prefix) > bestLen {
			bestLen = len(prefix)
			best = result
		}
	}
	if bestLen < 0 {
		return "", nil
	}
	return best.Output, best.Err
}

// Run implements runner.Runner.
func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	f.record("", name, args)
	return f.lookup(name, args)
}

// RunInDir implements runner.Runner.
func (f *FakeRunner) RunInDir(ctx context.Context, dir, name string, args ...string) (string, error) {
	f.record(dir, name, args)
	return f.lookup(name, args)
}

// RunWithEnv implements runner.Runner.
func (f *FakeRunner) RunWithEnv(ctx context.Context, env []string, name string, args ...string) (string, error) {
	f.record("", name, args)
	return f.lookup(name, args)
}

// Stream implements runner.Runner.
func (f *FakeRunner) Stream(ctx context.Context, env []string, stdout, stderr io.Writer, name string, args ...string) (int, error) {
	f.record("", name, args)
	if f.StreamOutput != "" && stdout != nil {
		fmt.Fprint(stdout, f.StreamOutput)
	}
	return f.StreamCode, f.StreamErr
}

// LookPath implements runner.Runner.
func (f *FakeRunner) LookPath(name string) (string, error) {
	for _, missing := range f.Missing {
		if missing == name {
			return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
		}
	}
	return "/usr/bin/" + name, nil
}
