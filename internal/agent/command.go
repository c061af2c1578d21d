package agent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bch9248/benchctl/internal/keys"
)

// slicePattern matches Python-style [start]:[end] slices: ":50", "10:20",
// "100:", ":".
var slicePattern = regexp.MustCompile(`^(\d*):(\d*)$`)

// BatchOptions describes one batch invocation of the agent CLI.
type BatchOptions struct {
	Bin        string
	ConfigPath string
	Workers    int
	OutputDir  string

	// Instance selection, forwarded opaquely to the agent.
	Type     string
	Subset   string
	Split    string
	Slice    string
	Shuffle  bool
	Evaluate bool
}

// Validate checks the locally checkable parts of the invocation. Selection
// values other than the slice are opaque to benchctl.
func (o *BatchOptions) Validate() error {
	if o.Bin == "" {
		return fmt.Errorf("agent binary not configured")
	}
	if o.ConfigPath == "" {
		return fmt.Errorf("agent config path required")
	}
	if o.OutputDir == "" {
		return fmt.Errorf("output directory required")
	}
	if o.Workers < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", o.Workers)
	}
	if o.Slice != "" {
		if err := ValidateSlice(o.Slice); err != nil {
			return err
		}
	}
	return nil
}

// Args renders the argv passed to the agent binary. Booleans are rendered
// True/False the way the agent's CLI parser expects them.
func (o *BatchOptions) Args() []string {
	args := []string{
		"run-batch",
		"--config", o.ConfigPath,
		"--num_workers", strconv.Itoa(o.Workers),
		"--output_dir", o.OutputDir,
	}

	if o.Type != "" {
		args = append(args, "--instances.type", o.Type)
	}
	if o.Subset != "" {
		args = append(args, "--instances.subset", o.Subset)
	}
	if o.Split != "" {
		args = append(args, "--instances.split", o.Split)
	}
	if o.Slice != "" {
		args = append(args, "--instances.slice", o.Slice)
	}
	args = append(args, "--instances.shuffle", formatBool(o.Shuffle))
	args = append(args, "--instances.evaluate", formatBool(o.Evaluate))

	return args
}

// CommandLine renders the full command for display (dry runs, logs).
func (o *BatchOptions) CommandLine() string {
	parts := append([]string{o.Bin}, o.Args()...)
	return strings.Join(parts, " ")
}

// Env renders the child process environment entries carrying the resolved
// credentials under their canonical names.
func (o *BatchOptions) Env(creds *keys.Credentials) []string {
	return []string{
		fmt.Sprintf("AZURE_OPENAI_KEY=%s", creds.AzureKey),
		fmt.Sprintf("AZURE_OPENAI_ENDPOINT=%s", creds.AzureEndpoint),
		fmt.Sprintf("AZURE_OPENAI_DEPLOYMENT=%s", creds.AzureDeployment),
		fmt.Sprintf("GITHUB_TOKEN=%s", creds.GithubToken),
	}
}

// EnvKeys lists the variable names Env injects, for dry-run output that must
// not leak values.
func (o *BatchOptions) EnvKeys() []string {
	return []string{"AZURE_OPENAI_KEY", "AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_DEPLOYMENT", "GITHUB_TOKEN"}
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// ValidateSlice checks a [start]:[end] selection slice. Both bounds are
// optional; when both are present start must not exceed end.
func ValidateSlice(s string) error {
	m := slicePattern.FindStringSubmatch(s)
	if m == nil {
		return fmt.Errorf("invalid slice %q (expected [start]:[end], e.g. \":50\" or \"10:20\")", s)
	}
	if m[1] != "" && m[2] != "" {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		if start > end {
			return fmt.Errorf("invalid slice %q: start %d exceeds end %d", s, start, end)
		}
	}
	return nil
}
