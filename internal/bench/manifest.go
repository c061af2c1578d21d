// Package bench defines the run manifest: a YAML file carrying the same
// batch settings as the `benchctl run` flags, so invocations can be kept in
// version control and replayed. Merge order is workspace defaults, then
// manifest, then flags.
package bench

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bch9248/benchctl/internal/agent"
)

// Manifest mirrors the selection surface of `benchctl run`. Pointer booleans
// distinguish "unset" from "false" during merging.
type Manifest struct {
	AgentConfig string `yaml:"agent_config,omitempty"`
	Workers     int    `yaml:"workers,omitempty"`
	OutputDir   string `yaml:"output_dir,omitempty"`
	Type        string `yaml:"type,omitempty"`
	Subset      string `yaml:"subset,omitempty"`
	Split       string `yaml:"split,omitempty"`
	Slice       string `yaml:"slice,omitempty"`
	Shuffle     *bool  `yaml:"shuffle,omitempty"`
	Evaluate    *bool  `yaml:"evaluate,omitempty"`
}

// Load reads a manifest, rejecting unknown fields so typos surface instead
// of silently running with defaults.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run manifest: %w", err)
	}

	var m Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse run manifest %s: %w", path, err)
	}
	return &m, nil
}

// ApplyTo overlays the manifest's set fields onto opts.
func (m *Manifest) ApplyTo(opts *agent.BatchOptions) {
	if m.AgentConfig != "" {
		opts.ConfigPath = m.AgentConfig
	}
	if m.Workers > 0 {
		opts.Workers = m.Workers
	}
	if m.OutputDir != "" {
		opts.OutputDir = m.OutputDir
	}
	if m.Type != "" {
		opts.Type = m.Type
	}
	if m.Subset != "" {
		opts.Subset = m.Subset
	}
	if m.Split != "" {
		opts.Split = m.Split
	}
	if m.Slice != "" {
		opts.Slice = m.Slice
	}
	if m.Shuffle != nil {
		opts.Shuffle = *m.Shuffle
	}
	if m.Evaluate != nil {
		opts.Evaluate = *m.Evaluate
	}
}

// FromOptions captures a fully merged invocation as a manifest.
func FromOptions(opts *agent.BatchOptions) *Manifest {
	shuffle := opts.Shuffle
	evaluate := opts.Evaluate
	return &Manifest{
		AgentConfig: opts.ConfigPath,
		Workers:     opts.Workers,
		OutputDir:   opts.OutputDir,
		Type:        opts.Type,
		Subset:      opts.Subset,
		Split:       opts.Split,
		Slice:       opts.Slice,
		Shuffle:     &shuffle,
		Evaluate:    &evaluate,
	}
}

// Render serializes the manifest.
func (m *Manifest) Render() ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run manifest: %w", err)
	}
	return data, nil
}

// Write persists the manifest to path.
func Write(path string, m *Manifest) error {
	data, err := m.Render()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run manifest: %w", err)
	}
	return nil
}
