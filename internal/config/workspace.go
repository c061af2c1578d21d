package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ConfigFileName is the workspace settings file, kept at the workspace root.
const ConfigFileName = ".benchctl.json"

// Defaults applied when a field is absent from the workspace config.
const (
	DefaultAgentRepo = "SWE-agent/SWE-agent"
	DefaultAgentBin  = "sweagent"
	DefaultAgentDir  = "SWE-agent"
	DefaultOutputDir = "outputs"
	DefaultEnvFile   = ".env"
	DefaultWorkers   = 4
	DefaultSubset    = "lite"
	DefaultSplit     = "dev"
)

// WorkspaceConfig represents the workspace configuration
type WorkspaceConfig struct {
	AgentRepo *string `json:"agentRepo,omitempty"`
	AgentBin  *string `json:"agentBin,omitempty"`
	AgentDir  *string `json:"agentDir,omitempty"`
	OutputDir *string `json:"outputDir,omitempty"`
	EnvFile   *string `json:"envFile,omitempty"`
	Workers   *int    `json:"workers,omitempty"`
	Subset    *string `json:"subset,omitempty"`
	Split     *string `json:"split,omitempty"`
}

func configPath(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, ConfigFileName)
}

// GetWorkspaceConfig reads the workspace configuration
func GetWorkspaceConfig(workspaceRoot string) (*WorkspaceConfig, error) {
	data, err := os.ReadFile(configPath(workspaceRoot))
	if err != nil {
		// Config doesn't exist - return default
		return &WorkspaceConfig{}, nil
	}

	var config WorkspaceConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse workspace config: %w", err)
	}

	return &config, nil
}

// WriteWorkspaceConfig persists the workspace configuration
func WriteWorkspaceConfig(workspaceRoot string, config *WorkspaceConfig) error {
	configJSON, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath(workspaceRoot), configJSON, 0600)
}

// IsInitialized checks if benchctl has been initialized in this workspace
func IsInitialized(workspaceRoot string) bool {
	_, err := os.Stat(configPath(workspaceRoot))
	return err == nil
}

// GetAgentRepo returns the GitHub owner/name of the agent tool
func GetAgentRepo(workspaceRoot string) (string, error) {
	config, err := GetWorkspaceConfig(workspaceRoot)
	if err != nil {
		return "", err
	}

	if config.AgentRepo != nil && *config.AgentRepo != "" {
		return *config.AgentRepo, nil
	}

	return DefaultAgentRepo, nil
}

// GetAgentBin returns the agent CLI executable name
func GetAgentBin(workspaceRoot string) (string, error) {
	config, err := GetWorkspaceConfig(workspaceRoot)
	if err != nil {
		return "", err
	}

	if config.AgentBin != nil && *config.AgentBin != "" {
		return *config.AgentBin, nil
	}

	return DefaultAgentBin, nil
}

// GetAgentDir returns the agent checkout directory, resolved against the
// workspace root when relative
func GetAgentDir(workspaceRoot string) (string, error) {
	config, err := GetWorkspaceConfig(workspaceRoot)
	if err != nil {
		return "", err
	}

	dir := DefaultAgentDir
	if config.AgentDir != nil && *config.AgentDir != "" {
		dir = *config.AgentDir
	}

	if !filepath.IsAbs(dir) {
		dir = filepath.Join(workspaceRoot, dir)
	}
	return dir, nil
}

// GetOutputDir returns the batch output directory, resolved against the
// workspace root when relative
func GetOutputDir(workspaceRoot string) (string, error) {
	config, err := GetWorkspaceConfig(workspaceRoot)
	if err != nil {
		return "", err
	}

	dir := DefaultOutputDir
	if config.OutputDir != nil && *config.OutputDir != "" {
		dir = *config.OutputDir
	}

	if !filepath.IsAbs(dir) {
		dir = filepath.Join(workspaceRoot, dir)
	}
	return dir, nil
}

// GetEnvFile returns the credentials file path. Precedence: BENCHCTL_ENV_FILE
// environment variable, then the workspace config, then ".env" in the
// workspace root.
func GetEnvFile(workspaceRoot string) (string, error) {
	if fromEnv := os.Getenv("BENCHCTL_ENV_FILE"); fromEnv != "" {
		return fromEnv, nil
	}

	config, err := GetWorkspaceConfig(workspaceRoot)
	if err != nil {
		return "", err
	}

	path := DefaultEnvFile
	if config.EnvFile != nil && *config.EnvFile != "" {
		path = *config.EnvFile
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(workspaceRoot, path)
	}
	return path, nil
}

// GetWorkers returns the default worker count for batch runs
func GetWorkers(workspaceRoot string) (int, error) {
	config, err := GetWorkspaceConfig(workspaceRoot)
	if err != nil {
		return 0, err
	}

	if config.Workers != nil && *config.Workers > 0 {
		return *config.Workers, nil
	}

	return DefaultWorkers, nil
}

// GetSubset returns the default benchmark subset
func GetSubset(workspaceRoot string) (string, error) {
	config, err := GetWorkspaceConfig(workspaceRoot)
	if err != nil {
		return "", err
	}

	if config.Subset != nil && *config.Subset != "" {
		return *config.Subset, nil
	}

	return DefaultSubset, nil
}

// GetSplit returns the default benchmark split
func GetSplit(workspaceRoot string) (string, error) {
	config, err := GetWorkspaceConfig(workspaceRoot)
	if err != nil {
		return "", err
	}

	if config.Split != nil && *config.Split != "" {
		return *config.Split, nil
	}

	return DefaultSplit, nil
}

// SetWorkers updates the default worker count in the config
func SetWorkers(workspaceRoot string, workers int) error {
	if workers < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}

	config, err := GetWorkspaceConfig(workspaceRoot)
	if err != nil {
		config = &WorkspaceConfig{}
	}

	config.Workers = &workers

	return WriteWorkspaceConfig(workspaceRoot, config)
}

// SetOutputDir updates the batch output directory in the config
func SetOutputDir(workspaceRoot string, dir string) error {
	if dir == "" {
		return fmt.Errorf("output directory must not be empty")
	}

	config, err := GetWorkspaceConfig(workspaceRoot)
	if err != nil {
		config = &WorkspaceConfig{}
	}

	config.OutputDir = &dir

	return WriteWorkspaceConfig(workspaceRoot, config)
}
