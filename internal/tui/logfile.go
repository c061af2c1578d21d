package tui

import (
	"os"
	"path/filepath"
)

// GetLogFilePath returns the path to the log file.
// If BENCHCTL_LOG_FILE is set, uses that path.
// Otherwise, uses ~/.benchctl/logs/benchctl.log
func GetLogFilePath() string {
	if customPath := os.Getenv("BENCHCTL_LOG_FILE"); customPath != "" {
		return customPath
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if we can't get home dir
		return "benchctl.log"
	}

	logDir := filepath.Join(homeDir, ".benchctl", "logs")
	logFile := filepath.Join(logDir, "benchctl.log")

	return logFile
}
