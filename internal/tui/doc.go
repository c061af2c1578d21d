// Package tui provides the terminal user interface for benchctl.
//
// It handles:
//   - Structured logging and status reporting (Console)
//   - Terminal styling and colors (using lipgloss)
//   - The live batch dashboard (using bubbletea)
//   - Rendering the embedded operator guide (using glamour)
package tui
