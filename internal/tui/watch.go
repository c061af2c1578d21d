package tui

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/bch9248/benchctl/internal/artifacts"
)

const (
	watchInstanceRows = 8
	watchTailBytes    = 2048
)

// summaryMsg carries a fresh directory snapshot into the model
type summaryMsg struct {
	summary *artifacts.Summary
}

type watchStyles struct {
	headerStyle  lipgloss.Style
	spinnerStyle lipgloss.Style
	countStyle   lipgloss.Style
	doneStyle    lipgloss.Style
	errorStyle   lipgloss.Style
	dimStyle     lipgloss.Style
	tailStyle    lipgloss.Style
}

// WatchModel is the bubbletea model for the live batch dashboard
type WatchModel struct {
	dir      string
	summary  *artifacts.Summary
	spinner  spinner.Model
	progress progress.Model
	updates  <-chan *artifacts.Summary
	quitting bool
	styles   watchStyles
}

// NewWatchModel creates a dashboard over a run directory fed by summaries
// from an artifacts watcher.
func NewWatchModel(dir string, updates <-chan *artifacts.Summary) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40

	return WatchModel{
		dir:      dir,
		spinner:  s,
		progress: p,
		updates:  updates,
		styles: watchStyles{
			headerStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
			spinnerStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
			countStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
			doneStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
			errorStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
			dimStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
			tailStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		},
	}
}

// Init initializes the bubbletea model
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.checkForUpdates())
}

// checkForUpdates polls the watcher channel without blocking the UI loop
func (m WatchModel) checkForUpdates() tea.Cmd {
	if m.updates == nil {
		return nil
	}

	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		select {
		case summary, ok := <-m.updates:
			if !ok {
				return tea.Quit()
			}
			return summaryMsg{summary: summary}
		default:
			return nil
		}
	})
}

// Update handles message updates for the bubbletea model
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.quitting = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, tea.Batch(cmd, m.checkForUpdates())

	case summaryMsg:
		m.summary = msg.summary
		return m, m.checkForUpdates()
	}

	return m, nil
}

// View renders the dashboard
func (m WatchModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + m.styles.headerStyle.Render("Watching "+m.dir) + "\n\n")

	if m.summary == nil || !m.summary.Exists {
		b.WriteString(fmt.Sprintf("  %s %s\n", m.spinner.View(),
			m.styles.dimStyle.Render("waiting for the output directory to appear...")))
		b.WriteString("\n" + m.styles.dimStyle.Render("  press q to quit") + "\n")
		return b.String()
	}

	trajectories := m.summary.TrajectoryCount()
	counts := fmt.Sprintf("%d trajectories", trajectories)
	if m.summary.HasPredictions {
		counts += fmt.Sprintf(", %d predictions", m.summary.Predictions)
	}
	if m.summary.Results != nil {
		counts += fmt.Sprintf(", %d resolved", m.summary.ResolvedCount())
	}
	b.WriteString(fmt.Sprintf("  %s %s\n", m.spinner.View(), m.styles.countStyle.Render(counts)))

	if m.summary.HasPredictions && trajectories > 0 {
		fraction := float64(m.summary.Predictions) / float64(trajectories)
		if fraction > 1 {
			fraction = 1
		}
		b.WriteString("  " + m.progress.ViewAs(fraction) + "\n")
	}
	b.WriteString("\n")

	for _, inst := range recentInstances(m.summary.Instances, watchInstanceRows) {
		age := m.styles.dimStyle.Render(formatAge(time.Since(inst.UpdatedAt)))
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			m.styles.doneStyle.Render("◉"), inst.ID, age))
	}

	if tail := latestTailLine(m.summary.Instances); tail != "" {
		b.WriteString("\n  " + m.styles.tailStyle.Render(tail) + "\n")
	}

	b.WriteString("\n" + m.styles.dimStyle.Render("  press q to quit") + "\n")
	return b.String()
}

// recentInstances returns up to limit instances, most recently updated first.
func recentInstances(instances []artifacts.Instance, limit int) []artifacts.Instance {
	sorted := append([]artifacts.Instance(nil), instances...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// latestTailLine returns the last line of the most recently written
// trajectory, truncated to a displayable width.
func latestTailLine(instances []artifacts.Instance) string {
	recent := recentInstances(instances, 1)
	if len(recent) == 0 {
		return ""
	}

	tail, err := artifacts.TailTrajectory(recent[0], watchTailBytes)
	if err != nil {
		return ""
	}

	lines := strings.Split(strings.TrimRight(tail, "\n"), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if last == "" {
		return ""
	}

	runes := []rune(recent[0].ID + ": " + last)
	if len(runes) > 76 {
		runes = append(runes[:75], '…')
	}
	return string(runes)
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}

// IsTTY returns true if we can use a TTY for interactive TUI
func IsTTY() bool {
	// First check if stdin/stdout are terminals
	if !((isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())) &&
		(isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))) {
		return false
	}
	// Also try to open /dev/tty to verify it's actually available
	f, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// RunWatchTUI runs the dashboard until the user quits or the context ends
func RunWatchTUI(ctx context.Context, dir string, updates <-chan *artifacts.Summary) error {
	m := NewWatchModel(dir, updates)
	// Use WithInput/WithOutput to avoid TTY requirement in non-interactive environments
	p := tea.NewProgram(m, tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// RunWatchSimple prints summary lines for non-TTY environments, one per
// change, until the context is cancelled.
func RunWatchSimple(ctx context.Context, dir string, updates <-chan *artifacts.Summary, console *Console) error {
	console.Info("Watching %s", dir)

	var last string
	for {
		select {
		case <-ctx.Done():
			return nil
		case summary, ok := <-updates:
			if !ok {
				return nil
			}
			line := formatSummaryLine(summary)
			if line != last {
				console.Info("%s", line)
				last = line
			}
		}
	}
}

func formatSummaryLine(summary *artifacts.Summary) string {
	if !summary.Exists {
		return "waiting for the output directory to appear..."
	}
	line := fmt.Sprintf("trajectories: %d", summary.TrajectoryCount())
	if summary.HasPredictions {
		line += fmt.Sprintf(", predictions: %d", summary.Predictions)
	}
	if summary.Results != nil {
		line += fmt.Sprintf(", resolved: %d", summary.ResolvedCount())
	}
	return line
}
