package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"regtestctl/internal/reporting"
	"regtestctl/pkg/logging"
)

const maxLogLines = 200

// runFinishedMsg carries the pipeline's exit code into the TUI event loop.
type runFinishedMsg struct {
	exitCode int
}

// logEntryMsg delivers one log line from the logging channel.
type logEntryMsg struct {
	entry logging.LogEntry
}

// stageRow is the display state of one pipeline stage.
type stageRow struct {
	stage   reporting.Stage
	status  reporting.Status
	message string
	started bool
}

type model struct {
	version string
	spinner spinner.Model

	// Stage rows in pipeline order.
	rows []stageRow

	logCh <-chan logging.LogEntry
	logs  []string

	width    int
	height   int
	done     bool
	exitCode int
	quitting bool
}

func newModel(version string, logCh <-chan logging.LogEntry) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return model{
		version: version,
		spinner: s,
		logCh:   logCh,
		rows: []stageRow{
			{stage: reporting.StageProvision},
			{stage: reporting.StageReadiness},
			{stage: reporting.StageTest},
			{stage: reporting.StageTeardown},
		},
	}
}

// waitForLog blocks on the logging channel and wraps the next entry as a
// tea.Msg. Re-issued after every delivery.
func waitForLog(ch <-chan logging.LogEntry) tea.Cmd {
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return nil
		}
		return logEntryMsg{entry: entry}
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForLog(m.logCh))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case reporting.StageUpdateMsg:
		m.applyUpdate(msg.Update)
		return m, nil

	case logEntryMsg:
		line := fmt.Sprintf("[%s] %s", msg.entry.Subsystem, msg.entry.Message)
		if msg.entry.Err != nil {
			line += fmt.Sprintf(": %v", msg.entry.Err)
		}
		m.logs = append(m.logs, line)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
		return m, waitForLog(m.logCh)

	case runFinishedMsg:
		m.done = true
		m.exitCode = msg.exitCode
		return m, tea.Quit
	}

	return m, nil
}

func (m *model) applyUpdate(u reporting.StageUpdate) {
	for i := range m.rows {
		if m.rows[i].stage != u.Stage {
			continue
		}
		m.rows[i].started = true
		m.rows[i].status = u.Status
		m.rows[i].message = u.Message
		if u.Err != nil {
			m.rows[i].message = fmt.Sprintf("%s (%v)", u.Message, u.Err)
		}
		return
	}
}

func (m model) View() string {
	if m.quitting && !m.done {
		return "Aborting, tearing down environment...\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("regtestctl %s", m.version)))
	b.WriteString("\n")

	for _, row := range m.rows {
		b.WriteString(m.renderRow(row))
		b.WriteString("\n")
	}

	if logView := m.renderLogs(); logView != "" {
		b.WriteString("\n")
		b.WriteString(logView)
	}

	b.WriteString(helpStyle.Render("q: abort and tear down"))
	b.WriteString("\n")
	return b.String()
}

func (m model) renderRow(row stageRow) string {
	icon := pendingStyle.Render("·")
	switch {
	case !row.started:
	case row.status == reporting.StatusSucceeded:
		icon = okStyle.Render("✓")
	case row.status == reporting.StatusFailed:
		icon = failStyle.Render("✗")
	case row.status == reporting.StatusWarning:
		icon = warnStyle.Render("!")
	default:
		icon = m.spinner.View()
	}

	line := fmt.Sprintf("%s %s %s", icon, stageNameStyle.Render(row.stage.String()), row.message)
	if m.width > 0 {
		line = runewidth.Truncate(line, m.width, "…")
	}
	return line
}

func (m model) renderLogs() string {
	if len(m.logs) == 0 {
		return ""
	}

	// Show as many trailing lines as fit under the stage rows.
	tail := 8
	if m.height > 0 {
		if avail := m.height - len(m.rows) - 6; avail < tail {
			tail = avail
		}
	}
	if tail < 1 {
		return ""
	}
	lines := m.logs
	if len(lines) > tail {
		lines = lines[len(lines)-tail:]
	}

	width := 80
	if m.width > 4 {
		width = m.width - 4
	}
	trimmed := make([]string, len(lines))
	for i, line := range lines {
		trimmed[i] = runewidth.Truncate(line, width, "…")
	}
	return logPanelStyle.Render(strings.Join(trimmed, "\n"))
}
