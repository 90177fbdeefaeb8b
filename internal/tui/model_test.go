package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regtestctl/internal/reporting"
	"regtestctl/pkg/logging"
)

func applyMsg(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	updated, _ := m.Update(msg)
	next, ok := updated.(model)
	require.True(t, ok)
	return next
}

func TestStageUpdatesChangeRowState(t *testing.T) {
	m := newModel("1.2.3", nil)

	m = applyMsg(t, m, reporting.StageUpdateMsg{Update: reporting.StageUpdate{
		Stage:   reporting.StageProvision,
		Status:  reporting.StatusSucceeded,
		Message: "Node container started",
	}})
	m = applyMsg(t, m, reporting.StageUpdateMsg{Update: reporting.StageUpdate{
		Stage:   reporting.StageReadiness,
		Status:  reporting.StatusProgress,
		Message: "attempt 2/10",
	}})

	view := m.View()
	assert.Contains(t, view, "regtestctl 1.2.3")
	assert.Contains(t, view, "Node container started")
	assert.Contains(t, view, "attempt 2/10")
}

func TestFailedStageShowsError(t *testing.T) {
	m := newModel("dev", nil)

	m = applyMsg(t, m, reporting.StageUpdateMsg{Update: reporting.StageUpdate{
		Stage:   reporting.StageReadiness,
		Status:  reporting.StatusFailed,
		Message: "Node never became ready",
		Err:     errors.New("connection refused"),
	}})

	assert.Contains(t, m.View(), "connection refused")
}

func TestRunFinishedQuitsWithExitCode(t *testing.T) {
	m := newModel("dev", nil)

	updated, cmd := m.Update(runFinishedMsg{exitCode: 3})
	next := updated.(model)

	assert.True(t, next.done)
	assert.Equal(t, 3, next.exitCode)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestQuitKeyAborts(t *testing.T) {
	m := newModel("dev", nil)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	next := updated.(model)

	assert.True(t, next.quitting)
	require.NotNil(t, cmd)
	assert.Contains(t, next.View(), "tearing down")
}

func TestLogEntriesAreTailed(t *testing.T) {
	m := newModel("dev", nil)

	for i := 0; i < maxLogLines+10; i++ {
		m = applyMsg(t, m, logEntryMsg{entry: logging.LogEntry{Subsystem: "Smoke", Message: "line"}})
	}
	assert.Len(t, m.logs, maxLogLines)
	assert.Contains(t, m.View(), "[Smoke] line")
}

func TestNarrowWindowTruncatesRows(t *testing.T) {
	m := newModel("dev", nil)
	m = applyMsg(t, m, tea.WindowSizeMsg{Width: 20, Height: 24})
	m = applyMsg(t, m, reporting.StageUpdateMsg{Update: reporting.StageUpdate{
		Stage:   reporting.StageProvision,
		Status:  reporting.StatusStarted,
		Message: "a very long provisioning status message that cannot fit",
	}})

	// Must not panic and must honor the width budget.
	assert.NotEmpty(t, m.View())
}
