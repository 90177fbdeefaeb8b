package reporting

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// MsgSender is the part of *tea.Program the TUIReporter needs. Abstracted
// so tests can capture messages without running a program.
type MsgSender interface {
	Send(msg tea.Msg)
}

// TUIReporter forwards stage updates into a running bubbletea program as
// StageUpdateMsg values. Updates reported before the program is attached
// are dropped; the TUI renders current state, not history.
type TUIReporter struct {
	sender MsgSender
}

// NewTUIReporter creates a TUIReporter. The sender may be nil and attached
// later via SetSender once the program is running.
func NewTUIReporter(sender MsgSender) *TUIReporter {
	return &TUIReporter{sender: sender}
}

// SetSender attaches the running program.
func (t *TUIReporter) SetSender(sender MsgSender) {
	t.sender = sender
}

// Report sends the update into the TUI event loop.
func (t *TUIReporter) Report(update StageUpdate) {
	if t.sender == nil {
		return
	}
	if update.Timestamp.IsZero() {
		update.Timestamp = time.Now()
	}
	t.sender.Send(StageUpdateMsg{Update: update})
}
