package reporting

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Stage identifies the phase of a run an update belongs to.
type Stage string

const (
	StageProvision Stage = "Provision"
	StageReadiness Stage = "Readiness"
	StageTest      Stage = "Test"
	StageTeardown  Stage = "Teardown"
)

// String makes Stage satisfy the fmt.Stringer interface.
func (s Stage) String() string {
	return string(s)
}

// Status describes how a stage is doing.
type Status string

const (
	StatusStarted   Status = "Started"
	StatusProgress  Status = "Progress"
	StatusSucceeded Status = "Succeeded"
	StatusFailed    Status = "Failed"
	StatusWarning   Status = "Warning"
)

// StageUpdate carries status updates from the orchestrator to whatever is
// presenting the run. It is the standardized way for components to report
// progress, so the console path and the TUI path consume the same events.
type StageUpdate struct {
	// Timestamp of when the event occurred. Reporters fill it in when the
	// producer leaves it zero.
	Timestamp time.Time

	Stage  Stage
	Status Status

	// Message is a human-readable line, e.g. "Waiting for RPC (attempt 3/10)".
	Message string

	// Attempt and MaxAttempts are populated for readiness polling updates.
	Attempt     int
	MaxAttempts int

	// Err carries the failure detail for StatusFailed and StatusWarning.
	Err error
}

// String provides a compact representation for debugging.
func (u StageUpdate) String() string {
	return fmt.Sprintf("Update(%s/%s: %s, err: %v)", u.Stage, u.Status, u.Message, u.Err)
}

// Reporter consumes stage updates. Implementations must be goroutine-safe;
// updates arrive from the orchestrator and from log-streaming goroutines.
type Reporter interface {
	Report(update StageUpdate)
}

// StageUpdateMsg is the tea.Msg used to deliver updates into the TUI event
// loop.
type StageUpdateMsg struct {
	Update StageUpdate
}

var _ tea.Msg = StageUpdateMsg{}
