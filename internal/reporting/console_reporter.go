package reporting

import (
	"time"

	"regtestctl/pkg/logging"
)

// ConsoleReporter is a Reporter that forwards stage updates to the
// pkg/logging package. It is the presentation path for non-TUI runs and for
// CI, where plain line-oriented output is wanted.
type ConsoleReporter struct{}

// NewConsoleReporter creates a new ConsoleReporter.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

// Report logs the update at a level derived from its status.
func (c *ConsoleReporter) Report(update StageUpdate) {
	if update.Timestamp.IsZero() {
		update.Timestamp = time.Now()
	}

	subsystem := update.Stage.String()
	switch update.Status {
	case StatusFailed:
		logging.Error(subsystem, update.Err, "%s", update.Message)
	case StatusWarning:
		logging.Warn(subsystem, "%s: %v", update.Message, update.Err)
	case StatusProgress:
		logging.Debug(subsystem, "%s", update.Message)
	default:
		logging.Info(subsystem, "%s", update.Message)
	}
}
