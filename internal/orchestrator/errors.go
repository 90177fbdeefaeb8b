package orchestrator

import "fmt"

// ReadinessTimeoutError indicates the node never became ready within the
// configured attempt budget. Attempts is the number of probes that were
// actually issued; LastErr is the failure seen on the final probe.
type ReadinessTimeoutError struct {
	Attempts int
	LastErr  error
}

func (e *ReadinessTimeoutError) Error() string {
	return fmt.Sprintf("node not ready after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *ReadinessTimeoutError) Unwrap() error { return e.LastErr }
