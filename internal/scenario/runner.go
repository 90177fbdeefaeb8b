package scenario

import (
	"context"

	"regtestctl/internal/testrunner"
	"regtestctl/pkg/logging"
)

// Runner adapts the smoke suite to the test-runner contract so it can
// stand in for an external command in the pipeline.
type Runner struct {
	smoke *Smoke
}

// NewRunner wraps a smoke suite.
func NewRunner(smoke *Smoke) *Runner {
	return &Runner{smoke: smoke}
}

// Run executes the suite. A scenario failure is a suite failure, not a
// launch error, so it maps to exit code 1.
func (r *Runner) Run(ctx context.Context) testrunner.Result {
	if _, err := r.smoke.Run(ctx); err != nil {
		logging.Error("Smoke", err, "Scenario failed")
		return testrunner.Result{ExitCode: 1}
	}
	return testrunner.Result{ExitCode: 0}
}
