package testrunner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"regtestctl/internal/config"
	"regtestctl/pkg/logging"
)

// For mocking in tests
var execCommandContext = exec.CommandContext

// Result captures the outcome of a test suite invocation.
type Result struct {
	// ExitCode is the suite's exit status. Zero means the suite passed.
	ExitCode int
	// Err is set when the suite could not be launched at all, as opposed to
	// running and failing.
	Err error
}

// Passed reports whether the suite ran and exited zero.
func (r Result) Passed() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Runner executes the configured external test command against the
// provisioned environment. The suite's output is streamed through as it is
// produced and its exit code is preserved verbatim, so a CI pipeline sees
// exactly what the suite reported.
type Runner struct {
	cfg config.RunnerDefinition

	// Stdout and Stderr receive the suite's output. They default to the
	// process's own streams.
	Stdout io.Writer
	Stderr io.Writer
}

// New creates a Runner for the given command definition.
func New(cfg config.RunnerDefinition) *Runner {
	return &Runner{
		cfg:    cfg,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run launches the suite and blocks until it exits or ctx is cancelled.
// A non-zero suite exit is not an error here; it comes back in
// Result.ExitCode. Result.Err is reserved for launch failures such as a
// missing binary.
func (r *Runner) Run(ctx context.Context) Result {
	if len(r.cfg.Command) == 0 {
		return Result{ExitCode: -1, Err: errors.New("no test command configured")}
	}

	cmd := execCommandContext(ctx, r.cfg.Command[0], r.cfg.Command[1:]...)
	cmd.Dir = r.cfg.Dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	// The suite gets its own process group so a cancel kills its children
	// too, not just the top-level command.
	setProcessGroup(cmd)

	cmd.Env = os.Environ()
	for k, v := range r.cfg.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	logging.Info("TestRunner", "Running test suite: %v", r.cfg.Command)
	err := cmd.Run()
	if err == nil {
		return Result{ExitCode: 0}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// The suite ran and failed; pass its verdict through.
		return Result{ExitCode: exitErr.ExitCode()}
	}
	return Result{ExitCode: -1, Err: fmt.Errorf("failed to launch test command %q: %w", r.cfg.Command[0], err)}
}
