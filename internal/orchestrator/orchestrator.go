package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"regtestctl/internal/config"
	"regtestctl/internal/provisioner"
	"regtestctl/internal/reporting"
	"regtestctl/internal/rpc"
	"regtestctl/internal/testrunner"
	"regtestctl/pkg/logging"
)

// RunState tracks where in the pipeline a run currently is. Exposed for the
// status surfaces (TUI, status command), not for control flow.
type RunState string

const (
	RunStateIdle          RunState = "Idle"
	RunStateProvisioning  RunState = "Provisioning"
	RunStateAwaitingReady RunState = "AwaitingReady"
	RunStateTesting       RunState = "Testing"
	RunStateDone          RunState = "Done"
)

// Provisioner starts and stops the dependency service. Satisfied by
// *provisioner.NodeProvisioner.
type Provisioner interface {
	Start(ctx context.Context) (*provisioner.ServiceHandle, error)
	Stop(ctx context.Context, handle *provisioner.ServiceHandle) error
}

// TestRunner executes the test suite. Satisfied by *testrunner.Runner.
type TestRunner interface {
	Run(ctx context.Context) testrunner.Result
}

// teardownTimeout bounds cleanup so a wedged container engine cannot hang
// the process on exit.
const teardownTimeout = 60 * time.Second

// Orchestrator drives one full run: provision the node, wait for it to
// answer RPC, execute the test suite, and tear the node down again. The
// test suite's exit code passes through untouched; environment failures map
// to exit 1. Teardown runs on every path, including cancellation, and its
// failures are reported as warnings without changing the verdict.
type Orchestrator struct {
	cfg      config.Config
	prov     Provisioner
	waiter   *Waiter
	runner   TestRunner
	reporter reporting.Reporter

	mu    sync.RWMutex
	state RunState
}

// New wires an Orchestrator from configuration: a container-backed
// provisioner, an RPC readiness probe, and an external command runner.
func New(cfg config.Config, reporter reporting.Reporter) *Orchestrator {
	return NewWithRunner(cfg, testrunner.New(cfg.Runner), reporter)
}

// NewWithRunner wires the default provisioner and probe around a caller
// supplied test runner, such as the built-in scenario.
func NewWithRunner(cfg config.Config, runner TestRunner, reporter reporting.Reporter) *Orchestrator {
	client := rpc.NewClient(cfg.Node.RPCURL(), cfg.Node.RPCUser, cfg.Node.RPCPassword)
	return NewWithComponents(
		cfg,
		provisioner.New(cfg.Node),
		NewRPCProbe(client),
		runner,
		reporter,
	)
}

// NewWithComponents wires an Orchestrator from explicit parts.
func NewWithComponents(cfg config.Config, prov Provisioner, probe ReadinessProbe, runner TestRunner, reporter reporting.Reporter) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		prov:     prov,
		waiter:   NewWaiter(probe, cfg.Readiness, reporter),
		runner:   runner,
		reporter: reporter,
		state:    RunStateIdle,
	}
}

// State returns the current run state.
func (o *Orchestrator) State() RunState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

func (o *Orchestrator) setState(s RunState) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

func (o *Orchestrator) report(update reporting.StageUpdate) {
	if o.reporter != nil {
		o.reporter.Report(update)
	}
}

// Run executes the full pipeline and returns the process exit code: the
// suite's own code when the suite ran, 1 when the environment could not be
// brought up.
func (o *Orchestrator) Run(ctx context.Context) int {
	o.setState(RunStateProvisioning)
	o.report(reporting.StageUpdate{
		Stage:   reporting.StageProvision,
		Status:  reporting.StatusStarted,
		Message: fmt.Sprintf("Starting %s as %s", o.cfg.Node.Image, o.cfg.Node.ContainerName),
	})

	handle, err := o.prov.Start(ctx)
	// Teardown is registered before the start error is inspected; Start
	// returns a usable handle even on failure, and Stop is idempotent. The
	// fresh context lets cleanup proceed when the run context is already
	// cancelled.
	defer func() {
		o.teardown(handle)
		o.setState(RunStateDone)
	}()

	if err != nil {
		o.report(reporting.StageUpdate{
			Stage:   reporting.StageProvision,
			Status:  reporting.StatusFailed,
			Message: "Failed to provision node",
			Err:     err,
		})
		return 1
	}
	o.report(reporting.StageUpdate{
		Stage:   reporting.StageProvision,
		Status:  reporting.StatusSucceeded,
		Message: fmt.Sprintf("Node container started (%s)", handle.ContainerName()),
	})

	o.setState(RunStateAwaitingReady)
	o.report(reporting.StageUpdate{
		Stage:   reporting.StageReadiness,
		Status:  reporting.StatusStarted,
		Message: fmt.Sprintf("Waiting for RPC at %s", o.cfg.Node.RPCURL()),
	})

	attempts, err := o.waiter.Wait(ctx)
	if err != nil {
		o.report(reporting.StageUpdate{
			Stage:   reporting.StageReadiness,
			Status:  reporting.StatusFailed,
			Message: "Node never became ready",
			Err:     err,
		})
		return 1
	}
	o.report(reporting.StageUpdate{
		Stage:   reporting.StageReadiness,
		Status:  reporting.StatusSucceeded,
		Message: fmt.Sprintf("Node ready after %d attempt(s)", attempts),
	})

	o.setState(RunStateTesting)
	o.report(reporting.StageUpdate{
		Stage:   reporting.StageTest,
		Status:  reporting.StatusStarted,
		Message: "Running test suite",
	})

	result := o.runner.Run(ctx)
	switch {
	case result.Err != nil:
		o.report(reporting.StageUpdate{
			Stage:   reporting.StageTest,
			Status:  reporting.StatusFailed,
			Message: "Test suite could not be launched",
			Err:     result.Err,
		})
		return 1
	case result.ExitCode != 0:
		o.report(reporting.StageUpdate{
			Stage:   reporting.StageTest,
			Status:  reporting.StatusFailed,
			Message: fmt.Sprintf("Test suite failed (exit code %d)", result.ExitCode),
		})
	default:
		o.report(reporting.StageUpdate{
			Stage:   reporting.StageTest,
			Status:  reporting.StatusSucceeded,
			Message: "Test suite passed",
		})
	}
	return result.ExitCode
}

// teardown removes the node container and volume. Failures are logged and
// reported as warnings; they never alter the run's exit code.
func (o *Orchestrator) teardown(handle *provisioner.ServiceHandle) {
	o.report(reporting.StageUpdate{
		Stage:   reporting.StageTeardown,
		Status:  reporting.StatusStarted,
		Message: "Tearing down environment",
	})

	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()

	if err := o.prov.Stop(ctx, handle); err != nil {
		logging.Warn("Orchestrator", "Teardown incomplete: %v", err)
		o.report(reporting.StageUpdate{
			Stage:   reporting.StageTeardown,
			Status:  reporting.StatusWarning,
			Message: "Teardown incomplete; resources may need manual removal",
			Err:     err,
		})
		return
	}
	o.report(reporting.StageUpdate{
		Stage:   reporting.StageTeardown,
		Status:  reporting.StatusSucceeded,
		Message: "Environment removed",
	})
}
