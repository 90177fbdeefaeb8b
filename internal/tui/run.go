package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"regtestctl/internal/config"
	"regtestctl/internal/orchestrator"
	"regtestctl/internal/reporting"
	"regtestctl/pkg/logging"
)

// Run drives a full pipeline run behind the interactive display and returns
// the run's exit code. The orchestrator runs on its own goroutine and feeds
// the display through a TUIReporter; aborting the display cancels the run
// context, and Run still waits for teardown to complete before returning.
func Run(ctx context.Context, cfg config.Config, runner orchestrator.TestRunner, version string) (int, error) {
	logCh := logging.InitForTUI(logging.LevelInfo)
	defer logging.CloseTUIChannel()

	reporter := reporting.NewTUIReporter(nil)
	var orch *orchestrator.Orchestrator
	if runner != nil {
		orch = orchestrator.NewWithRunner(cfg, runner, reporter)
	} else {
		orch = orchestrator.New(cfg, reporter)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newModel(version, logCh))
	reporter.SetSender(p)

	done := make(chan int, 1)
	go func() {
		code := orch.Run(runCtx)
		done <- code
		p.Send(runFinishedMsg{exitCode: code})
	}()

	finalModel, err := p.Run()
	cancel()
	// Wait for the pipeline so teardown finishes even after an abort.
	code := <-done

	if err != nil {
		return 1, fmt.Errorf("display error: %w", err)
	}
	m, ok := finalModel.(model)
	if !ok {
		return 1, fmt.Errorf("unexpected final model type %T", finalModel)
	}
	if m.quitting && !m.done {
		return 130, nil
	}
	return code, nil
}
