package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLILoggingWritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelDebug, &buf)

	Info("TestSubsystem", "hello %s", "world")

	out := buf.String()
	assert.Contains(t, out, "hello world")
	assert.Contains(t, out, "TestSubsystem")
}

func TestCLILoggingFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelWarn, &buf)

	Debug("TestSubsystem", "invisible")
	Info("TestSubsystem", "also invisible")
	Warn("TestSubsystem", "visible")

	out := buf.String()
	assert.NotContains(t, out, "invisible")
	assert.Contains(t, out, "visible")
}

func TestErrorIncludesErrorDetail(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelDebug, &buf)

	Error("TestSubsystem", errors.New("boom"), "something failed")

	out := buf.String()
	assert.Contains(t, out, "something failed")
	assert.Contains(t, out, "boom")
}

func TestTUIModeSendsEntriesToChannel(t *testing.T) {
	ch := InitForTUI(LevelDebug)
	defer CloseTUIChannel()

	Warn("Orchestrator", "attempt %d failed", 3)

	entry := <-ch
	require.Equal(t, LevelWarn, entry.Level)
	assert.Equal(t, "Orchestrator", entry.Subsystem)
	assert.Equal(t, "attempt 3 failed", entry.Message)
	assert.False(t, entry.Timestamp.IsZero())
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
}
