package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regtestctl/internal/config"
)

func TestRunCmdFlags(t *testing.T) {
	cmd := newRunCmd()

	require.NoError(t, cmd.ParseFlags([]string{
		"--builtin", "--tui", "--attempts", "5", "--interval", "2s", "--timeout", "10s", "--out", "report.txt",
	}))

	builtin, err := cmd.Flags().GetBool("builtin")
	require.NoError(t, err)
	assert.True(t, builtin)

	attempts, err := cmd.Flags().GetInt("attempts")
	require.NoError(t, err)
	assert.Equal(t, 5, attempts)

	interval, err := cmd.Flags().GetDuration("interval")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, interval)
}

func TestApplyReadinessOverrides(t *testing.T) {
	cfg := config.GetDefaultConfig()
	base := cfg.Readiness

	// Zero-valued flags leave the config alone.
	applyReadinessOverrides(&cfg, &runFlags{})
	assert.Equal(t, base, cfg.Readiness)

	applyReadinessOverrides(&cfg, &runFlags{attempts: 20, interval: 5 * time.Second, timeout: time.Second})
	assert.Equal(t, 20, cfg.Readiness.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Readiness.Interval)
	assert.Equal(t, time.Second, cfg.Readiness.AttemptTimeout)
}

func TestInjectNodeEnvSetsDefaults(t *testing.T) {
	cfg := config.GetDefaultConfig()
	injectNodeEnv(&cfg)

	assert.Equal(t, cfg.Node.RPCURL(), cfg.Runner.Env["BITCOIN_RPC_URL"])
	assert.Equal(t, "alice", cfg.Runner.Env["BITCOIN_RPC_USER"])
	assert.Equal(t, "password", cfg.Runner.Env["BITCOIN_RPC_PASSWORD"])
	assert.Equal(t, "18443", cfg.Runner.Env["BITCOIN_RPC_PORT"])
}

func TestInjectNodeEnvKeepsExplicitValues(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Runner.Env = map[string]string{"BITCOIN_RPC_URL": "http://elsewhere:8332"}
	injectNodeEnv(&cfg)

	assert.Equal(t, "http://elsewhere:8332", cfg.Runner.Env["BITCOIN_RPC_URL"])
	assert.Equal(t, "alice", cfg.Runner.Env["BITCOIN_RPC_USER"])
}
