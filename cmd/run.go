package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"regtestctl/internal/config"
	"regtestctl/internal/orchestrator"
	"regtestctl/internal/reporting"
	"regtestctl/internal/rpc"
	"regtestctl/internal/scenario"
	"regtestctl/internal/tui"
)

// For mocking in tests
var osExit = os.Exit

type runFlags struct {
	builtin  bool
	useTUI   bool
	attempts int
	interval time.Duration
	timeout  time.Duration
	outPath  string
}

func newRunCmd() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [flags] [-- test-command args...]",
		Short: "Provision a regtest node, run a test suite, tear down",
		Long: `Run provisions a fresh bitcoind regtest container, waits until its
JSON-RPC interface answers, executes the test suite, and removes the
container and its data volume again regardless of the outcome.

The test command can be given after --, configured in a config file, or
replaced by the built-in smoke scenario via --builtin. Its exit code
becomes regtestctl's exit code; environment failures exit 1.

The suite's process receives the node coordinates via BITCOIN_RPC_URL,
BITCOIN_RPC_USER, and BITCOIN_RPC_PASSWORD.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, args, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.builtin, "builtin", false, "run the built-in wallet smoke scenario instead of an external command")
	cmd.Flags().BoolVar(&flags.useTUI, "tui", false, "show an interactive status display")
	cmd.Flags().IntVar(&flags.attempts, "attempts", 0, "override the readiness probe attempt budget")
	cmd.Flags().DurationVar(&flags.interval, "interval", 0, "override the delay between readiness probes")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "override the per-probe timeout")
	cmd.Flags().StringVar(&flags.outPath, "out", "out.txt", "report path for the built-in scenario")

	return cmd
}

func runPipeline(cmd *cobra.Command, args []string, flags *runFlags) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	applyReadinessOverrides(&cfg, flags)

	if len(args) > 0 {
		cfg.Runner.Command = args
	}

	var runner orchestrator.TestRunner
	if flags.builtin {
		client := rpc.NewClient(cfg.Node.RPCURL(), cfg.Node.RPCUser, cfg.Node.RPCPassword)
		runner = scenario.NewRunner(scenario.NewSmoke(client, flags.outPath))
	} else {
		if len(cfg.Runner.Command) == 0 {
			return errors.New("no test command given; pass one after --, configure runner.command, or use --builtin")
		}
		injectNodeEnv(&cfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var code int
	if flags.useTUI {
		code, err = tui.Run(ctx, cfg, runner, rootCmd.Version)
		if err != nil {
			return err
		}
	} else {
		reporter := reporting.NewConsoleReporter()
		var orch *orchestrator.Orchestrator
		if runner != nil {
			orch = orchestrator.NewWithRunner(cfg, runner, reporter)
		} else {
			orch = orchestrator.New(cfg, reporter)
		}
		code = orch.Run(ctx)
	}

	if code != 0 {
		osExit(code)
	}
	return nil
}

func applyReadinessOverrides(cfg *config.Config, flags *runFlags) {
	if flags.attempts > 0 {
		cfg.Readiness.MaxAttempts = flags.attempts
	}
	if flags.interval > 0 {
		cfg.Readiness.Interval = flags.interval
	}
	if flags.timeout > 0 {
		cfg.Readiness.AttemptTimeout = flags.timeout
	}
}

// injectNodeEnv hands the node coordinates to the external suite without
// clobbering values the user configured explicitly.
func injectNodeEnv(cfg *config.Config) {
	if cfg.Runner.Env == nil {
		cfg.Runner.Env = map[string]string{}
	}
	setDefault := func(k, v string) {
		if _, ok := cfg.Runner.Env[k]; !ok {
			cfg.Runner.Env[k] = v
		}
	}
	setDefault("BITCOIN_RPC_URL", cfg.Node.RPCURL())
	setDefault("BITCOIN_RPC_USER", cfg.Node.RPCUser)
	setDefault("BITCOIN_RPC_PASSWORD", cfg.Node.RPCPassword)
	setDefault("BITCOIN_RPC_PORT", fmt.Sprintf("%d", cfg.Node.RPCPort))
}
