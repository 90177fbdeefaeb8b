package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"regtestctl/internal/config"
	"regtestctl/internal/orchestrator"
	"regtestctl/internal/provisioner"
	"regtestctl/internal/reporting"
	"regtestctl/internal/rpc"
)

func newUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Start a regtest node and leave it running",
		Long: `Up provisions the bitcoind regtest container and waits until its RPC
interface answers, then returns while the node keeps running. Useful for
interactive work; remove the node again with 'regtestctl down'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reporter := reporting.NewConsoleReporter()
			prov := provisioner.New(cfg.Node)

			handle, err := prov.Start(ctx)
			if err != nil {
				// A half-created environment is torn down right away; up either
				// delivers a working node or leaves nothing behind.
				_ = prov.Stop(ctx, handle)
				return err
			}

			client := rpc.NewClient(cfg.Node.RPCURL(), cfg.Node.RPCUser, cfg.Node.RPCPassword)
			waiter := orchestrator.NewWaiter(orchestrator.NewRPCProbe(client), cfg.Readiness, reporter)
			attempts, err := waiter.Wait(ctx)
			if err != nil {
				_ = prov.Stop(ctx, handle)
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Node ready after %d attempt(s)\n", attempts)
			fmt.Fprintf(cmd.OutOrStdout(), "RPC endpoint: %s (user: %s)\n", cfg.Node.RPCURL(), cfg.Node.RPCUser)
			return nil
		},
	}
}
