package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"regtestctl/internal/config"
	"regtestctl/internal/containerizer"
	"regtestctl/internal/rpc"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the regtest node is running and answering RPC",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			runtime, err := containerizer.NewContainerRuntime(cfg.Node.ContainerRuntime)
			if err != nil {
				return err
			}

			running, err := runtime.IsContainerRunning(cmd.Context(), cfg.Node.ContainerName)
			if err != nil {
				return fmt.Errorf("failed to inspect container %s: %w", cfg.Node.ContainerName, err)
			}

			out := cmd.OutOrStdout()
			if !running {
				fmt.Fprintf(out, "Container %s: not running\n", cfg.Node.ContainerName)
				return nil
			}
			fmt.Fprintf(out, "Container %s: running\n", cfg.Node.ContainerName)

			client := rpc.NewClient(cfg.Node.RPCURL(), cfg.Node.RPCUser, cfg.Node.RPCPassword)
			info, err := client.GetBlockchainInfo(cmd.Context())
			if err != nil {
				fmt.Fprintf(out, "RPC: not ready (%v)\n", err)
				return nil
			}
			fmt.Fprintf(out, "RPC: ready (chain: %s, height: %d)\n", info.Chain, info.Blocks)
			return nil
		},
	}
}
