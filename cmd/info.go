package cmd

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"regtestctl/internal/config"
)

func newInfoCmd() *cobra.Command {
	var copyURL bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print the node's connection details",
		Long: `Info prints the RPC endpoint, credentials, and container names the
current configuration resolves to. With --copy the RPC URL is placed on
the clipboard for pasting into a wallet or test harness.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "RPC URL:      %s\n", cfg.Node.RPCURL())
			fmt.Fprintf(out, "RPC user:     %s\n", cfg.Node.RPCUser)
			fmt.Fprintf(out, "RPC password: %s\n", cfg.Node.RPCPassword)
			fmt.Fprintf(out, "Image:        %s\n", cfg.Node.Image)
			fmt.Fprintf(out, "Container:    %s\n", cfg.Node.ContainerName)
			fmt.Fprintf(out, "Volume:       %s\n", cfg.Node.VolumeName)
			if dir, err := config.GetUserConfigDir(); err == nil {
				fmt.Fprintf(out, "Config dir:   %s\n", dir)
			}

			if copyURL {
				if err := clipboard.WriteAll(cfg.Node.RPCURL()); err != nil {
					return fmt.Errorf("failed to copy RPC URL to clipboard: %w", err)
				}
				fmt.Fprintln(out, "RPC URL copied to clipboard")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&copyURL, "copy", "c", false, "copy the RPC URL to the clipboard")
	return cmd
}
