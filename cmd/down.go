package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"regtestctl/internal/config"
	"regtestctl/internal/provisioner"
)

func newDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Remove the regtest node and its data volume",
		Long: `Down removes the node container and its data volume. It is safe to run
at any time, including when nothing is running; already-removed resources
are treated as success.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			prov := provisioner.New(cfg.Node)
			if err := prov.Stop(cmd.Context(), nil); err != nil {
				return fmt.Errorf("teardown incomplete: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Environment removed")
			return nil
		},
	}
}
