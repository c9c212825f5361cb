package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"muster/internal/notify"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run one notification fan-out pass",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			st, err := ctx.openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			result, err := notify.New(st, logger, notify.OptionsFromConfig(cfg)).Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("notification pass: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %d notification(s)\n", result.Created)
			return nil
		},
	}
}
