package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show store health diagnostics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			health, err := st.CheckHealth(cmd.Context())
			if err != nil {
				return fmt.Errorf("check health: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Store: %s\n", health.DBPath)
			fmt.Fprintf(out, "Exists: %s\n", yesNo(health.DatabaseExists))
			fmt.Fprintf(out, "Integrity: %s\n", yesNo(health.IntegrityCheck))
			fmt.Fprintf(out, "Agents: %d\n", health.Agents)
			fmt.Fprintf(out, "Tasks: %d\n", health.Tasks)
			fmt.Fprintf(out, "Messages: %d\n", health.Messages)
			fmt.Fprintf(out, "Notifications: %d\n", health.Notifications)
			if health.Error != "" {
				fmt.Fprintf(out, "Error: %s\n", health.Error)
			}
			return nil
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
