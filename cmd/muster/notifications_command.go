package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newNotificationsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "notifications <agent>",
		Short: "List an agent's unread notifications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			notifications, err := st.UnreadNotifications(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("list notifications: %w", err)
			}
			if len(notifications) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No unread notifications.")
				return nil
			}

			rows := make([][]string, 0, len(notifications))
			for _, n := range notifications {
				rows = append(rows, []string{
					string(n.Type),
					n.Title,
					n.Message,
					n.CreatedAt.UTC().Format(time.RFC3339),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"TYPE", "TITLE", "MESSAGE", "RECEIVED"},
				rows,
				nil,
			))
			return nil
		},
	}
}
