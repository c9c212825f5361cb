package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newSubscribeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "subscribe <agent> <entity-type> <entity-id>",
		Short: "Subscribe an agent to an entity's activity",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("parse entity id: %w", err)
			}

			st, err := ctx.openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			created, err := st.Subscribe(cmd.Context(), args[0], args[1], id)
			if err != nil {
				return fmt.Errorf("subscribe: %w", err)
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "%s now follows %s #%d\n", args[0], args[1], id)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already follows %s #%d\n", args[0], args[1], id)
			}
			return nil
		},
	}
}
