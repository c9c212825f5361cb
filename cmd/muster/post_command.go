package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"muster/internal/textutil"
)

func newPostCommand(ctx *commandContext) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "post <thread> <content>",
		Short: "Post a message to a thread",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(from) == "" {
				return fmt.Errorf("--from is required")
			}

			st, err := ctx.openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			msg, err := st.CreateMessage(cmd.Context(), args[0], from, args[1])
			if err != nil {
				return fmt.Errorf("post message: %w", err)
			}
			if _, err := st.RecordActivity(cmd.Context(), from, "message_posted", "message", msg.ID,
				textutil.Truncate(msg.Content, 120)); err != nil {
				return fmt.Errorf("record activity: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Posted message %d to %s\n", msg.ID, msg.ThreadID)
			if mentions := textutil.Mentions(msg.Content); len(mentions) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Mentions: %s\n", strings.Join(mentions, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Agent posting the message")
	return cmd
}
