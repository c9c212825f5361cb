package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"muster/internal/summary"
)

func newSummarizeCommand(ctx *commandContext) *cobra.Command {
	var printReport bool

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Aggregate today's coordination activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.newLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			st, err := ctx.openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			result, err := summary.New(st, logger).Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("summarize: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Summary for %s: %d completed, %d created, %d active agent(s)\n",
				result.Date, result.TasksCompleted, result.TasksCreated, result.ActiveAgents)
			if printReport {
				fmt.Fprintln(out)
				fmt.Fprint(out, result.Report)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&printReport, "report", false, "Print the full rendered report")
	return cmd
}
