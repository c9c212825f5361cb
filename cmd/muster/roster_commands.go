package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newRosterCommand(ctx *commandContext) *cobra.Command {
	rosterCmd := &cobra.Command{
		Use:   "roster",
		Short: "Manage the agent roster",
	}

	rosterCmd.AddCommand(newRosterInitCommand(ctx))
	rosterCmd.AddCommand(newRosterListCommand(ctx))

	return rosterCmd
}

func newRosterInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Register the configured roster in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			for _, agent := range cfg.Roster.Agents {
				if _, err := st.EnsureAgent(cmd.Context(), agent.Name, agent.Role); err != nil {
					return fmt.Errorf("register agent %s: %w", agent.Name, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Roster ready: %d agent(s), coordinator %s\n",
				len(cfg.Roster.Agents), cfg.Roster.Coordinator)
			return nil
		},
	}
}

func newRosterListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			agents, err := st.ListAgents(cmd.Context())
			if err != nil {
				return fmt.Errorf("list agents: %w", err)
			}
			if len(agents) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No agents registered. Run `muster roster init` first.")
				return nil
			}

			rows := make([][]string, 0, len(agents))
			for _, agent := range agents {
				heartbeat := "never"
				if agent.LastHeartbeat != nil {
					heartbeat = agent.LastHeartbeat.UTC().Format(time.RFC3339)
				}
				rows = append(rows, []string{agent.Name, agent.Role, string(agent.Status), heartbeat})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"NAME", "ROLE", "STATUS", "LAST HEARTBEAT"},
				rows,
				nil,
			))
			return nil
		},
	}
}
