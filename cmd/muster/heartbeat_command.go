package main

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"muster/internal/heartbeat"
	"muster/internal/textutil"
)

func newHeartbeatCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "heartbeat <agent>",
		Short: "Run one heartbeat cycle for an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			agentName := args[0]

			// Heartbeats for one agent must not overlap; concurrent
			// heartbeats for different agents are fine.
			lockPath := filepath.Join(cfg.Paths.LogDir, "heartbeat-"+textutil.SanitizeToken(agentName)+".lock")
			lock := flock.New(lockPath)
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire heartbeat lock: %w", err)
			}
			if !ok {
				return fmt.Errorf("a heartbeat for %s is already running", agentName)
			}
			defer func() {
				_ = lock.Unlock()
			}()

			logger, err := ctx.newLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			st, err := ctx.openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			result, err := heartbeat.New(cfg, st, logger).Run(cmd.Context(), agentName)
			if err != nil {
				return fmt.Errorf("heartbeat %s: %w", agentName, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Heartbeat for %s: %d task(s), %d notification(s)\n",
				result.Agent, result.TasksChecked, result.NotificationsProcessed)
			return nil
		},
	}
}
