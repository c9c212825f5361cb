package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"muster/internal/store"
)

func newTaskCommand(ctx *commandContext) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}

	taskCmd.AddCommand(newTaskAddCommand(ctx))
	taskCmd.AddCommand(newTaskListCommand(ctx))
	taskCmd.AddCommand(newTaskDoneCommand(ctx))
	taskCmd.AddCommand(newTaskAssignCommand(ctx))

	return taskCmd
}

func newTaskAddCommand(ctx *commandContext) *cobra.Command {
	var (
		description string
		priority    string
		assignee    string
		createdBy   string
		due         string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prio, ok := store.ParsePriority(priority)
			if !ok {
				return fmt.Errorf("unknown priority %q", priority)
			}
			spec := store.NewTask{
				Title:         strings.TrimSpace(args[0]),
				Description:   description,
				Priority:      prio,
				AssignedAgent: assignee,
				CreatedBy:     createdBy,
			}
			if due != "" {
				dueDate, err := time.ParseInLocation("2006-01-02", due, time.Local)
				if err != nil {
					return fmt.Errorf("parse due date: %w", err)
				}
				spec.DueDate = &dueDate
			}

			st, err := ctx.openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			task, err := st.CreateTask(cmd.Context(), spec)
			if err != nil {
				return fmt.Errorf("create task: %w", err)
			}
			if createdBy != "" {
				if _, err := st.RecordActivity(cmd.Context(), createdBy, "task_created", "task", task.ID, task.Title); err != nil {
					return fmt.Errorf("record activity: %w", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %d: %s (%s)\n", task.ID, task.Title, task.Priority)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Task description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "medium", "Priority: low, medium, high, critical")
	cmd.Flags().StringVarP(&assignee, "assign", "a", "", "Agent to assign the task to")
	cmd.Flags().StringVar(&createdBy, "by", "", "Agent creating the task")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	return cmd
}

func newTaskListCommand(ctx *commandContext) *cobra.Command {
	var agentName string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			var tasks []*store.Task
			if agentName != "" {
				tasks, err = st.WorkQueue(cmd.Context(), agentName)
			} else {
				tasks, err = st.OpenTasks(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("list tasks: %w", err)
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No open tasks.")
				return nil
			}

			rows := make([][]string, 0, len(tasks))
			for _, task := range tasks {
				assignee := task.AssignedAgent
				if assignee == "" {
					assignee = "-"
				}
				due := "-"
				if task.DueDate != nil {
					due = task.DueDate.UTC().Format("2006-01-02")
				}
				rows = append(rows, []string{
					strconv.FormatInt(task.ID, 10),
					string(task.Priority),
					string(task.Status),
					task.Title,
					assignee,
					due,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "PRIORITY", "STATUS", "TITLE", "ASSIGNEE", "DUE"},
				rows,
				[]columnAlignment{alignRight},
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&agentName, "agent", "a", "", "Show one agent's work queue")
	return cmd
}

func newTaskDoneCommand(ctx *commandContext) *cobra.Command {
	var by string

	cmd := &cobra.Command{
		Use:   "done <task-id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("parse task id: %w", err)
			}

			st, err := ctx.openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			task, err := st.UpdateTaskStatus(cmd.Context(), id, store.TaskCompleted)
			if err != nil {
				return fmt.Errorf("complete task: %w", err)
			}
			// Subscribers learn about the completion through this row.
			actor := by
			if actor == "" {
				actor = task.AssignedAgent
			}
			if actor != "" {
				if _, err := st.RecordActivity(cmd.Context(), actor, "task_completed", "task", task.ID, task.Title); err != nil {
					return fmt.Errorf("record activity: %w", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d completed at %s\n",
				task.ID, task.CompletedAt.UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", "", "Agent completing the task (defaults to the assignee)")
	return cmd
}

func newTaskAssignCommand(ctx *commandContext) *cobra.Command {
	var by string

	cmd := &cobra.Command{
		Use:   "assign <task-id> <agent>",
		Short: "Assign a task to an agent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("parse task id: %w", err)
			}

			st, err := ctx.openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			task, err := st.AssignTask(cmd.Context(), id, args[1])
			if err != nil {
				return fmt.Errorf("assign task: %w", err)
			}
			actor := by
			if actor == "" {
				actor = task.AssignedAgent
			}
			if actor != "" {
				description := fmt.Sprintf("assigned to %s", task.AssignedAgent)
				if _, err := st.RecordActivity(cmd.Context(), actor, "task_assigned", "task", task.ID, description); err != nil {
					return fmt.Errorf("record activity: %w", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d assigned to %s\n", task.ID, task.AssignedAgent)
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", "", "Agent making the assignment (defaults to the assignee)")
	return cmd
}
