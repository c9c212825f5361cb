// Package summary builds the daily coordination digest.
//
// One run aggregates the invocation's local calendar day: tasks completed
// and created in the half-open day window, distinct active agents from the
// activity log, and a point-in-time view of open high-priority work. The
// rendered report is upserted into daily_summaries keyed by date, so a
// rerun on the same day replaces that day's row.
package summary

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"muster/internal/logging"
	"muster/internal/store"
)

// listCap bounds how many rows the preview sections name; the rest collapse
// into a remainder count.
const listCap = 10

var titleCaser = cases.Title(language.English, cases.NoLower)

// Result reports one aggregation run.
type Result struct {
	Date           string
	TasksCompleted int
	TasksCreated   int
	ActiveAgents   int
	Report         string
	Success        bool
}

// Aggregator computes and persists daily summaries.
type Aggregator struct {
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time
}

// Option customizes an Aggregator.
type Option func(*Aggregator)

// WithClock overrides the aggregator's time source.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// New builds an Aggregator. A nil logger disables logging.
func New(st *store.Store, logger *slog.Logger, opts ...Option) *Aggregator {
	if logger == nil {
		logger = logging.NewNop()
	}
	a := &Aggregator{
		store:  st,
		logger: logging.WithComponent(logger, "summary"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run aggregates the current local calendar day and upserts its summary row.
func (a *Aggregator) Run(ctx context.Context) (Result, error) {
	now := a.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.Add(24 * time.Hour)
	result := Result{Date: start.Format("2006-01-02")}

	completed, err := a.store.TasksCompletedBetween(ctx, start, end)
	if err != nil {
		return result, fmt.Errorf("tasks completed today: %w", err)
	}
	created, err := a.store.TasksCreatedBetween(ctx, start, end)
	if err != nil {
		return result, fmt.Errorf("tasks created today: %w", err)
	}
	activityCounts, err := a.store.ActivityCountsBetween(ctx, start, end)
	if err != nil {
		return result, fmt.Errorf("activity counts: %w", err)
	}
	// Point-in-time view, independent of the day window.
	openUrgent, err := a.store.OpenHighPriorityTasks(ctx)
	if err != nil {
		return result, fmt.Errorf("open high priority tasks: %w", err)
	}

	result.TasksCompleted = len(completed)
	result.TasksCreated = len(created)
	result.ActiveAgents = len(activityCounts)
	result.Report = renderReport(result, completed, created, activityCounts, openUrgent)

	if _, err := a.store.UpsertDailySummary(ctx, store.DailySummary{
		Date:           result.Date,
		Report:         result.Report,
		TasksCompleted: result.TasksCompleted,
		TasksCreated:   result.TasksCreated,
		ActiveAgents:   result.ActiveAgents,
	}); err != nil {
		return result, fmt.Errorf("persist summary: %w", err)
	}

	result.Success = true
	a.logger.Info("daily summary stored",
		logging.String("date", result.Date),
		logging.Int("tasks_completed", result.TasksCompleted),
		logging.Int("tasks_created", result.TasksCreated),
		logging.Int("active_agents", result.ActiveAgents),
	)
	return result, nil
}

func renderReport(result Result, completed, created []*store.Task, activityCounts map[string]int, openUrgent []*store.Task) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Daily Summary — %s\n\n", result.Date)
	fmt.Fprintf(&b, "- Tasks completed: %d\n", result.TasksCompleted)
	fmt.Fprintf(&b, "- Tasks created: %d\n", result.TasksCreated)
	fmt.Fprintf(&b, "- Active agents: %d\n\n", result.ActiveAgents)

	// The completed list is the day's record and is never capped; the
	// newer-work lists below are previews.
	b.WriteString("## Completed today\n\n")
	writeTaskSection(&b, completed, "Nothing completed today.", 0)

	b.WriteString("\n## New tasks\n\n")
	writeTaskSection(&b, created, "No new tasks today.", listCap)

	b.WriteString("\n## Agent activity\n\n")
	if len(activityCounts) == 0 {
		b.WriteString("No activity recorded today.\n")
	} else {
		names := make([]string, 0, len(activityCounts))
		for name := range activityCounts {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			if activityCounts[names[i]] != activityCounts[names[j]] {
				return activityCounts[names[i]] > activityCounts[names[j]]
			}
			return names[i] < names[j]
		})
		for _, name := range names {
			fmt.Fprintf(&b, "- %s: %d action(s)\n", titleCaser.String(name), activityCounts[name])
		}
	}

	b.WriteString("\n## Open high-priority tasks\n\n")
	writeTaskSection(&b, openUrgent, "No open high-priority tasks.", listCap)

	return b.String()
}

// writeTaskSection renders a task table; a limit of 0 lists everything.
func writeTaskSection(b *strings.Builder, tasks []*store.Task, empty string, limit int) {
	if len(tasks) == 0 {
		b.WriteString(empty + "\n")
		return
	}
	shown := tasks
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"ID", "Priority", "Title", "Assignee"})
	for _, task := range shown {
		assignee := task.AssignedAgent
		if assignee == "" {
			assignee = "-"
		}
		tw.AppendRow(table.Row{task.ID, task.Priority, task.Title, assignee})
	}
	b.WriteString(tw.RenderMarkdown())
	b.WriteString("\n")
	if rest := len(tasks) - len(shown); rest > 0 {
		fmt.Fprintf(b, "...and %d more.\n", rest)
	}
}
