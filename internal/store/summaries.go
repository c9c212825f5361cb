package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const summaryColumns = "id, date, report, tasks_completed, tasks_created, active_agents, created_at, updated_at"

// UpsertDailySummary inserts or replaces the summary row for its date.
// Re-running the aggregator on the same day overwrites the earlier row's
// report and counts rather than duplicating it.
func (s *Store) UpsertDailySummary(ctx context.Context, summary DailySummary) (*DailySummary, error) {
	if summary.Date == "" {
		return nil, errors.New("summary date is required")
	}

	now := formatTime(time.Now())
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO daily_summaries (date, report, tasks_completed, tasks_created, active_agents, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?, ?, ?)
             ON CONFLICT(date) DO UPDATE SET
                 report = excluded.report,
                 tasks_completed = excluded.tasks_completed,
                 tasks_created = excluded.tasks_created,
                 active_agents = excluded.active_agents,
                 updated_at = excluded.updated_at`,
			summary.Date,
			summary.Report,
			summary.TasksCompleted,
			summary.TasksCreated,
			summary.ActiveAgents,
			now,
			now,
		)
		if err != nil {
			return fmt.Errorf("upsert daily summary: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.DailySummaryByDate(ctx, summary.Date)
}

// DailySummaryByDate fetches the summary for a calendar date (YYYY-MM-DD).
// Returns nil when absent.
func (s *Store) DailySummaryByDate(ctx context.Context, date string) (*DailySummary, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+summaryColumns+` FROM daily_summaries WHERE date = ?`,
		date,
	)
	summary, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get daily summary: %w", err)
	}
	return summary, nil
}

func scanSummary(sc scanner) (*DailySummary, error) {
	var (
		id             int64
		date           string
		report         string
		tasksCompleted int
		tasksCreated   int
		activeAgents   int
		createdRaw     string
		updatedRaw     string
	)
	if err := sc.Scan(&id, &date, &report, &tasksCompleted, &tasksCreated, &activeAgents, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	summary := &DailySummary{
		ID:             id,
		Date:           date,
		Report:         report,
		TasksCompleted: tasksCompleted,
		TasksCreated:   tasksCreated,
		ActiveAgents:   activeAgents,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		summary.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		summary.UpdatedAt = updated
	}
	return summary, nil
}
