package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const taskColumns = "id, title, description, status, priority, assigned_agent, created_by, due_date, completed_at, metadata, created_at, updated_at"

// NewTask carries the caller-supplied fields for task creation.
type NewTask struct {
	Title         string
	Description   string
	Priority      Priority
	AssignedAgent string
	CreatedBy     string
	DueDate       *time.Time
	Metadata      string
}

// CreateTask inserts a pending task.
func (s *Store) CreateTask(ctx context.Context, spec NewTask) (*Task, error) {
	if spec.Title == "" {
		return nil, errors.New("task title is required")
	}
	priority := spec.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if _, ok := priorities[priority]; !ok {
		return nil, fmt.Errorf("unknown priority %q", priority)
	}

	timestamp := formatTime(time.Now())
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO tasks (
            title, description, status, priority, assigned_agent,
            created_by, due_date, metadata, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		spec.Title,
		nullableString(spec.Description),
		TaskPending,
		priority,
		nullableString(spec.AssignedAgent),
		spec.CreatedBy,
		nullableTime(spec.DueDate),
		nullableString(spec.Metadata),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.TaskByID(ctx, id)
}

// TaskByID fetches a task by identifier. Returns nil when absent.
func (s *Store) TaskByID(ctx context.Context, id int64) (*Task, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`,
		id,
	)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// UpdateTaskStatus transitions a task. The completion timestamp is sticky:
// it is written on the first transition into completed and never changed by
// later edits, including a second completion after reopening.
func (s *Store) UpdateTaskStatus(ctx context.Context, id int64, status TaskStatus) (*Task, error) {
	if _, ok := taskStatuses[status]; !ok {
		return nil, fmt.Errorf("unknown task status %q", status)
	}

	now := formatTime(time.Now())
	res, err := s.execWithRetry(
		ctx,
		`UPDATE tasks
         SET status = ?,
             completed_at = CASE
                 WHEN ? = 'completed' AND completed_at IS NULL THEN ?
                 ELSE completed_at
             END,
             updated_at = ?
         WHERE id = ?`,
		status,
		status,
		now,
		now,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("task %d not found", id)
	}
	return s.TaskByID(ctx, id)
}

// AssignTask sets or clears the task's assignee. An empty name clears it.
func (s *Store) AssignTask(ctx context.Context, id int64, agentName string) (*Task, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE tasks SET assigned_agent = ?, updated_at = ? WHERE id = ?`,
		nullableString(agentName),
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("assign task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("task %d not found", id)
	}
	return s.TaskByID(ctx, id)
}

// WorkQueue returns an agent's open tasks, most urgent first and oldest
// first within a priority band. This ordering is a contract: heartbeats and
// snapshots always present work in this order.
func (s *Store) WorkQueue(ctx context.Context, agentName string) ([]*Task, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+taskColumns+` FROM tasks
         WHERE assigned_agent = ? AND status IN (?, ?)
         ORDER BY `+priorityRank+`, created_at`,
		agentName,
		TaskPending,
		TaskInProgress,
	)
	if err != nil {
		return nil, fmt.Errorf("work queue: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// OpenTasks returns every non-terminal task, most urgent first.
func (s *Store) OpenTasks(ctx context.Context) ([]*Task, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+taskColumns+` FROM tasks
         WHERE status NOT IN (?, ?)
         ORDER BY `+priorityRank+`, created_at`,
		TaskCompleted,
		TaskCancelled,
	)
	if err != nil {
		return nil, fmt.Errorf("open tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// OverdueTasks returns assigned, non-terminal tasks whose due date has
// passed.
func (s *Store) OverdueTasks(ctx context.Context, now time.Time) ([]*Task, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+taskColumns+` FROM tasks
         WHERE due_date IS NOT NULL AND due_date < ?
           AND status NOT IN (?, ?)
           AND assigned_agent IS NOT NULL
         ORDER BY due_date`,
		formatTime(now),
		TaskCompleted,
		TaskCancelled,
	)
	if err != nil {
		return nil, fmt.Errorf("overdue tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// OpenHighPriorityTasks returns the current non-terminal high and critical
// tasks, most urgent first. This is a point-in-time snapshot independent of
// any day window.
func (s *Store) OpenHighPriorityTasks(ctx context.Context) ([]*Task, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+taskColumns+` FROM tasks
         WHERE status NOT IN (?, ?) AND priority IN (?, ?)
         ORDER BY `+priorityRank+`, created_at`,
		TaskCompleted,
		TaskCancelled,
		PriorityHigh,
		PriorityCritical,
	)
	if err != nil {
		return nil, fmt.Errorf("open high priority tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// TasksCompletedBetween returns tasks whose completion timestamp falls in
// the half-open window [start, end).
func (s *Store) TasksCompletedBetween(ctx context.Context, start, end time.Time) ([]*Task, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+taskColumns+` FROM tasks
         WHERE completed_at IS NOT NULL AND completed_at >= ? AND completed_at < ?
         ORDER BY completed_at`,
		formatTime(start),
		formatTime(end),
	)
	if err != nil {
		return nil, fmt.Errorf("tasks completed between: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// TasksCreatedBetween returns tasks created in the half-open window
// [start, end).
func (s *Store) TasksCreatedBetween(ctx context.Context, start, end time.Time) ([]*Task, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+taskColumns+` FROM tasks
         WHERE created_at >= ? AND created_at < ?
         ORDER BY created_at`,
		formatTime(start),
		formatTime(end),
	)
	if err != nil {
		return nil, fmt.Errorf("tasks created between: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

func collectTasks(rows *sql.Rows) ([]*Task, error) {
	var tasks []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func scanTask(sc scanner) (*Task, error) {
	var (
		id           int64
		title        string
		description  sql.NullString
		statusStr    string
		priorityStr  string
		assigned     sql.NullString
		createdBy    string
		dueRaw       sql.NullString
		completedRaw sql.NullString
		metadata     sql.NullString
		createdRaw   string
		updatedRaw   string
	)
	if err := sc.Scan(
		&id,
		&title,
		&description,
		&statusStr,
		&priorityStr,
		&assigned,
		&createdBy,
		&dueRaw,
		&completedRaw,
		&metadata,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	task := &Task{
		ID:            id,
		Title:         title,
		Description:   description.String,
		Status:        TaskStatus(statusStr),
		Priority:      Priority(priorityStr),
		AssignedAgent: assigned.String,
		CreatedBy:     createdBy,
		Metadata:      metadata.String,
	}
	if dueRaw.Valid {
		if due, err := parseTimeString(dueRaw.String); err == nil {
			task.DueDate = &due
		}
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			task.CompletedAt = &completed
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		task.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		task.UpdatedAt = updated
	}
	return task, nil
}
