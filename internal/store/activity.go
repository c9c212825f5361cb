package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const activityColumns = "id, agent_name, action_type, entity_type, entity_id, description, created_at"

// RecordActivity appends an audit record. Activity rows are never mutated or
// deleted.
func (s *Store) RecordActivity(ctx context.Context, agentName, actionType, entityType string, entityID int64, description string) (*Activity, error) {
	if agentName == "" {
		return nil, errors.New("agent name is required")
	}
	if actionType == "" {
		return nil, errors.New("action type is required")
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO activity_log (agent_name, action_type, entity_type, entity_id, description, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		agentName,
		actionType,
		entityType,
		entityID,
		description,
		formatTime(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+activityColumns+` FROM activity_log WHERE id = ?`,
		id,
	)
	activity, err := scanActivity(row)
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	return activity, nil
}

// ActivitiesSince returns activity created at or after the cutoff, oldest
// first. This is the trailing-window input to the subscription pass.
func (s *Store) ActivitiesSince(ctx context.Context, cutoff time.Time) ([]*Activity, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+activityColumns+` FROM activity_log WHERE created_at >= ? ORDER BY created_at`,
		formatTime(cutoff),
	)
	if err != nil {
		return nil, fmt.Errorf("activities since: %w", err)
	}
	defer rows.Close()

	var activities []*Activity
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}
	return activities, rows.Err()
}

// ActivityCountsBetween returns per-agent activity counts over the half-open
// window [start, end).
func (s *Store) ActivityCountsBetween(ctx context.Context, start, end time.Time) (map[string]int, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT agent_name, COUNT(1) FROM activity_log
         WHERE created_at >= ? AND created_at < ?
         GROUP BY agent_name`,
		formatTime(start),
		formatTime(end),
	)
	if err != nil {
		return nil, fmt.Errorf("activity counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, err
		}
		counts[name] = count
	}
	return counts, rows.Err()
}

func scanActivity(sc scanner) (*Activity, error) {
	var (
		id          int64
		agentName   string
		actionType  string
		entityType  string
		entityID    int64
		description string
		createdRaw  string
	)
	if err := sc.Scan(&id, &agentName, &actionType, &entityType, &entityID, &description, &createdRaw); err != nil {
		return nil, err
	}

	activity := &Activity{
		ID:          id,
		AgentName:   agentName,
		ActionType:  actionType,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: description,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		activity.CreatedAt = created
	}
	return activity, nil
}
