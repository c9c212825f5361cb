package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Subscribe records an agent's interest in an entity. Returns false when the
// identical subscription already exists.
func (s *Store) Subscribe(ctx context.Context, agentName, targetType string, targetID int64) (bool, error) {
	if agentName == "" {
		return false, errors.New("agent name is required")
	}
	if targetType == "" {
		return false, errors.New("target type is required")
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO subscriptions (agent_name, target_type, target_id, created_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(agent_name, target_type, target_id) DO NOTHING`,
		agentName,
		targetType,
		targetID,
		formatTime(time.Now()),
	)
	if err != nil {
		return false, fmt.Errorf("insert subscription: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Unsubscribe removes a subscription. Returns false when none existed.
func (s *Store) Unsubscribe(ctx context.Context, agentName, targetType string, targetID int64) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM subscriptions WHERE agent_name = ? AND target_type = ? AND target_id = ?`,
		agentName,
		targetType,
		targetID,
	)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// SubscribersFor returns the agents subscribed to an entity, ordered by name.
func (s *Store) SubscribersFor(ctx context.Context, targetType string, targetID int64) ([]string, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT agent_name FROM subscriptions
         WHERE target_type = ? AND target_id = ?
         ORDER BY agent_name COLLATE NOCASE`,
		targetType,
		targetID,
	)
	if err != nil {
		return nil, fmt.Errorf("subscribers for: %w", err)
	}
	defer rows.Close()

	var subscribers []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		subscribers = append(subscribers, name)
	}
	return subscribers, rows.Err()
}
