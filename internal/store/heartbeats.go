package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const heartbeatColumns = "id, agent_name, status, tasks_checked, notifications_processed, error_message, created_at"

// AppendHeartbeat records one heartbeat invocation outcome.
func (s *Store) AppendHeartbeat(ctx context.Context, entry HeartbeatEntry) error {
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO heartbeat_log (agent_name, status, tasks_checked, notifications_processed, error_message, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		entry.AgentName,
		entry.Status,
		entry.TasksChecked,
		entry.NotificationsProcessed,
		nullableString(entry.ErrorMessage),
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert heartbeat log: %w", err)
	}
	return nil
}

// RecentHeartbeats returns an agent's latest heartbeat log rows, newest
// first.
func (s *Store) RecentHeartbeats(ctx context.Context, agentName string, limit int) ([]*HeartbeatEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+heartbeatColumns+` FROM heartbeat_log
         WHERE agent_name = ? ORDER BY created_at DESC LIMIT ?`,
		agentName,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent heartbeats: %w", err)
	}
	defer rows.Close()

	var entries []*HeartbeatEntry
	for rows.Next() {
		entry, err := scanHeartbeat(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanHeartbeat(sc scanner) (*HeartbeatEntry, error) {
	var (
		id            int64
		agentName     string
		statusStr     string
		tasksChecked  int
		notifications int
		errorMessage  sql.NullString
		createdRaw    string
	)
	if err := sc.Scan(&id, &agentName, &statusStr, &tasksChecked, &notifications, &errorMessage, &createdRaw); err != nil {
		return nil, err
	}

	entry := &HeartbeatEntry{
		ID:                     id,
		AgentName:              agentName,
		Status:                 HeartbeatStatus(statusStr),
		TasksChecked:           tasksChecked,
		NotificationsProcessed: notifications,
		ErrorMessage:           errorMessage.String,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		entry.CreatedAt = created
	}
	return entry, nil
}
