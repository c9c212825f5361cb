package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const messageColumns = "id, thread_id, agent_name, content, created_at"

// CreateMessage appends an immutable message to a thread.
func (s *Store) CreateMessage(ctx context.Context, threadID, agentName, content string) (*Message, error) {
	if threadID == "" {
		return nil, errors.New("thread id is required")
	}
	if agentName == "" {
		return nil, errors.New("author is required")
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO messages (thread_id, agent_name, content, created_at) VALUES (?, ?, ?, ?)`,
		threadID,
		agentName,
		content,
		formatTime(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.MessageByID(ctx, id)
}

// MessageByID fetches a message by identifier. Returns nil when absent.
func (s *Store) MessageByID(ctx context.Context, id int64) (*Message, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+messageColumns+` FROM messages WHERE id = ?`,
		id,
	)
	message, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return message, nil
}

// MessagesSince returns messages created at or after the cutoff, oldest
// first. This is the trailing-window input to the mention pass.
func (s *Store) MessagesSince(ctx context.Context, cutoff time.Time) ([]*Message, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+messageColumns+` FROM messages WHERE created_at >= ? ORDER BY created_at`,
		formatTime(cutoff),
	)
	if err != nil {
		return nil, fmt.Errorf("messages since: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}

func scanMessage(sc scanner) (*Message, error) {
	var (
		id         int64
		threadID   string
		agentName  string
		content    string
		createdRaw string
	)
	if err := sc.Scan(&id, &threadID, &agentName, &content, &createdRaw); err != nil {
		return nil, err
	}

	message := &Message{
		ID:        id,
		ThreadID:  threadID,
		AgentName: agentName,
		Content:   content,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		message.CreatedAt = created
	}
	return message, nil
}
