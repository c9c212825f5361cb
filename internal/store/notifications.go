package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const notificationColumns = "id, target_agent, type, title, message, entity_type, entity_id, is_read, created_at"

// NewNotification carries the fields for notification creation.
type NewNotification struct {
	TargetAgent string
	Type        NotificationType
	Title       string
	Message     string
	EntityType  string
	EntityID    *int64
}

// CreateNotification inserts an unread notification.
func (s *Store) CreateNotification(ctx context.Context, spec NewNotification) (*Notification, error) {
	if spec.TargetAgent == "" {
		return nil, errors.New("target agent is required")
	}
	if spec.Title == "" {
		return nil, errors.New("notification title is required")
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO notifications (
            target_agent, type, title, message, entity_type, entity_id, is_read, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		spec.TargetAgent,
		spec.Type,
		spec.Title,
		nullableString(spec.Message),
		nullableString(spec.EntityType),
		nullableInt64(spec.EntityID),
		formatTime(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+notificationColumns+` FROM notifications WHERE id = ?`,
		id,
	)
	notification, err := scanNotification(row)
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return notification, nil
}

// NotificationExists reports whether any notification references the given
// entity for the target agent, regardless of age or read state. This is the
// dedup predicate for mention and subscription fan-out.
func (s *Store) NotificationExists(ctx context.Context, targetAgent, entityType string, entityID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT COUNT(1) FROM notifications
         WHERE target_agent = ? AND entity_type = ? AND entity_id = ?`,
		targetAgent,
		entityType,
		entityID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("notification exists: %w", err)
	}
	return count > 0, nil
}

// AlertExistsSince reports whether an alert-class notification referencing
// the entity was created at or after the cutoff. This is the rolling-window
// dedup predicate for overdue-task alerts.
func (s *Store) AlertExistsSince(ctx context.Context, targetAgent, entityType string, entityID int64, cutoff time.Time) (bool, error) {
	var count int
	err := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT COUNT(1) FROM notifications
         WHERE target_agent = ? AND type = ? AND entity_type = ? AND entity_id = ?
           AND created_at >= ?`,
		targetAgent,
		NotificationAlert,
		entityType,
		entityID,
		formatTime(cutoff),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("alert exists since: %w", err)
	}
	return count > 0, nil
}

// SystemNoticeExistsSince reports whether an entity-less system notification
// for the target was created at or after the cutoff. This is the
// rolling-window dedup predicate for the combined offline-agents alert.
func (s *Store) SystemNoticeExistsSince(ctx context.Context, targetAgent string, cutoff time.Time) (bool, error) {
	var count int
	err := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT COUNT(1) FROM notifications
         WHERE target_agent = ? AND type = ? AND entity_type IS NULL
           AND created_at >= ?`,
		targetAgent,
		NotificationSystem,
		formatTime(cutoff),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("system notice exists since: %w", err)
	}
	return count > 0, nil
}

// UnreadNotifications returns the agent's unread notifications in arrival
// order without changing their read state.
func (s *Store) UnreadNotifications(ctx context.Context, targetAgent string) ([]*Notification, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+notificationColumns+` FROM notifications
         WHERE target_agent = ? AND is_read = 0
         ORDER BY created_at`,
		targetAgent,
	)
	if err != nil {
		return nil, fmt.Errorf("unread notifications: %w", err)
	}
	defer rows.Close()
	return collectNotifications(rows)
}

// ConsumeUnreadNotifications reads the agent's unread notifications in
// arrival order and marks exactly that batch read, atomically. A
// notification created after the read is never silently marked.
func (s *Store) ConsumeUnreadNotifications(ctx context.Context, targetAgent string) ([]*Notification, error) {
	var consumed []*Notification
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(
			ctx,
			`SELECT `+notificationColumns+` FROM notifications
             WHERE target_agent = ? AND is_read = 0
             ORDER BY created_at`,
			targetAgent,
		)
		if err != nil {
			return fmt.Errorf("read unread batch: %w", err)
		}
		batch, err := collectNotifications(rows)
		rows.Close()
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			consumed = nil
			return nil
		}

		ids := make([]any, 0, len(batch))
		for _, notification := range batch {
			ids = append(ids, notification.ID)
		}
		query := `UPDATE notifications SET is_read = 1 WHERE id IN (` + makePlaceholders(len(ids)) + `)`
		if _, err := tx.ExecContext(ctx, query, ids...); err != nil {
			return fmt.Errorf("mark batch read: %w", err)
		}
		for _, notification := range batch {
			notification.IsRead = true
		}
		consumed = batch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return consumed, nil
}

func collectNotifications(rows *sql.Rows) ([]*Notification, error) {
	var notifications []*Notification
	for rows.Next() {
		notification, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, notification)
	}
	return notifications, rows.Err()
}

func scanNotification(sc scanner) (*Notification, error) {
	var (
		id          int64
		targetAgent string
		typeStr     string
		title       string
		message     sql.NullString
		entityType  sql.NullString
		entityID    sql.NullInt64
		isRead      int
		createdRaw  string
	)
	if err := sc.Scan(
		&id,
		&targetAgent,
		&typeStr,
		&title,
		&message,
		&entityType,
		&entityID,
		&isRead,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	notification := &Notification{
		ID:          id,
		TargetAgent: targetAgent,
		Type:        NotificationType(typeStr),
		Title:       title,
		Message:     message.String,
		EntityType:  entityType.String,
		IsRead:      isRead != 0,
	}
	if entityID.Valid {
		value := entityID.Int64
		notification.EntityID = &value
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		notification.CreatedAt = created
	}
	return notification, nil
}
