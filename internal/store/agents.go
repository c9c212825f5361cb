package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const agentColumns = "id, name, role, status, last_heartbeat, created_at"

// EnsureAgent inserts a roster member if absent and returns the stored row.
// Matching is case-insensitive; re-provisioning an existing name is a no-op.
func (s *Store) EnsureAgent(ctx context.Context, name, role string) (*Agent, error) {
	ctx = ensureContext(ctx)
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO agents (name, role, status, created_at) VALUES (?, ?, ?, ?)
         ON CONFLICT(name) DO NOTHING`,
		name,
		role,
		AgentOffline,
		formatTime(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("ensure agent: %w", err)
	}
	return s.AgentByName(ctx, name)
}

// AgentByName fetches an agent by case-insensitive name. Returns nil when no
// such agent exists.
func (s *Store) AgentByName(ctx context.Context, name string) (*Agent, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+agentColumns+` FROM agents WHERE name = ?`,
		name,
	)
	agent, err := scanAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get agent: %w", err)
	}
	return agent, nil
}

// ListAgents returns the full roster ordered by name.
func (s *Store) ListAgents(ctx context.Context) ([]*Agent, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+agentColumns+` FROM agents ORDER BY name COLLATE NOCASE`,
	)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var agents []*Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	return agents, rows.Err()
}

// UpdateAgentLiveness sets the agent's status and heartbeat timestamp.
func (s *Store) UpdateAgentLiveness(ctx context.Context, name string, status AgentStatus, heartbeat time.Time) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE agents SET status = ?, last_heartbeat = ? WHERE name = ?`,
		status,
		formatTime(heartbeat),
		name,
	)
	if err != nil {
		return fmt.Errorf("update agent liveness: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("agent %q: %w", name, ErrAgentNotFound)
	}
	return nil
}

// StaleAgents returns agents whose last heartbeat predates the cutoff or was
// never recorded, ordered by name.
func (s *Store) StaleAgents(ctx context.Context, cutoff time.Time) ([]*Agent, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+agentColumns+` FROM agents
         WHERE last_heartbeat IS NULL OR last_heartbeat < ?
         ORDER BY name COLLATE NOCASE`,
		formatTime(cutoff),
	)
	if err != nil {
		return nil, fmt.Errorf("stale agents: %w", err)
	}
	defer rows.Close()

	var agents []*Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	return agents, rows.Err()
}

// RemoveAgent deletes an agent. Task references are cleared by the schema's
// ON DELETE SET NULL, never left dangling.
func (s *Store) RemoveAgent(ctx context.Context, name string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM agents WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("remove agent: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func scanAgent(sc scanner) (*Agent, error) {
	var (
		id           int64
		name         string
		role         string
		statusStr    string
		heartbeatRaw sql.NullString
		createdRaw   string
	)
	if err := sc.Scan(&id, &name, &role, &statusStr, &heartbeatRaw, &createdRaw); err != nil {
		return nil, err
	}

	agent := &Agent{
		ID:     id,
		Name:   name,
		Role:   role,
		Status: AgentStatus(statusStr),
	}
	if heartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(heartbeatRaw.String); err == nil {
			agent.LastHeartbeat = &heartbeat
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		agent.CreatedAt = created
	}
	return agent, nil
}
