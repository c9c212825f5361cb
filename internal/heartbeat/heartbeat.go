// Package heartbeat implements a single agent check-in cycle.
//
// Each invocation resolves the agent, drains its unread notifications as one
// atomic batch, recomputes its status from open work, appends a heartbeat
// log row, and rewrites the agent's status snapshot. Invocations own their
// store session; the invoker decides scheduling and single-flight.
package heartbeat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"muster/internal/config"
	"muster/internal/logging"
	"muster/internal/statusdoc"
	"muster/internal/store"
)

// Result reports what one heartbeat invocation did.
type Result struct {
	Agent                  string
	TasksChecked           int
	NotificationsProcessed int
	// HeartbeatOK distinguishes "nothing to do" cycles from "did work"
	// cycles. Observability only; invokers must not branch on it.
	HeartbeatOK bool
	Success     bool
}

// Processor runs heartbeat cycles against a shared store.
type Processor struct {
	cfg       *config.Config
	store     *store.Store
	logger    *slog.Logger
	snapshots *statusdoc.Writer
	now       func() time.Time
}

// Option customizes a Processor.
type Option func(*Processor)

// WithClock overrides the processor's time source. Tests use this to pin
// heartbeat timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// New builds a Processor. A nil logger disables logging.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Processor{
		cfg:       cfg,
		store:     st,
		logger:    logging.WithComponent(logger, "heartbeat"),
		snapshots: statusdoc.NewWriter(cfg.Paths.WorkspaceDir),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one heartbeat cycle for the named agent. Name matching is
// case-insensitive. Failures after agent resolution are recorded as an error
// row in the heartbeat log before returning; log-write failures are
// swallowed so the original error is never masked.
func (p *Processor) Run(ctx context.Context, agentName string) (Result, error) {
	result := Result{Agent: agentName}
	log := p.logger.With(logging.String(logging.FieldAgent, agentName))

	agent, err := p.store.AgentByName(ctx, agentName)
	if err != nil {
		return result, p.fail(ctx, log, result, fmt.Errorf("resolve agent: %w", err))
	}
	if agent == nil {
		return result, fmt.Errorf("resolve agent %q: %w", agentName, store.ErrAgentNotFound)
	}
	result.Agent = agent.Name

	tasks, err := p.store.WorkQueue(ctx, agent.Name)
	if err != nil {
		return result, p.fail(ctx, log, result, fmt.Errorf("load work queue: %w", err))
	}
	result.TasksChecked = len(tasks)

	notifications, err := p.store.ConsumeUnreadNotifications(ctx, agent.Name)
	if err != nil {
		return result, p.fail(ctx, log, result, fmt.Errorf("consume notifications: %w", err))
	}
	result.NotificationsProcessed = len(notifications)

	status := store.AgentIdle
	if len(tasks) > 0 {
		status = store.AgentWorking
	}
	now := p.now().UTC()
	if err := p.store.UpdateAgentLiveness(ctx, agent.Name, status, now); err != nil {
		return result, p.fail(ctx, log, result, fmt.Errorf("update liveness: %w", err))
	}

	if err := p.store.AppendHeartbeat(ctx, store.HeartbeatEntry{
		AgentName:              agent.Name,
		Status:                 store.HeartbeatSuccess,
		TasksChecked:           result.TasksChecked,
		NotificationsProcessed: result.NotificationsProcessed,
	}); err != nil {
		return result, p.fail(ctx, log, result, fmt.Errorf("append heartbeat log: %w", err))
	}

	agent.Status = status
	agent.LastHeartbeat = &now
	if _, err := p.snapshots.Write(statusdoc.Snapshot{
		Agent:         agent,
		Tasks:         tasks,
		Notifications: notifications,
		GeneratedAt:   now,
	}); err != nil {
		return result, p.fail(ctx, log, result, fmt.Errorf("write status snapshot: %w", err))
	}

	result.HeartbeatOK = result.TasksChecked == 0 && result.NotificationsProcessed == 0
	result.Success = true
	log.Info("heartbeat complete",
		logging.String("status", string(status)),
		logging.Int("tasks_checked", result.TasksChecked),
		logging.Int("notifications_processed", result.NotificationsProcessed),
		logging.Bool("heartbeat_ok", result.HeartbeatOK),
	)
	return result, nil
}

// fail records an error heartbeat row best-effort and returns the original
// error for the caller.
func (p *Processor) fail(ctx context.Context, log *slog.Logger, result Result, cause error) error {
	log.Error("heartbeat failed", logging.Error(cause))
	logErr := p.store.AppendHeartbeat(ctx, store.HeartbeatEntry{
		AgentName:              result.Agent,
		Status:                 store.HeartbeatError,
		TasksChecked:           result.TasksChecked,
		NotificationsProcessed: result.NotificationsProcessed,
		ErrorMessage:           cause.Error(),
	})
	if logErr != nil {
		log.Warn("heartbeat error row not recorded", logging.Error(logErr))
	}
	return cause
}
