// Package notify implements the notification fan-out daemon.
//
// One run performs three idempotent passes over the shared store: mentions
// in recent messages, subscription fan-out from recent activity, and system
// alerts for overdue tasks and offline agents. The daemon keeps no cursor;
// every pass rescans a trailing window and relies on existence checks
// against the notifications table to stay idempotent.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"muster/internal/config"
	"muster/internal/logging"
	"muster/internal/store"
	"muster/internal/textutil"
)

// mentionBodyLimit bounds how much source content a mention notification
// carries.
const mentionBodyLimit = 200

// Options carries the daemon's scan windows and targets. The overdue and
// offline alert windows are deliberately separate fields even though the
// default config drives both from one setting; the two dedup checks must
// never share a computed cutoff.
type Options struct {
	// MentionWindow is the trailing scan window for the mention and
	// subscription passes.
	MentionWindow time.Duration
	// OverdueAlertWindow is the per-task dedup window for overdue alerts.
	OverdueAlertWindow time.Duration
	// OfflineAlertWindow is the dedup window for the combined
	// offline-agents notice to the coordinator.
	OfflineAlertWindow time.Duration
	// OfflineThreshold is how stale a heartbeat must be before an agent
	// counts as offline.
	OfflineThreshold time.Duration
	// Coordinator receives offline-agent notices.
	Coordinator string
	// Clock overrides the time source. Nil means time.Now.
	Clock func() time.Time
}

// OptionsFromConfig derives daemon options from configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MentionWindow:      cfg.MentionWindow(),
		OverdueAlertWindow: cfg.AlertWindow(),
		OfflineAlertWindow: cfg.AlertWindow(),
		OfflineThreshold:   cfg.OfflineThreshold(),
		Coordinator:        cfg.Roster.Coordinator,
	}
}

// Result reports what one daemon run created.
type Result struct {
	Created int
	Success bool
}

// Daemon scans the store and fans out notifications.
type Daemon struct {
	store  *store.Store
	logger *slog.Logger
	opts   Options
}

// New builds a Daemon. A nil logger disables logging.
func New(st *store.Store, logger *slog.Logger, opts Options) *Daemon {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Daemon{
		store:  st,
		logger: logging.WithComponent(logger, "notify"),
		opts:   opts,
	}
}

// Run executes the mention, subscription, and alert passes once. Any pass
// error aborts the run; notifications already created stay (each creation is
// individually idempotent, so a rerun resumes safely).
func (d *Daemon) Run(ctx context.Context) (Result, error) {
	var result Result
	now := d.opts.Clock().UTC()

	roster, err := d.loadRoster(ctx)
	if err != nil {
		return result, fmt.Errorf("load roster: %w", err)
	}

	created, err := d.mentionPass(ctx, now, roster)
	if err != nil {
		return result, fmt.Errorf("mention pass: %w", err)
	}
	result.Created += created

	created, err = d.subscriptionPass(ctx, now)
	if err != nil {
		return result, fmt.Errorf("subscription pass: %w", err)
	}
	result.Created += created

	created, err = d.alertPass(ctx, now)
	if err != nil {
		return result, fmt.Errorf("alert pass: %w", err)
	}
	result.Created += created

	result.Success = true
	d.logger.Info("daemon run complete", logging.Int("created", result.Created))
	return result, nil
}

// loadRoster maps lowercased agent names to their stored casing.
func (d *Daemon) loadRoster(ctx context.Context) (map[string]string, error) {
	agents, err := d.store.ListAgents(ctx)
	if err != nil {
		return nil, err
	}
	roster := make(map[string]string, len(agents))
	for _, agent := range agents {
		roster[strings.ToLower(agent.Name)] = agent.Name
	}
	return roster, nil
}

// mentionPass scans recent messages for @tokens naming roster agents.
// Tokens that match no agent are free text, not errors.
func (d *Daemon) mentionPass(ctx context.Context, now time.Time, roster map[string]string) (int, error) {
	messages, err := d.store.MessagesSince(ctx, now.Add(-d.opts.MentionWindow))
	if err != nil {
		return 0, err
	}

	created := 0
	for _, msg := range messages {
		for _, token := range textutil.Mentions(msg.Content) {
			target, ok := roster[strings.ToLower(token)]
			if !ok {
				continue
			}
			exists, err := d.store.NotificationExists(ctx, target, "message", msg.ID)
			if err != nil {
				return created, err
			}
			if exists {
				continue
			}
			id := msg.ID
			if _, err := d.store.CreateNotification(ctx, store.NewNotification{
				TargetAgent: target,
				Type:        store.NotificationMention,
				Title:       fmt.Sprintf("%s mentioned you", msg.AgentName),
				Message:     textutil.Truncate(msg.Content, mentionBodyLimit),
				EntityType:  "message",
				EntityID:    &id,
			}); err != nil {
				return created, err
			}
			created++
			d.logger.Debug("mention notification created",
				logging.String(logging.FieldAgent, target),
				logging.Int64("message_id", msg.ID),
			)
		}
	}
	return created, nil
}

// subscriptionPass fans recent activity out to entity subscribers. Delivery
// is coarsened to at most one notification per entity per subscriber within
// the dedup horizon, regardless of how many activities touched the entity.
func (d *Daemon) subscriptionPass(ctx context.Context, now time.Time) (int, error) {
	activities, err := d.store.ActivitiesSince(ctx, now.Add(-d.opts.MentionWindow))
	if err != nil {
		return 0, err
	}

	created := 0
	for _, activity := range activities {
		subscribers, err := d.store.SubscribersFor(ctx, activity.EntityType, activity.EntityID)
		if err != nil {
			return created, err
		}
		for _, subscriber := range subscribers {
			if strings.EqualFold(subscriber, activity.AgentName) {
				continue
			}
			exists, err := d.store.NotificationExists(ctx, subscriber, activity.EntityType, activity.EntityID)
			if err != nil {
				return created, err
			}
			if exists {
				continue
			}
			id := activity.EntityID
			if _, err := d.store.CreateNotification(ctx, store.NewNotification{
				TargetAgent: subscriber,
				Type:        store.NotificationSubscription,
				Title:       fmt.Sprintf("Update to %s #%d", activity.EntityType, activity.EntityID),
				Message:     fmt.Sprintf("%s: %s", activity.AgentName, activity.Description),
				EntityType:  activity.EntityType,
				EntityID:    &id,
			}); err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

// alertPass runs the overdue-task and offline-agent checks. Each check
// computes its own dedup cutoff from its own window.
func (d *Daemon) alertPass(ctx context.Context, now time.Time) (int, error) {
	created, err := d.overdueTaskAlerts(ctx, now)
	if err != nil {
		return created, err
	}

	offlineCreated, err := d.offlineAgentAlert(ctx, now)
	if err != nil {
		return created + offlineCreated, err
	}
	return created + offlineCreated, nil
}

func (d *Daemon) overdueTaskAlerts(ctx context.Context, now time.Time) (int, error) {
	overdueCutoff := now.Add(-d.opts.OverdueAlertWindow)

	tasks, err := d.store.OverdueTasks(ctx, now)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, task := range tasks {
		exists, err := d.store.AlertExistsSince(ctx, task.AssignedAgent, "task", task.ID, overdueCutoff)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}
		id := task.ID
		if _, err := d.store.CreateNotification(ctx, store.NewNotification{
			TargetAgent: task.AssignedAgent,
			Type:        store.NotificationAlert,
			Title:       fmt.Sprintf("Task overdue: %s", task.Title),
			Message:     fmt.Sprintf("Due %s, still %s", task.DueDate.UTC().Format("2006-01-02"), task.Status),
			EntityType:  "task",
			EntityID:    &id,
		}); err != nil {
			return created, err
		}
		created++
		d.logger.Debug("overdue alert created",
			logging.String(logging.FieldAgent, task.AssignedAgent),
			logging.Int64(logging.FieldTaskID, task.ID),
		)
	}
	return created, nil
}

func (d *Daemon) offlineAgentAlert(ctx context.Context, now time.Time) (int, error) {
	offlineCutoff := now.Add(-d.opts.OfflineAlertWindow)

	stale, err := d.store.StaleAgents(ctx, now.Add(-d.opts.OfflineThreshold))
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 || d.opts.Coordinator == "" {
		return 0, nil
	}

	exists, err := d.store.SystemNoticeExistsSince(ctx, d.opts.Coordinator, offlineCutoff)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, nil
	}

	names := make([]string, 0, len(stale))
	for _, agent := range stale {
		names = append(names, agent.Name)
	}
	sort.Strings(names)

	if _, err := d.store.CreateNotification(ctx, store.NewNotification{
		TargetAgent: d.opts.Coordinator,
		Type:        store.NotificationSystem,
		Title:       fmt.Sprintf("%d agent(s) offline", len(names)),
		Message:     strings.Join(names, ", "),
	}); err != nil {
		return 0, err
	}
	d.logger.Debug("offline notice created",
		logging.String(logging.FieldAgent, d.opts.Coordinator),
		logging.Int("offline", len(names)),
	)
	return 1, nil
}
