package store

import (
	"strings"
	"time"
)

// AgentStatus reflects an agent's liveness as seen by heartbeats.
type AgentStatus string

const (
	AgentIdle    AgentStatus = "idle"
	AgentWorking AgentStatus = "working"
	AgentOffline AgentStatus = "offline"
	AgentError   AgentStatus = "error"
)

// Agent is one member of the fixed roster.
type Agent struct {
	ID            int64
	Name          string
	Role          string
	Status        AgentStatus
	LastHeartbeat *time.Time
	CreatedAt     time.Time
}

// TaskStatus represents the lifecycle of a task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskBlocked    TaskStatus = "blocked"
	TaskCancelled  TaskStatus = "cancelled"
)

var taskStatuses = map[TaskStatus]struct{}{
	TaskPending:    {},
	TaskInProgress: {},
	TaskCompleted:  {},
	TaskBlocked:    {},
	TaskCancelled:  {},
}

// ParseTaskStatus converts a string into a known TaskStatus.
func ParseTaskStatus(value string) (TaskStatus, bool) {
	normalized := TaskStatus(strings.ToLower(strings.TrimSpace(value)))
	_, ok := taskStatuses[normalized]
	return normalized, ok
}

// IsTerminal reports whether the status ends a task's lifecycle.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskCancelled
}

// Priority orders tasks within an agent's work queue.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var priorities = map[Priority]struct{}{
	PriorityLow:      {},
	PriorityMedium:   {},
	PriorityHigh:     {},
	PriorityCritical: {},
}

// ParsePriority converts a string into a known Priority.
func ParsePriority(value string) (Priority, bool) {
	normalized := Priority(strings.ToLower(strings.TrimSpace(value)))
	_, ok := priorities[normalized]
	return normalized, ok
}

// priorityRank is the SQL expression ordering priorities from most to least
// urgent. Work-queue queries order by this ascending, then created_at.
const priorityRank = `CASE priority
    WHEN 'critical' THEN 0
    WHEN 'high' THEN 1
    WHEN 'medium' THEN 2
    ELSE 3 END`

// Task is a unit of work optionally assigned to an agent. AssignedAgent is a
// weak reference: deleting the agent clears it rather than deleting the task.
type Task struct {
	ID            int64
	Title         string
	Description   string
	Status        TaskStatus
	Priority      Priority
	AssignedAgent string
	CreatedBy     string
	DueDate       *time.Time
	CompletedAt   *time.Time
	Metadata      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Message is an immutable thread entry. Mentions are derived from Content at
// scan time, never stored separately.
type Message struct {
	ID        int64
	ThreadID  string
	AgentName string
	Content   string
	CreatedAt time.Time
}

// NotificationType classifies how a notification was produced.
type NotificationType string

const (
	NotificationMention      NotificationType = "mention"
	NotificationSubscription NotificationType = "subscription"
	NotificationAlert        NotificationType = "alert"
	NotificationSystem       NotificationType = "system"
)

// Notification is a store-mediated signal to one agent. Rows are created by
// the notification daemon (or directly for system use) and mutated only by
// read-marking.
type Notification struct {
	ID          int64
	TargetAgent string
	Type        NotificationType
	Title       string
	Message     string
	EntityType  string
	EntityID    *int64
	IsRead      bool
	CreatedAt   time.Time
}

// Subscription expresses a standing interest in activity on one entity.
type Subscription struct {
	ID         int64
	AgentName  string
	TargetType string
	TargetID   int64
	CreatedAt  time.Time
}

// Activity is an append-only audit record and the sole input to the
// subscription fan-out.
type Activity struct {
	ID          int64
	AgentName   string
	ActionType  string
	EntityType  string
	EntityID    int64
	Description string
	CreatedAt   time.Time
}

// HeartbeatStatus is the outcome of a single heartbeat invocation.
type HeartbeatStatus string

const (
	HeartbeatSuccess HeartbeatStatus = "success"
	HeartbeatError   HeartbeatStatus = "error"
)

// HeartbeatEntry is one append-only heartbeat log row.
type HeartbeatEntry struct {
	ID                     int64
	AgentName              string
	Status                 HeartbeatStatus
	TasksChecked           int
	NotificationsProcessed int
	ErrorMessage           string
	CreatedAt              time.Time
}

// DailySummary holds the rendered report and aggregate counts for one
// calendar date. Keyed by Date; re-running the aggregator replaces the row.
type DailySummary struct {
	ID             int64
	Date           string
	Report         string
	TasksCompleted int
	TasksCreated   int
	ActiveAgents   int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Health aggregates row counts for diagnostic output.
type Health struct {
	DBPath         string
	DatabaseExists bool
	IntegrityCheck bool
	Agents         int
	Tasks          int
	Messages       int
	Notifications  int
	Error          string
}
