package heartbeat_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"muster/internal/heartbeat"
	"muster/internal/store"
	"muster/internal/testsupport"
)

func TestRunUnknownAgent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	proc := heartbeat.New(cfg, st, nil)

	result, err := proc.Run(context.Background(), "Ultron")
	if !errors.Is(err, store.ErrAgentNotFound) {
		t.Fatalf("expected ErrAgentNotFound, got %v", err)
	}
	if result.Success {
		t.Fatal("unknown agent must not report success")
	}
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := st.EnsureAgent(ctx, "Shuri", "engineer"); err != nil {
		t.Fatalf("EnsureAgent: %v", err)
	}
	task := testsupport.NewTask(t, st, store.NewTask{
		Title:         "Fix bug",
		Priority:      store.PriorityHigh,
		AssignedAgent: "Shuri",
		CreatedBy:     "Jarvis",
	})
	_, err := st.CreateNotification(ctx, store.NewNotification{
		TargetAgent: "Shuri",
		Type:        store.NotificationMention,
		Title:       "Jarvis mentioned you",
		Message:     "@Shuri please review",
		EntityType:  "message",
		EntityID:    &task.ID,
	})
	if err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}

	proc := heartbeat.New(cfg, st, nil)
	// Case-insensitive invocation is part of the contract.
	result, err := proc.Run(ctx, "shuri")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Success {
		t.Fatal("expected successful cycle")
	}
	if result.TasksChecked != 1 || result.NotificationsProcessed != 1 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if result.HeartbeatOK {
		t.Fatal("cycle that did work must report heartbeat_ok=false")
	}

	agent, err := st.AgentByName(ctx, "Shuri")
	if err != nil {
		t.Fatalf("AgentByName: %v", err)
	}
	if agent.Status != store.AgentWorking {
		t.Fatalf("expected working status, got %s", agent.Status)
	}
	if agent.LastHeartbeat == nil {
		t.Fatal("expected last_heartbeat set")
	}

	unread, err := st.UnreadNotifications(ctx, "Shuri")
	if err != nil {
		t.Fatalf("UnreadNotifications: %v", err)
	}
	if len(unread) != 0 {
		t.Fatalf("expected the mention consumed, %d still unread", len(unread))
	}

	beats, err := st.RecentHeartbeats(ctx, "Shuri", 5)
	if err != nil {
		t.Fatalf("RecentHeartbeats: %v", err)
	}
	if len(beats) != 1 || beats[0].Status != store.HeartbeatSuccess {
		t.Fatalf("expected one success log row, got %+v", beats)
	}

	snapshot, err := os.ReadFile(filepath.Join(cfg.Paths.WorkspaceDir, "shuri.md"))
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	body := string(snapshot)
	if !strings.Contains(body, "Fix bug") || !strings.Contains(body, "working") {
		t.Fatalf("snapshot missing cycle state:\n%s", body)
	}
}

func TestRunIdleWhenNothingToDo(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := st.EnsureAgent(ctx, "Banner", "scientist"); err != nil {
		t.Fatalf("EnsureAgent: %v", err)
	}

	fixed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	proc := heartbeat.New(cfg, st, nil, heartbeat.WithClock(func() time.Time { return fixed }))

	result, err := proc.Run(ctx, "Banner")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.HeartbeatOK {
		t.Fatal("empty cycle must report heartbeat_ok=true")
	}

	agent, err := st.AgentByName(ctx, "Banner")
	if err != nil {
		t.Fatalf("AgentByName: %v", err)
	}
	if agent.Status != store.AgentIdle {
		t.Fatalf("expected idle, got %s", agent.Status)
	}
	if agent.LastHeartbeat == nil || !agent.LastHeartbeat.Equal(fixed) {
		t.Fatalf("expected heartbeat pinned to clock, got %v", agent.LastHeartbeat)
	}
}

func TestRunPresentsMostUrgentWorkFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := st.EnsureAgent(ctx, "Wanda", "engineer"); err != nil {
		t.Fatalf("EnsureAgent: %v", err)
	}
	low := testsupport.NewTask(t, st, store.NewTask{
		Title: "Sort mail", Priority: store.PriorityLow, AssignedAgent: "Wanda", CreatedBy: "Jarvis",
	})
	highOld := testsupport.NewTask(t, st, store.NewTask{
		Title: "Contain anomaly", Priority: store.PriorityHigh, AssignedAgent: "Wanda", CreatedBy: "Jarvis",
	})
	highNew := testsupport.NewTask(t, st, store.NewTask{
		Title: "Brief the team", Priority: store.PriorityHigh, AssignedAgent: "Wanda", CreatedBy: "Jarvis",
	})

	proc := heartbeat.New(cfg, st, nil)
	if _, err := proc.Run(ctx, "Wanda"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The snapshot reflects the queue order the agent saw.
	snapshot, err := os.ReadFile(filepath.Join(cfg.Paths.WorkspaceDir, "wanda.md"))
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	body := string(snapshot)
	posHighOld := strings.Index(body, highOld.Title)
	posHighNew := strings.Index(body, highNew.Title)
	posLow := strings.Index(body, low.Title)
	if posHighOld < 0 || posHighNew < 0 || posLow < 0 {
		t.Fatalf("snapshot missing tasks:\n%s", body)
	}
	if !(posHighOld < posHighNew && posHighNew < posLow) {
		t.Fatalf("queue order wrong in snapshot: high@t2=%d high@t3=%d low@t1=%d", posHighOld, posHighNew, posLow)
	}
}
