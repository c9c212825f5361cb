package notify_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"muster/internal/notify"
	"muster/internal/store"
	"muster/internal/testsupport"
)

func testOptions() notify.Options {
	return notify.Options{
		MentionWindow:      5 * time.Minute,
		OverdueAlertWindow: 24 * time.Hour,
		OfflineAlertWindow: 24 * time.Hour,
		OfflineThreshold:   time.Hour,
		Coordinator:        "Jarvis",
	}
}

func seedAgents(t *testing.T, st *store.Store, names ...string) {
	t.Helper()
	ctx := context.Background()
	for _, name := range names {
		if _, err := st.EnsureAgent(ctx, name, "engineer"); err != nil {
			t.Fatalf("EnsureAgent %s: %v", name, err)
		}
	}
}

func beat(t *testing.T, st *store.Store, name string, at time.Time) {
	t.Helper()
	if err := st.UpdateAgentLiveness(context.Background(), name, store.AgentIdle, at); err != nil {
		t.Fatalf("UpdateAgentLiveness %s: %v", name, err)
	}
}

func TestMentionRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	now := time.Now().UTC()

	seedAgents(t, st, "Jarvis", "Okoye")
	beat(t, st, "Jarvis", now)
	beat(t, st, "Okoye", now)

	msg, err := st.CreateMessage(ctx, "general", "Okoye", "@Jarvis please review @NotAnAgent")
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}

	daemon := notify.New(st, nil, testOptions())
	result, err := daemon.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("expected exactly one notification, got %d", result.Created)
	}

	unread, err := st.UnreadNotifications(ctx, "Jarvis")
	if err != nil {
		t.Fatalf("UnreadNotifications: %v", err)
	}
	if len(unread) != 1 {
		t.Fatalf("expected one mention for Jarvis, got %d", len(unread))
	}
	n := unread[0]
	if n.Type != store.NotificationMention {
		t.Fatalf("expected mention type, got %s", n.Type)
	}
	if n.EntityType != "message" || n.EntityID == nil || *n.EntityID != msg.ID {
		t.Fatalf("expected back-reference to message %d, got %s/%v", msg.ID, n.EntityType, n.EntityID)
	}
	if !strings.Contains(n.Title, "Okoye") {
		t.Fatalf("title should name the author: %q", n.Title)
	}
}

func TestMentionBodyTruncated(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	now := time.Now().UTC()

	seedAgents(t, st, "Jarvis", "Quill")
	beat(t, st, "Jarvis", now)
	beat(t, st, "Quill", now)

	content := "@Jarvis " + strings.Repeat("x", 400)
	if _, err := st.CreateMessage(ctx, "general", "Quill", content); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}

	daemon := notify.New(st, nil, testOptions())
	if _, err := daemon.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	unread, err := st.UnreadNotifications(ctx, "Jarvis")
	if err != nil {
		t.Fatalf("UnreadNotifications: %v", err)
	}
	if len(unread) != 1 {
		t.Fatalf("expected one mention, got %d", len(unread))
	}
	body := unread[0].Message
	if !strings.HasSuffix(body, "...") {
		t.Fatalf("expected ellipsis marker, got %q", body[len(body)-10:])
	}
	if got := len(strings.TrimSuffix(body, "...")); got != 200 {
		t.Fatalf("expected body capped at 200 characters, got %d", got)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	now := time.Now().UTC()

	seedAgents(t, st, "Jarvis", "Shuri", "Fury")
	beat(t, st, "Jarvis", now)
	beat(t, st, "Shuri", now)
	// Fury is offline: exercises the system alert pass too.
	beat(t, st, "Fury", now.Add(-2*time.Hour))

	if _, err := st.CreateMessage(ctx, "general", "Shuri", "@Jarvis status update"); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	task := testsupport.NewTask(t, st, store.NewTask{
		Title: "Refit the lab", Priority: store.PriorityHigh, AssignedAgent: "Shuri", CreatedBy: "Jarvis",
	})
	if _, err := st.Subscribe(ctx, "Jarvis", "task", task.ID); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if _, err := st.RecordActivity(ctx, "Shuri", "task_updated", "task", task.ID, "started work"); err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}
	past := now.Add(-time.Hour)
	testsupport.NewTask(t, st, store.NewTask{
		Title: "File safety report", Priority: store.PriorityMedium, AssignedAgent: "Shuri", CreatedBy: "Jarvis", DueDate: &past,
	})

	daemon := notify.New(st, nil, testOptions())
	first, err := daemon.Run(ctx)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	// Mention, subscription, overdue alert, offline notice.
	if first.Created != 4 {
		t.Fatalf("expected 4 notifications on first run, got %d", first.Created)
	}

	second, err := daemon.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Created != 0 {
		t.Fatalf("second run over unchanged store must create nothing, got %d", second.Created)
	}
}

func TestSubscriptionSelfExclusion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	now := time.Now().UTC()

	seedAgents(t, st, "Jarvis", "Strange")
	beat(t, st, "Jarvis", now)
	beat(t, st, "Strange", now)

	task := testsupport.NewTask(t, st, store.NewTask{
		Title: "Catalog artifacts", Priority: store.PriorityLow, AssignedAgent: "Strange", CreatedBy: "Jarvis",
	})
	if _, err := st.Subscribe(ctx, "Strange", "task", task.ID); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if _, err := st.RecordActivity(ctx, "Strange", "task_updated", "task", task.ID, "progress"); err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}

	daemon := notify.New(st, nil, testOptions())
	result, err := daemon.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Created != 0 {
		t.Fatalf("own activity must not notify the actor, got %d", result.Created)
	}
}

func TestOverdueAlertRepeatsAfterWindowExpires(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	base := time.Now().UTC()

	seedAgents(t, st, "Jarvis", "Vision")
	beat(t, st, "Jarvis", base)
	beat(t, st, "Vision", base)

	past := base.Add(-time.Hour)
	testsupport.NewTask(t, st, store.NewTask{
		Title: "Submit compliance filing", Priority: store.PriorityHigh, AssignedAgent: "Vision", CreatedBy: "Jarvis", DueDate: &past,
	})

	clock := base
	opts := testOptions()
	opts.Clock = func() time.Time { return clock }
	daemon := notify.New(st, nil, opts)

	first, err := daemon.Run(ctx)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Created != 1 {
		t.Fatalf("expected one overdue alert, got %d", first.Created)
	}

	// Later the same rolling day: still suppressed.
	clock = base.Add(6 * time.Hour)
	beat(t, st, "Jarvis", clock)
	beat(t, st, "Vision", clock)
	mid, err := daemon.Run(ctx)
	if err != nil {
		t.Fatalf("mid-window run: %v", err)
	}
	if mid.Created != 0 {
		t.Fatalf("alert repeated inside the window: %d", mid.Created)
	}

	// Past the rolling day: the task is still overdue, alert again.
	clock = base.Add(25 * time.Hour)
	beat(t, st, "Jarvis", clock)
	beat(t, st, "Vision", clock)
	late, err := daemon.Run(ctx)
	if err != nil {
		t.Fatalf("post-window run: %v", err)
	}
	if late.Created != 1 {
		t.Fatalf("expected a fresh alert after the window expired, got %d", late.Created)
	}
}

func TestOfflineNoticeOncePerDay(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	now := time.Now().UTC()

	seedAgents(t, st, "Jarvis", "Fury", "Quill")
	beat(t, st, "Jarvis", now)
	beat(t, st, "Fury", now.Add(-3*time.Hour))
	// Quill never heartbeat at all.

	daemon := notify.New(st, nil, testOptions())
	first, err := daemon.Run(ctx)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Created != 1 {
		t.Fatalf("expected one combined offline notice, got %d", first.Created)
	}

	unread, err := st.UnreadNotifications(ctx, "Jarvis")
	if err != nil {
		t.Fatalf("UnreadNotifications: %v", err)
	}
	if len(unread) != 1 {
		t.Fatalf("expected the notice targeted at the coordinator, got %d", len(unread))
	}
	notice := unread[0]
	if notice.Type != store.NotificationSystem {
		t.Fatalf("expected system type, got %s", notice.Type)
	}
	if !strings.Contains(notice.Message, "Fury") || !strings.Contains(notice.Message, "Quill") {
		t.Fatalf("notice should list every offline agent: %q", notice.Message)
	}

	second, err := daemon.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Created != 0 {
		t.Fatalf("offline notice duplicated within the day: %d", second.Created)
	}
}

// The overdue and offline dedup windows are independent: a consumed offline
// window must not suppress overdue alerts, and vice versa.
func TestAlertWindowsDoNotLeak(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	base := time.Now().UTC()

	seedAgents(t, st, "Jarvis", "Loki")
	beat(t, st, "Jarvis", base)
	// Loki is both offline and holding an overdue task, so one run arms
	// both dedup windows at once.
	beat(t, st, "Loki", base.Add(-2*time.Hour))
	past := base.Add(-time.Hour)
	testsupport.NewTask(t, st, store.NewTask{
		Title: "Return the scepter", Priority: store.PriorityCritical, AssignedAgent: "Loki", CreatedBy: "Jarvis", DueDate: &past,
	})

	clock := base
	opts := testOptions()
	// Give the two checks very different windows: overdue dedup expires in
	// one hour, the offline notice holds for the full day.
	opts.OverdueAlertWindow = time.Hour
	opts.OfflineAlertWindow = 24 * time.Hour
	opts.Clock = func() time.Time { return clock }
	daemon := notify.New(st, nil, opts)

	first, err := daemon.Run(ctx)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Created != 2 {
		t.Fatalf("expected overdue alert plus offline notice, got %d", first.Created)
	}

	// Two hours later: the overdue window has expired, the offline window
	// has not. Exactly one new notification may appear.
	clock = base.Add(2 * time.Hour)
	beat(t, st, "Jarvis", clock)
	second, err := daemon.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Created != 1 {
		t.Fatalf("expected only the overdue alert to repeat, got %d", second.Created)
	}

	alerts, err := st.UnreadNotifications(ctx, "Loki")
	if err != nil {
		t.Fatalf("UnreadNotifications: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("expected two overdue alerts for Loki, got %d", len(alerts))
	}
	system, err := st.UnreadNotifications(ctx, "Jarvis")
	if err != nil {
		t.Fatalf("UnreadNotifications: %v", err)
	}
	if len(system) != 1 {
		t.Fatalf("expected a single offline notice for Jarvis, got %d", len(system))
	}
}
