package store_test

import (
	"context"
	"testing"
	"time"

	"muster/internal/store"
	"muster/internal/testsupport"
)

func TestWorkQueueOrdering(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := st.EnsureAgent(ctx, "Shuri", "engineer"); err != nil {
		t.Fatalf("EnsureAgent: %v", err)
	}

	// Insertion order: low first, then two highs. The queue must surface
	// both highs before the low, and order equal priorities by creation.
	low := testsupport.NewTask(t, st, store.NewTask{
		Title:         "Tidy archives",
		Priority:      store.PriorityLow,
		AssignedAgent: "Shuri",
		CreatedBy:     "Jarvis",
	})
	highOld := testsupport.NewTask(t, st, store.NewTask{
		Title:         "Patch reactor firmware",
		Priority:      store.PriorityHigh,
		AssignedAgent: "Shuri",
		CreatedBy:     "Jarvis",
	})
	highNew := testsupport.NewTask(t, st, store.NewTask{
		Title:         "Rotate access keys",
		Priority:      store.PriorityHigh,
		AssignedAgent: "Shuri",
		CreatedBy:     "Jarvis",
	})

	queue, err := st.WorkQueue(ctx, "Shuri")
	if err != nil {
		t.Fatalf("WorkQueue: %v", err)
	}
	if len(queue) != 3 {
		t.Fatalf("expected 3 queued tasks, got %d", len(queue))
	}
	want := []int64{highOld.ID, highNew.ID, low.ID}
	for i, task := range queue {
		if task.ID != want[i] {
			t.Fatalf("position %d: expected task %d, got %d", i, want[i], task.ID)
		}
	}
}

func TestWorkQueueExcludesTerminalTasks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := st.EnsureAgent(ctx, "Shuri", "engineer"); err != nil {
		t.Fatalf("EnsureAgent: %v", err)
	}
	open := testsupport.NewTask(t, st, store.NewTask{
		Title:         "Review telemetry",
		Priority:      store.PriorityMedium,
		AssignedAgent: "Shuri",
		CreatedBy:     "Jarvis",
	})
	done := testsupport.NewTask(t, st, store.NewTask{
		Title:         "File flight report",
		Priority:      store.PriorityCritical,
		AssignedAgent: "Shuri",
		CreatedBy:     "Jarvis",
	})
	if _, err := st.UpdateTaskStatus(ctx, done.ID, store.TaskCompleted); err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}

	queue, err := st.WorkQueue(ctx, "Shuri")
	if err != nil {
		t.Fatalf("WorkQueue: %v", err)
	}
	if len(queue) != 1 || queue[0].ID != open.ID {
		t.Fatalf("expected only the open task in the queue, got %d entries", len(queue))
	}
}

func TestCompletedAtIsSticky(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	task := testsupport.NewTask(t, st, store.NewTask{
		Title:     "Stabilize uplink",
		Priority:  store.PriorityHigh,
		CreatedBy: "Jarvis",
	})

	done, err := st.UpdateTaskStatus(ctx, task.ID, store.TaskCompleted)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.CompletedAt == nil {
		t.Fatal("expected completed_at set on first completion")
	}
	firstCompletion := *done.CompletedAt

	// Reopening must not clear the completion timestamp.
	reopened, err := st.UpdateTaskStatus(ctx, task.ID, store.TaskInProgress)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.CompletedAt == nil || !reopened.CompletedAt.Equal(firstCompletion) {
		t.Fatalf("completed_at changed on reopen: %v", reopened.CompletedAt)
	}

	// Completing again must keep the original timestamp.
	time.Sleep(2 * time.Millisecond)
	again, err := st.UpdateTaskStatus(ctx, task.ID, store.TaskCompleted)
	if err != nil {
		t.Fatalf("re-complete: %v", err)
	}
	if again.CompletedAt == nil || !again.CompletedAt.Equal(firstCompletion) {
		t.Fatalf("completed_at rewritten on second completion: got %v want %v", again.CompletedAt, firstCompletion)
	}
}

func TestUpdateTaskStatusRejectsUnknownStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	task := testsupport.NewTask(t, st, store.NewTask{
		Title:     "Inventory pass",
		Priority:  store.PriorityLow,
		CreatedBy: "Jarvis",
	})
	if _, err := st.UpdateTaskStatus(context.Background(), task.ID, store.TaskStatus("archived")); err == nil {
		t.Fatal("expected rejection of unknown status")
	}
}

func TestAssignTask(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := st.EnsureAgent(ctx, "Okoye", "security"); err != nil {
		t.Fatalf("EnsureAgent: %v", err)
	}
	task := testsupport.NewTask(t, st, store.NewTask{
		Title:     "Perimeter sweep",
		Priority:  store.PriorityMedium,
		CreatedBy: "Jarvis",
	})

	assigned, err := st.AssignTask(ctx, task.ID, "Okoye")
	if err != nil {
		t.Fatalf("AssignTask: %v", err)
	}
	if assigned.AssignedAgent != "Okoye" {
		t.Fatalf("expected assignment to Okoye, got %q", assigned.AssignedAgent)
	}
}

func TestOverdueTasks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := st.EnsureAgent(ctx, "Vision", "analyst"); err != nil {
		t.Fatalf("EnsureAgent: %v", err)
	}

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	overdue := testsupport.NewTask(t, st, store.NewTask{
		Title:         "Send status digest",
		Priority:      store.PriorityMedium,
		AssignedAgent: "Vision",
		CreatedBy:     "Jarvis",
		DueDate:       &past,
	})
	testsupport.NewTask(t, st, store.NewTask{
		Title:         "Plan next sprint",
		Priority:      store.PriorityMedium,
		AssignedAgent: "Vision",
		CreatedBy:     "Jarvis",
		DueDate:       &future,
	})
	// Past due but unassigned: nobody to alert, so it is not reported.
	testsupport.NewTask(t, st, store.NewTask{
		Title:     "Label backlog",
		Priority:  store.PriorityLow,
		CreatedBy: "Jarvis",
		DueDate:   &past,
	})
	lateButDone := testsupport.NewTask(t, st, store.NewTask{
		Title:         "Close out audit",
		Priority:      store.PriorityMedium,
		AssignedAgent: "Vision",
		CreatedBy:     "Jarvis",
		DueDate:       &past,
	})
	if _, err := st.UpdateTaskStatus(ctx, lateButDone.ID, store.TaskCompleted); err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}

	tasks, err := st.OverdueTasks(ctx, now)
	if err != nil {
		t.Fatalf("OverdueTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != overdue.ID {
		t.Fatalf("expected only the open past-due task, got %d results", len(tasks))
	}
}

func TestTasksCompletedBetweenUsesHalfOpenWindow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	task := testsupport.NewTask(t, st, store.NewTask{
		Title:     "Ship weekly build",
		Priority:  store.PriorityHigh,
		CreatedBy: "Jarvis",
	})
	done, err := st.UpdateTaskStatus(ctx, task.ID, store.TaskCompleted)
	if err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}
	completedAt := *done.CompletedAt

	inWindow, err := st.TasksCompletedBetween(ctx, completedAt.Add(-time.Minute), completedAt.Add(time.Minute))
	if err != nil {
		t.Fatalf("TasksCompletedBetween: %v", err)
	}
	if len(inWindow) != 1 {
		t.Fatalf("expected 1 task inside window, got %d", len(inWindow))
	}

	// End bound is exclusive.
	atBoundary, err := st.TasksCompletedBetween(ctx, completedAt.Add(-time.Minute), completedAt)
	if err != nil {
		t.Fatalf("TasksCompletedBetween boundary: %v", err)
	}
	if len(atBoundary) != 0 {
		t.Fatalf("expected end bound to be exclusive, got %d", len(atBoundary))
	}
}
