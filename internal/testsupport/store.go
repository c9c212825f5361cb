package testsupport

import (
	"context"
	"testing"

	"muster/internal/config"
	"muster/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedRoster registers every roster agent from the config in the store.
func SeedRoster(t testing.TB, st *store.Store, cfg *config.Config) {
	t.Helper()

	for _, agent := range cfg.Roster.Agents {
		if _, err := st.EnsureAgent(context.Background(), agent.Name, agent.Role); err != nil {
			t.Fatalf("store.EnsureAgent %s: %v", agent.Name, err)
		}
	}
}

// NewTask creates a task for tests using the provided store.
func NewTask(t testing.TB, st *store.Store, spec store.NewTask) *store.Task {
	t.Helper()

	task, err := st.CreateTask(context.Background(), spec)
	if err != nil {
		t.Fatalf("store.CreateTask: %v", err)
	}
	return task
}
