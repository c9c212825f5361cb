package testsupport

import (
	"path/filepath"
	"testing"

	"muster/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.WorkspaceDir = filepath.Join(base, "workspace")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:   t,
		cfg: &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithRoster replaces the agent roster and coordinator on the test config.
func WithRoster(coordinator string, agents ...config.AgentSpec) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Roster.Coordinator = coordinator
		b.cfg.Roster.Agents = agents
	}
}

// WithMentionWindowSeconds overrides the trailing scan window.
func WithMentionWindowSeconds(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Daemon.MentionWindowSeconds = seconds
	}
}

// WithOfflineThresholdMinutes overrides the offline heartbeat threshold.
func WithOfflineThresholdMinutes(minutes int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Daemon.OfflineThresholdMinutes = minutes
	}
}
