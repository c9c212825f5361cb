package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	WorkspaceDir string `toml:"workspace_dir"`
	LogDir       string `toml:"log_dir"`
}

// AgentSpec describes one roster member.
type AgentSpec struct {
	Name string `toml:"name"`
	Role string `toml:"role"`
}

// Roster contains the fixed agent roster and the coordinator designation.
type Roster struct {
	Coordinator string      `toml:"coordinator"`
	Agents      []AgentSpec `toml:"agents"`
}

// Daemon contains the notification daemon's scan windows and store timing.
type Daemon struct {
	// MentionWindowSeconds is the trailing scan window for the mention and
	// subscription passes.
	MentionWindowSeconds int `toml:"mention_window_seconds"`
	// AlertWindowHours is the rolling dedup window for overdue-task and
	// offline-agent alerts.
	AlertWindowHours int `toml:"alert_window_hours"`
	// OfflineThresholdMinutes is how stale a heartbeat must be before an
	// agent counts as offline.
	OfflineThresholdMinutes int `toml:"offline_threshold_minutes"`
	// BusyTimeoutMillis bounds how long a write waits on a locked store.
	BusyTimeoutMillis int `toml:"busy_timeout_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Muster.
//
// Configuration sections by subsystem:
//   - Paths: store, workspace, and log directories
//   - Roster: agent identities and the coordinator
//   - Daemon: notification scan windows and store busy timeout
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Roster  Roster  `toml:"roster"`
	Daemon  Daemon  `toml:"daemon"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/muster/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("muster.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRoster()
	c.normalizeDaemon()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("MUSTER_DATA_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.DataDir = value
	}
	if value, ok := os.LookupEnv("MUSTER_WORKSPACE_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.WorkspaceDir = value
	}

	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.WorkspaceDir, err = expandPath(c.Paths.WorkspaceDir); err != nil {
		return fmt.Errorf("paths.workspace_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRoster() {
	c.Roster.Coordinator = strings.TrimSpace(c.Roster.Coordinator)
	agents := make([]AgentSpec, 0, len(c.Roster.Agents))
	for _, agent := range c.Roster.Agents {
		agent.Name = strings.TrimSpace(agent.Name)
		agent.Role = strings.TrimSpace(agent.Role)
		if agent.Name == "" {
			continue
		}
		agents = append(agents, agent)
	}
	c.Roster.Agents = agents
}

func (c *Config) normalizeDaemon() {
	if c.Daemon.MentionWindowSeconds <= 0 {
		c.Daemon.MentionWindowSeconds = defaultMentionWindowSeconds
	}
	if c.Daemon.AlertWindowHours <= 0 {
		c.Daemon.AlertWindowHours = defaultAlertWindowHours
	}
	if c.Daemon.OfflineThresholdMinutes <= 0 {
		c.Daemon.OfflineThresholdMinutes = defaultOfflineThresholdMinutes
	}
	if c.Daemon.BusyTimeoutMillis <= 0 {
		c.Daemon.BusyTimeoutMillis = defaultBusyTimeoutMillis
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// EnsureDirectories creates required directories for store and snapshot output.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.WorkspaceDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StorePath returns the location of the shared SQLite database.
func (c *Config) StorePath() string {
	return filepath.Join(c.Paths.DataDir, "muster.db")
}

// MentionWindow returns the trailing scan window as a duration.
func (c *Config) MentionWindow() time.Duration {
	return time.Duration(c.Daemon.MentionWindowSeconds) * time.Second
}

// AlertWindow returns the rolling alert dedup window as a duration.
func (c *Config) AlertWindow() time.Duration {
	return time.Duration(c.Daemon.AlertWindowHours) * time.Hour
}

// OfflineThreshold returns how stale a heartbeat must be before an agent
// counts as offline.
func (c *Config) OfflineThreshold() time.Duration {
	return time.Duration(c.Daemon.OfflineThresholdMinutes) * time.Minute
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
