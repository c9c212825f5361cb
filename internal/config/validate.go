package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateRoster(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		return errors.New("paths.workspace_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateRoster() error {
	if len(c.Roster.Agents) == 0 {
		return errors.New("roster.agents must list at least one agent")
	}

	seen := make(map[string]string, len(c.Roster.Agents))
	for _, agent := range c.Roster.Agents {
		key := strings.ToLower(agent.Name)
		if prior, ok := seen[key]; ok {
			return fmt.Errorf("roster.agents contains duplicate name %q (conflicts with %q, names are case-insensitive)", agent.Name, prior)
		}
		seen[key] = agent.Name
	}

	if c.Roster.Coordinator == "" {
		return errors.New("roster.coordinator must be set")
	}
	if _, ok := seen[strings.ToLower(c.Roster.Coordinator)]; !ok {
		return fmt.Errorf("roster.coordinator %q is not a roster agent", c.Roster.Coordinator)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
