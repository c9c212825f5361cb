package config

const (
	defaultDataDir      = "~/.local/share/muster"
	defaultWorkspaceDir = "~/.local/share/muster/agents"
	defaultLogDir       = "~/.local/share/muster/logs"

	defaultMentionWindowSeconds    = 300
	defaultAlertWindowHours        = 24
	defaultOfflineThresholdMinutes = 60
	defaultBusyTimeoutMillis       = 5000

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:      defaultDataDir,
			WorkspaceDir: defaultWorkspaceDir,
			LogDir:       defaultLogDir,
		},
		Roster: Roster{
			Coordinator: "Jarvis",
			Agents: []AgentSpec{
				{Name: "Jarvis", Role: "coordinator"},
				{Name: "Shuri", Role: "engineer"},
				{Name: "Fury", Role: "operations"},
				{Name: "Wanda", Role: "research"},
				{Name: "Vision", Role: "analysis"},
				{Name: "Loki", Role: "testing"},
				{Name: "Strange", Role: "architecture"},
				{Name: "Okoye", Role: "security"},
				{Name: "Banner", Role: "data"},
				{Name: "Quill", Role: "support"},
			},
		},
		Daemon: Daemon{
			MentionWindowSeconds:    defaultMentionWindowSeconds,
			AlertWindowHours:        defaultAlertWindowHours,
			OfflineThresholdMinutes: defaultOfflineThresholdMinutes,
			BusyTimeoutMillis:       defaultBusyTimeoutMillis,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
