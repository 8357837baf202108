package config

import "path/filepath"

// Config is the merged bosun configuration: built-in defaults, then the
// global file (~/.bosun/config.yaml), then the project file
// (.bosun/config.yaml), then BOSUN_* environment variables.
type Config struct {
	Version string `yaml:"version" mapstructure:"version"`

	// Project-specific settings (normally only in the project config)
	Project ProjectConfig `yaml:"project" mapstructure:"project"`

	// Task graph storage
	Tasks TasksConfig `yaml:"tasks" mapstructure:"tasks"`

	// Sandboxed command execution
	Sandbox SandboxConfig `yaml:"sandbox" mapstructure:"sandbox"`

	// Background job runner
	Background BackgroundConfig `yaml:"background" mapstructure:"background"`

	// Transcript compaction
	Compaction CompactionConfig `yaml:"compaction" mapstructure:"compaction"`

	// Local model used for transcript summaries
	Summarizer SummarizerConfig `yaml:"summarizer" mapstructure:"summarizer"`

	// Session history recording
	History HistoryConfig `yaml:"history" mapstructure:"history"`

	// Session briefing generation
	Briefing BriefingConfig `yaml:"briefing" mapstructure:"briefing"`

	// Read-only task board server
	Web WebConfig `yaml:"web" mapstructure:"web"`

	// ProjectDir is the directory the project config was resolved
	// against. Set by Load, never read from a file.
	ProjectDir string `yaml:"-" mapstructure:"-"`
}

// ProjectConfig holds project-specific settings
type ProjectConfig struct {
	Name string `yaml:"name" mapstructure:"name"`
}

// TasksConfig configures where task records live
type TasksConfig struct {
	// Dir overrides the default .bosun/tasks location. Relative paths
	// resolve against the project directory.
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// SandboxConfig configures the command sandbox
type SandboxConfig struct {
	TimeoutSecs    int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxOutputBytes int      `yaml:"max_output_bytes" mapstructure:"max_output_bytes"`
	Deny           []string `yaml:"deny" mapstructure:"deny"`
	AllowEnv       []string `yaml:"allow_env" mapstructure:"allow_env"`
}

// BackgroundConfig configures the background job runner
type BackgroundConfig struct {
	MaxJobs           int `yaml:"max_jobs" mapstructure:"max_jobs"`
	NotificationLimit int `yaml:"notification_limit" mapstructure:"notification_limit"`
}

// CompactionConfig configures transcript compaction
type CompactionConfig struct {
	TokenBudget     int `yaml:"token_budget" mapstructure:"token_budget"`
	KeepRecent      int `yaml:"keep_recent" mapstructure:"keep_recent"`
	ToolResultKeep  int `yaml:"tool_result_keep" mapstructure:"tool_result_keep"`
	ToolResultLimit int `yaml:"tool_result_limit" mapstructure:"tool_result_limit"`
}

// SummarizerConfig points at an Ollama-compatible endpoint used to
// summarize transcripts during compaction
type SummarizerConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// HistoryConfig configures the event log
type HistoryConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// BriefingConfig configures session briefing generation
type BriefingConfig struct {
	IncludeTasks   bool `yaml:"include_tasks" mapstructure:"include_tasks"`
	IncludeHistory bool `yaml:"include_history" mapstructure:"include_history"`
	HistoryEntries int  `yaml:"history_entries" mapstructure:"history_entries"`
	IncludeSkills  bool `yaml:"include_skills" mapstructure:"include_skills"`
}

// WebConfig configures the task board server
type WebConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// TasksDir resolves the directory holding task records.
func (c *Config) TasksDir() string {
	dir := c.Tasks.Dir
	if dir == "" {
		return filepath.Join(c.ProjectDir, ".bosun", "tasks")
	}
	if !filepath.IsAbs(dir) {
		return filepath.Join(c.ProjectDir, dir)
	}
	return dir
}

// TranscriptsDir resolves the directory holding session transcripts.
func (c *Config) TranscriptsDir() string {
	return filepath.Join(c.ProjectDir, ".bosun", "transcripts")
}
