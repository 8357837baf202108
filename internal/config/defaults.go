package config

import (
	"os"
)

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Sandbox: SandboxConfig{
			TimeoutSecs:    30,
			MaxOutputBytes: 100_000,
		},
		Background: BackgroundConfig{
			MaxJobs:           4,
			NotificationLimit: 20,
		},
		Compaction: CompactionConfig{
			TokenBudget:     12000,
			KeepRecent:      6,
			ToolResultKeep:  3,
			ToolResultLimit: 100,
		},
		Summarizer: SummarizerConfig{
			BaseURL: "http://localhost:11434",
			Model:   "llama3.2",
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Briefing: BriefingConfig{
			IncludeTasks:   true,
			IncludeHistory: true,
			HistoryEntries: 5,
			IncludeSkills:  true,
		},
		Web: WebConfig{
			Addr: "127.0.0.1:8787",
		},
	}
}

// WriteDefault writes the default global configuration to a file
func WriteDefault(path string) error {
	content := `# bosun global configuration
version: "1"

# Sandboxed command execution
sandbox:
  timeout_secs: 30
  max_output_bytes: 100000
  # Extra deny patterns (regular expressions) on top of the built-ins
  # deny:
  #   - "terraform +destroy"
  # Extra environment variables passed through to commands
  # allow_env:
  #   - GOPATH

# Background job runner
background:
  max_jobs: 4
  notification_limit: 20

# Transcript compaction
compaction:
  token_budget: 12000
  keep_recent: 6
  tool_result_keep: 3
  tool_result_limit: 100

# Local model used to summarize transcripts (Ollama-compatible API)
summarizer:
  base_url: http://localhost:11434
  model: llama3.2

# Session history (~/.bosun/history.db)
history:
  enabled: true

# Session briefing
briefing:
  include_tasks: true
  include_history: true
  history_entries: 5
  include_skills: true

# Task board server
web:
  addr: 127.0.0.1:8787
`
	return os.WriteFile(path, []byte(content), 0644)
}

// WriteProjectDefault writes the default project configuration to a file
func WriteProjectDefault(path string) error {
	content := `# bosun project configuration
version: "1"

# Project information
project:
  name: ""  # Auto-detected from directory name if empty

# Task records live in .bosun/tasks unless overridden
# tasks:
#   dir: .bosun/tasks

# Override global settings as needed
# sandbox:
#   timeout_secs: 30
# web:
#   addr: 127.0.0.1:8787
`
	return os.WriteFile(path, []byte(content), 0644)
}
