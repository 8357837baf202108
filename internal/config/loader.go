package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load merges configuration for the current working directory.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(cwd)
}

// LoadFrom merges configuration for an explicit project directory:
// defaults, then ~/.bosun/config.yaml, then <projectDir>/.bosun/config.yaml,
// then BOSUN_* environment variables.
func LoadFrom(projectDir string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if home, err := os.UserHomeDir(); err == nil {
		mergeFile(v, filepath.Join(home, ".bosun", "config.yaml"))
	}
	mergeFile(v, filepath.Join(projectDir, ".bosun", "config.yaml"))

	v.SetEnvPrefix("BOSUN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg.ProjectDir = projectDir
	if cfg.Project.Name == "" {
		cfg.Project.Name = filepath.Base(projectDir)
	}
	return cfg, nil
}

// mergeFile layers one YAML file into v. Missing files are fine;
// unreadable ones are skipped so a broken config cannot brick the CLI.
func mergeFile(v *viper.Viper, path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return
	}
	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: skipping config %s: %v\n", path, err)
	}
}

func setDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("version", def.Version)
	v.SetDefault("project.name", "")
	v.SetDefault("tasks.dir", "")
	v.SetDefault("sandbox.timeout_secs", def.Sandbox.TimeoutSecs)
	v.SetDefault("sandbox.max_output_bytes", def.Sandbox.MaxOutputBytes)
	v.SetDefault("sandbox.deny", []string{})
	v.SetDefault("sandbox.allow_env", []string{})
	v.SetDefault("background.max_jobs", def.Background.MaxJobs)
	v.SetDefault("background.notification_limit", def.Background.NotificationLimit)
	v.SetDefault("compaction.token_budget", def.Compaction.TokenBudget)
	v.SetDefault("compaction.keep_recent", def.Compaction.KeepRecent)
	v.SetDefault("compaction.tool_result_keep", def.Compaction.ToolResultKeep)
	v.SetDefault("compaction.tool_result_limit", def.Compaction.ToolResultLimit)
	v.SetDefault("summarizer.base_url", def.Summarizer.BaseURL)
	v.SetDefault("summarizer.model", def.Summarizer.Model)
	v.SetDefault("history.enabled", def.History.Enabled)
	v.SetDefault("briefing.include_tasks", def.Briefing.IncludeTasks)
	v.SetDefault("briefing.include_history", def.Briefing.IncludeHistory)
	v.SetDefault("briefing.history_entries", def.Briefing.HistoryEntries)
	v.SetDefault("briefing.include_skills", def.Briefing.IncludeSkills)
	v.SetDefault("web.addr", def.Web.Addr)
}

// GlobalDir returns the path to the global bosun directory
func GlobalDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".bosun")
}

// GlobalConfigPath returns the path to the global config file
func GlobalConfigPath() string {
	return filepath.Join(GlobalDir(), "config.yaml")
}

// ProjectConfigPath returns the path to a project's config file
func ProjectConfigPath(projectDir string) string {
	return filepath.Join(projectDir, ".bosun", "config.yaml")
}

// HistoryDBPath returns the path to the global history database
func HistoryDBPath() string {
	return filepath.Join(GlobalDir(), "history.db")
}
