package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bosunworks/bosun/internal/config"
	"github.com/bosunworks/bosun/internal/summarize"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check bosun installation health",
	Long:  `Runs diagnostic checks on the bosun installation and reports pass/fail for each component.`,
	RunE:  runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	bosunHome := filepath.Join(home, ".bosun")
	passed := 0
	failed := 0

	check := func(name string, ok bool, detail string) {
		if ok {
			fmt.Printf("  ✓ %s\n", name)
			passed++
		} else {
			fmt.Printf("  ✗ %s: %s\n", name, detail)
			failed++
		}
	}

	// Global installation
	fmt.Println("Global installation:")
	check("~/.bosun/ directory", exists(bosunHome), "run: bosun init --global")
	check("~/.bosun/config.yaml", exists(filepath.Join(bosunHome, "config.yaml")), "run: bosun init --global")
	check("~/.bosun/skills/", exists(filepath.Join(bosunHome, "skills")), "run: bosun init --global")
	check("~/.bosun/agents/", exists(filepath.Join(bosunHome, "agents")), "run: bosun init --global")

	// Configuration
	fmt.Println()
	fmt.Println("Configuration:")
	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		check("config readable", false, cfgErr.Error())
	} else {
		check("config readable", true, "")
	}

	// History
	fmt.Println()
	fmt.Println("History:")
	dbPath := config.HistoryDBPath()
	check("history database", exists(dbPath), "will be created on first session")

	// Summarizer
	fmt.Println()
	fmt.Println("Summarizer (for transcript compaction):")
	_, ollamaErr := exec.LookPath("ollama")
	check("ollama installed", ollamaErr == nil, "install from https://ollama.com")
	if cfgErr == nil && ollamaErr == nil {
		client := summarize.NewClient(
			summarize.WithBaseURL(cfg.Summarizer.BaseURL),
			summarize.WithModel(cfg.Summarizer.Model),
		)
		pingErr := client.Ping(cmd.Context())
		detail := ""
		if pingErr != nil {
			detail = pingErr.Error()
		}
		check(fmt.Sprintf("model %s reachable", client.Model()), pingErr == nil, detail)
	}

	// Project init
	fmt.Println()
	fmt.Println("Project (current directory):")
	cwd, _ := os.Getwd()
	projectBosun := filepath.Join(cwd, ".bosun")
	check(".bosun/ directory", exists(projectBosun), "run: bosun init")
	if exists(projectBosun) {
		check(".bosun/profile.md", exists(filepath.Join(projectBosun, "profile.md")), "run: bosun init")
		check(".bosun/config.yaml", exists(filepath.Join(projectBosun, "config.yaml")), "run: bosun init")
		check(".bosun/tasks/", exists(filepath.Join(projectBosun, "tasks")), "run: bosun init")
	}

	// Summary
	fmt.Println()
	fmt.Printf("Results: %d passed, %d failed\n", passed, failed)

	return nil
}
