package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bosunworks/bosun/internal/assets"
	"github.com/bosunworks/bosun/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize bosun in current directory or globally",
	Long: `Initialize a bosun workspace.

Without flags: Creates .bosun/ in the current directory for project-specific
configuration and task records.
With --global: Creates ~/.bosun/ with default config, starter skill, and
starter agent definition.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().Bool("global", false, "Initialize global bosun installation at ~/.bosun/")
	initCmd.Flags().Bool("force", false, "Overwrite existing files")
}

func runInit(cmd *cobra.Command, args []string) error {
	global, _ := cmd.Flags().GetBool("global")
	force, _ := cmd.Flags().GetBool("force")

	if global {
		return initGlobal(force)
	}
	return initProject(force)
}

func initGlobal(force bool) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	bosunHome := filepath.Join(home, ".bosun")

	// Check existing
	if exists(bosunHome) && !force {
		return fmt.Errorf("~/.bosun already exists (use --force to overwrite)")
	}

	// Create directory structure
	dirs := []string{
		bosunHome,
		filepath.Join(bosunHome, "skills"),
		filepath.Join(bosunHome, "agents"),
		filepath.Join(bosunHome, "cache"),
		filepath.Join(bosunHome, "logs"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	// Install starter skill and agent from embedded assets
	if err := installEmbedded("templates/SKILL.md", filepath.Join(bosunHome, "skills", "example-skill", "SKILL.md")); err != nil {
		return fmt.Errorf("failed to install starter skill: %w", err)
	}
	if err := installEmbedded("templates/agent.md", filepath.Join(bosunHome, "agents", "example-agent.md")); err != nil {
		return fmt.Errorf("failed to install starter agent: %w", err)
	}

	// Create default config
	configPath := filepath.Join(bosunHome, "config.yaml")
	if err := config.WriteDefault(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Println("Initialized global bosun at ~/.bosun/")
	fmt.Println("")
	fmt.Println("Created:")
	fmt.Println("  ~/.bosun/skills/       - Skills (starter installed)")
	fmt.Println("  ~/.bosun/agents/       - Agent definitions (starter installed)")
	fmt.Println("  ~/.bosun/config.yaml   - Configuration")
	fmt.Println("")
	fmt.Println("Next steps:")
	fmt.Println("  1. cd to a project directory")
	fmt.Println("  2. Run: bosun init")
	fmt.Println("  3. Edit .bosun/profile.md to describe your project")
	fmt.Println("  4. Check the setup: bosun doctor")

	return nil
}

func initProject(force bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	bosunDir := filepath.Join(cwd, ".bosun")

	// Check existing
	if exists(bosunDir) && !force {
		return fmt.Errorf(".bosun already exists (use --force to overwrite)")
	}

	// Create directory structure
	dirs := []string{
		bosunDir,
		filepath.Join(bosunDir, "tasks"),
		filepath.Join(bosunDir, "transcripts"),
		filepath.Join(bosunDir, "skills"),
		filepath.Join(bosunDir, "agents"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	// Create project config
	configPath := filepath.Join(bosunDir, "config.yaml")
	if err := config.WriteProjectDefault(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	// Create profile template
	profilePath := filepath.Join(bosunDir, "profile.md")
	if err := installEmbedded("templates/profile.md", profilePath); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}

	fmt.Println("Initialized bosun in current project")
	fmt.Println("")
	fmt.Println("Created:")
	fmt.Println("  .bosun/config.yaml  - Project configuration")
	fmt.Println("  .bosun/profile.md   - Project description")
	fmt.Println("  .bosun/tasks/       - Task records")
	fmt.Println("  .bosun/transcripts/ - Saved transcripts")
	fmt.Println("")
	fmt.Println("Next steps:")
	fmt.Println("  1. Edit .bosun/profile.md to describe your project")
	fmt.Println("  2. Add a first task: bosun tasks add \"...\"")

	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func installEmbedded(src, dst string) error {
	content, err := assets.Templates.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(dst, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}
