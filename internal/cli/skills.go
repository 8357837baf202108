package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bosunworks/bosun/internal/config"
	"github.com/bosunworks/bosun/internal/skills"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Manage skills",
	RunE:  runSkillsList, // bare "bosun skills" lists
}

var skillsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List discovered skills",
	RunE:  runSkillsList,
}

var skillsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a skill's instructions",
	Args:  cobra.ExactArgs(1),
	RunE:  runSkillsShow,
}

func init() {
	skillsCmd.AddCommand(skillsListCmd)
	skillsCmd.AddCommand(skillsShowCmd)
}

func discoverSkills() *skills.Index {
	cwd, _ := os.Getwd()
	return skills.Discover(skills.DefaultDirs(cwd)...)
}

func skillSource(s *skills.Skill) string {
	if strings.HasPrefix(s.Path, config.GlobalDir()) {
		return "global"
	}
	return "project"
}

func runSkillsList(cmd *cobra.Command, args []string) error {
	idx := discoverSkills()

	if idx.Len() == 0 {
		fmt.Println("No skills found. Run 'bosun init --global' to install the starter skill.")
		return nil
	}

	fmt.Println("Available Skills:")
	fmt.Println()
	for _, s := range idx.All() {
		fmt.Printf("  %-24s %-8s %s\n", s.Name, skillSource(s), s.Description)
	}
	fmt.Println()
	fmt.Println("Use 'bosun skills show <name>' for the full instructions.")

	return nil
}

func runSkillsShow(cmd *cobra.Command, args []string) error {
	idx := discoverSkills()

	s, ok := idx.Resolve(args[0])
	if !ok {
		return fmt.Errorf("skill not found: %s", args[0])
	}

	fmt.Printf("Skill: %s (%s)\n", s.Name, skillSource(s))
	if s.Description != "" {
		fmt.Printf("Description: %s\n", s.Description)
	}
	fmt.Printf("Source: %s\n", s.Path)
	fmt.Println()
	fmt.Println(s.Body)

	return nil
}
