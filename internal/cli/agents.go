package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bosunworks/bosun/internal/agents"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Manage subagent definitions",
	RunE:  runAgentsList, // bare "bosun agents" lists
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available agents",
	RunE:  runAgentsList,
}

var agentsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show agent details",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgentsShow,
}

func init() {
	agentsCmd.AddCommand(agentsListCmd)
	agentsCmd.AddCommand(agentsShowCmd)
}

func agentRoots() []string {
	cwd, _ := os.Getwd()
	return agents.DefaultDirs(cwd)
}

func runAgentsList(cmd *cobra.Command, args []string) error {
	idx := agents.Discover(agentRoots()...)

	fmt.Println("Available Agents:")
	fmt.Println()
	for _, a := range idx.All() {
		marker := ""
		if a.Builtin {
			marker = " (builtin)"
		}
		fmt.Printf("  %-20s %s%s\n", a.Name, a.Description, marker)
	}
	fmt.Println()
	fmt.Println("Use 'bosun agents show <name>' for details.")

	return nil
}

func runAgentsShow(cmd *cobra.Command, args []string) error {
	agent, err := agents.Load(args[0], agentRoots()...)
	if err != nil {
		return err
	}

	fmt.Printf("Agent: %s\n", agent.Name)
	fmt.Printf("Description: %s\n", agent.Description)
	if len(agent.Tools) > 0 {
		fmt.Printf("Tools: %s\n", strings.Join(agent.Tools, ", "))
	}
	if len(agent.Skills) > 0 {
		fmt.Printf("Skills: %s\n", strings.Join(agent.Skills, ", "))
	}
	fmt.Println()
	fmt.Println(strings.TrimSpace(agent.SystemPrompt))

	return nil
}
