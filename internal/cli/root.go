package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose bool
	rootCmd *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "bosun",
		Short: "Bosun - persistent task graph and tooling for agent sessions",
		Long: `Bosun keeps a dependency-aware task board next to your project and exposes
it to coding agents as MCP tools, together with sandboxed command execution,
background jobs, skills, and session history.

Running bosun with no arguments prints the session briefing.`,
		RunE:          runBrief, // Default action is the briefing
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

// Execute runs the root command
func Execute(version string) error {
	// Add subcommands here to ensure proper initialization order
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(bgCmd)
	rootCmd.AddCommand(skillsCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(briefCmd)
	rootCmd.AddCommand(compactCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(webCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)

	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
