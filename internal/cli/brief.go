package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bosunworks/bosun/internal/briefing"
	"github.com/bosunworks/bosun/internal/config"
	"github.com/bosunworks/bosun/internal/history"
	"github.com/bosunworks/bosun/internal/skills"
	"github.com/bosunworks/bosun/internal/taskgraph"
)

var briefCmd = &cobra.Command{
	Use:   "brief",
	Short: "Print the session briefing",
	Long:  `Renders the markdown block a session starts from: project profile, task board, recent activity, and available skills.`,
	RunE:  runBrief,
}

func runBrief(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	src := briefing.Sources{Config: cfg}

	// Only attach sources that already exist so a briefing outside an
	// initialized project does not scaffold directories.
	if exists(cfg.TasksDir()) {
		if mgr, err := taskgraph.NewManager(cfg.TasksDir()); err == nil {
			src.Manager = mgr
		}
	}
	if cfg.History.Enabled && exists(config.HistoryDBPath()) {
		if hist, err := history.Open(config.HistoryDBPath()); err == nil {
			src.History = hist
			defer hist.Close()
		}
	}
	src.Skills = skills.Discover(skills.DefaultDirs(cfg.ProjectDir)...)

	fmt.Print(briefing.Generate(src).Render())
	return nil
}
