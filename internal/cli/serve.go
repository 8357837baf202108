package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bosunworks/bosun/internal/background"
	"github.com/bosunworks/bosun/internal/config"
	"github.com/bosunworks/bosun/internal/history"
	"github.com/bosunworks/bosun/internal/sandbox"
	"github.com/bosunworks/bosun/internal/taskgraph"
	"github.com/bosunworks/bosun/internal/toolserver"
)

var serveCmd = &cobra.Command{
	Use:    "serve",
	Short:  "Run the MCP stdio tool server",
	Long:   `Speaks line-delimited JSON-RPC on stdin/stdout. Meant to be launched by an agent harness, not by hand.`,
	Hidden: true,
	RunE:   runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	mgr, err := taskgraph.NewManager(cfg.TasksDir())
	if err != nil {
		return err
	}

	box, err := sandbox.NewRunner(cfg.ProjectDir, sandbox.Options{
		Timeout:        time.Duration(cfg.Sandbox.TimeoutSecs) * time.Second,
		MaxOutputBytes: cfg.Sandbox.MaxOutputBytes,
		Deny:           cfg.Sandbox.Deny,
		AllowEnv:       cfg.Sandbox.AllowEnv,
	})
	if err != nil {
		return fmt.Errorf("failed to set up sandbox: %w", err)
	}
	defer box.Close()

	jobs := background.NewRunner(box, cfg.Background.MaxJobs, cfg.Background.NotificationLimit)

	var hist *history.Store
	if cfg.History.Enabled {
		hist, err = history.Open(config.HistoryDBPath())
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: history disabled: %v\n", err)
			hist = nil
		} else {
			defer hist.Close()
		}
	}

	srv := toolserver.NewServer(toolserver.Options{
		Tasks:      mgr,
		Sandbox:    box,
		Background: jobs,
		History:    hist,
		Project:    cfg.Project.Name,
	})

	if hist != nil {
		sessionID := srv.SessionID()
		project := cfg.Project.Name

		jobs.OnFinish(func(n background.Notification) {
			hist.Record(&history.Event{
				SessionID: sessionID,
				Project:   project,
				Type:      history.EventBackgroundDone,
				Summary:   fmt.Sprintf("background job %s %s", n.JobID, n.Status),
				Metadata:  map[string]any{"command": n.Command, "status": string(n.Status)},
			})
		})

		hist.Record(&history.Event{
			SessionID: sessionID,
			Project:   project,
			Type:      history.EventSessionStart,
			Summary:   "session started",
		})
		defer hist.Record(&history.Event{
			SessionID: sessionID,
			Project:   project,
			Type:      history.EventSessionEnd,
			Summary:   "session ended",
		})
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "bosun serve: session %s, project %s\n", srv.SessionID(), cfg.Project.Name)
	}

	err = srv.Run(cmd.Context())
	jobs.Wait()
	return err
}
