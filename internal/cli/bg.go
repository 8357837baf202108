package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bosunworks/bosun/internal/background"
	"github.com/bosunworks/bosun/internal/config"
	"github.com/bosunworks/bosun/internal/sandbox"
)

var bgCmd = &cobra.Command{
	Use:   "bg <command> [command...]",
	Short: "Run commands as parallel background jobs and wait",
	Long: `Runs each argument as its own sandboxed background job, up to
background.max_jobs at a time, and waits for all of them.

Inside an agent session the background_run and background_output tools
drive the same runner without waiting; those jobs belong to the serve
process and are not visible here.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBG,
}

func init() {
	bgCmd.Flags().Int("timeout", 0, "Per-job timeout in seconds (0 uses the 5 minute default)")
}

func runBG(cmd *cobra.Command, args []string) error {
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
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

	timeout := background.DefaultJobTimeout
	if timeoutSecs > 0 {
		timeout = time.Duration(timeoutSecs) * time.Second
	}

	for _, command := range args {
		job, err := jobs.Start(cmd.Context(), command, timeout)
		if err != nil {
			return err
		}
		fmt.Printf("started %s: %s\n", job.ID, job.Command)
	}

	jobs.Wait()

	failed := 0
	for _, job := range jobs.List() {
		fmt.Printf("\n=== %s: %s (%s, exit %d, %dms)\n", job.ID, job.Command, job.Status, job.ExitCode, job.DurationMS)
		if job.Output != "" {
			fmt.Println(job.Output)
		}
		if job.Status != background.StatusCompleted {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d jobs did not complete", failed, len(args))
	}
	return nil
}
