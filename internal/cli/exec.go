package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bosunworks/bosun/internal/config"
	"github.com/bosunworks/bosun/internal/sandbox"
)

var execCmd = &cobra.Command{
	Use:   "exec -- <command>",
	Short: "Run one command through the sandbox",
	Long: `Runs a command inside the sandbox: a throwaway copy of the project tree,
a scrubbed environment, the configured deny list, and a hard timeout.
Prints the captured output and exits with the command's exit code.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func init() {
	execCmd.Flags().Int("timeout", 0, "Timeout in seconds (0 uses the configured default)")
}

func runExec(cmd *cobra.Command, args []string) error {
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

	command := strings.Join(args, " ")
	res, err := box.ExecuteWithTimeout(cmd.Context(), command, time.Duration(timeoutSecs)*time.Second)
	if err != nil {
		box.Close()
		return err
	}

	fmt.Println(res.Output)

	box.Close()
	if res.ExitCode != 0 {
		os.Exit(res.ExitCode)
	}
	return nil
}
