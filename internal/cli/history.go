package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/bosunworks/bosun/internal/config"
	"github.com/bosunworks/bosun/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded session events",
	RunE:  runHistoryList,
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show event counts by type",
	RunE:  runHistoryStats,
}

func init() {
	historyCmd.AddCommand(historyStatsCmd)

	historyCmd.Flags().Int("limit", 10, "Number of events to show")
	historyCmd.Flags().String("session", "", "Show one session's full timeline")
	historyCmd.Flags().Bool("all", false, "Include events from every project")
}

func printEvent(e history.Event, withProject bool) {
	stamp := e.Timestamp.Format("2006-01-02 15:04")
	if withProject {
		fmt.Printf("  %s  %-14s %-16s %s\n", stamp, e.Project, e.Type, e.Summary)
		return
	}
	fmt.Printf("  %s  %-16s %s\n", stamp, e.Type, e.Summary)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	sessionID, _ := cmd.Flags().GetString("session")
	all, _ := cmd.Flags().GetBool("all")

	dbPath := config.HistoryDBPath()
	if !exists(dbPath) {
		fmt.Println("No history recorded yet.")
		return nil
	}

	store, err := history.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	if sessionID != "" {
		events, err := store.Session(sessionID)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return fmt.Errorf("no events for session %s", sessionID)
		}

		fmt.Printf("Session %s (%d events):\n\n", sessionID, len(events))
		for _, e := range events {
			printEvent(e, false)
		}
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	project := cfg.Project.Name
	if all {
		project = ""
	}

	events, err := store.Recent(project, limit)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("No history for this project yet (try --all).")
		return nil
	}

	fmt.Printf("Recent events (%d):\n\n", len(events))
	for _, e := range events {
		printEvent(e, all)
	}
	return nil
}

func runHistoryStats(cmd *cobra.Command, args []string) error {
	dbPath := config.HistoryDBPath()
	if !exists(dbPath) {
		fmt.Println("No history recorded yet.")
		return nil
	}

	store, err := history.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	counts, err := store.CountByType()
	if err != nil {
		return err
	}
	if len(counts) == 0 {
		fmt.Println("No history recorded yet.")
		return nil
	}

	types := make([]string, 0, len(counts))
	total := 0
	for t, n := range counts {
		types = append(types, t)
		total += n
	}
	sort.Strings(types)

	fmt.Printf("Events by type (%d total):\n\n", total)
	for _, t := range types {
		fmt.Printf("  %-16s %d\n", t, counts[t])
	}
	return nil
}
