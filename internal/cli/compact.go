package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bosunworks/bosun/internal/config"
	"github.com/bosunworks/bosun/internal/history"
	"github.com/bosunworks/bosun/internal/summarize"
	"github.com/bosunworks/bosun/internal/transcript"
)

var compactCmd = &cobra.Command{
	Use:   "compact <transcript.jsonl>",
	Short: "Compact a saved transcript",
	Long: `Reads a JSONL transcript, folds stale tool results, summarizes everything
but the newest messages with the configured local model, and prints the
compacted transcript as JSONL on stdout.

The input file is never modified; the full pre-compaction history is
archived under .bosun/transcripts/ first.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompact,
}

func init() {
	compactCmd.Flags().String("focus", "", "Priority topic the summary should preserve")
	compactCmd.Flags().Bool("check", false, "Only report the token estimate, do not compact")
}

func runCompact(cmd *cobra.Command, args []string) error {
	focus, _ := cmd.Flags().GetString("focus")
	checkOnly, _ := cmd.Flags().GetBool("check")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store := transcript.NewStore(cfg.TranscriptsDir())
	messages, err := store.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load transcript: %w", err)
	}

	client := summarize.NewClient(
		summarize.WithBaseURL(cfg.Summarizer.BaseURL),
		summarize.WithModel(cfg.Summarizer.Model),
	)
	comp := transcript.NewCompactor(store, client, transcript.Options{
		TokenBudget:     cfg.Compaction.TokenBudget,
		KeepRecent:      cfg.Compaction.KeepRecent,
		ToolResultKeep:  cfg.Compaction.ToolResultKeep,
		ToolResultLimit: cfg.Compaction.ToolResultLimit,
	})

	before := comp.EstimateTokens(messages)
	if checkOnly {
		over := ""
		if before > cfg.Compaction.TokenBudget {
			over = " (over budget)"
		}
		fmt.Printf("%d messages, ~%d tokens, budget %d%s\n", len(messages), before, cfg.Compaction.TokenBudget, over)
		return nil
	}

	folded := comp.MicroCompact(messages)
	compacted, archive, err := comp.Compact(cmd.Context(), messages, focus)
	if err != nil {
		return fmt.Errorf("compaction failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	for i := range compacted {
		if err := enc.Encode(&compacted[i]); err != nil {
			return err
		}
	}

	// Keep stdout pure JSONL; the bookkeeping goes to stderr
	fmt.Fprintf(os.Stderr, "compacted %d -> %d messages (~%d -> ~%d tokens), folded %d tool results\n",
		len(messages), len(compacted), before, comp.EstimateTokens(compacted), folded)
	if archive != "" {
		fmt.Fprintf(os.Stderr, "full history archived to %s\n", archive)
	}

	if cfg.History.Enabled {
		if hist, err := history.Open(config.HistoryDBPath()); err == nil {
			hist.Record(&history.Event{
				SessionID: uuid.New().String()[:8],
				Project:   cfg.Project.Name,
				Type:      history.EventCompaction,
				Summary:   fmt.Sprintf("compacted %d messages to %d", len(messages), len(compacted)),
				Metadata:  map[string]any{"archive": archive, "folded": folded},
			})
			hist.Close()
		}
	}
	return nil
}
