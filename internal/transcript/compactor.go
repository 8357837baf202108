// Package transcript manages conversation history growth with three
// layers of compaction. Micro compaction folds stale tool outputs into
// one-line placeholders. Auto compaction fires when the estimated token
// count crosses the budget: it archives the full history to a JSONL
// transcript, summarizes everything but the newest messages, and
// replaces the history with a summary handoff pair plus that recent
// tail. Manual compaction is the same fold, triggered explicitly.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// maxSummarySourceChars caps how much serialized conversation is
	// handed to the summarizer.
	maxSummarySourceChars = 80_000

	summaryPrompt = "Summarize this coding conversation for continuity. " +
		"Include: 1) what was accomplished, 2) current project state, " +
		"3) key decisions and constraints, 4) pending tasks. " +
		"Be concise but preserve critical implementation details."

	handoffReply = "Understood. I have the context from the summary. Continuing."
)

// Summarizer produces the continuity summary during auto and manual
// compaction. Implementations call out to a model; tests script it.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// Options tune the compactor. Zero values fall back to defaults.
type Options struct {
	// TokenBudget is the estimated token count above which MaybeCompact
	// folds the history.
	TokenBudget int

	// KeepRecent is how many trailing messages survive a compaction
	// verbatim.
	KeepRecent int

	// ToolResultKeep is how many recent tool outputs micro compaction
	// leaves intact.
	ToolResultKeep int

	// ToolResultLimit is the content length under which a tool output
	// is never folded.
	ToolResultLimit int
}

// Compactor applies the three compaction layers.
type Compactor struct {
	store           *Store
	summarizer      Summarizer
	tokenBudget     int
	keepRecent      int
	toolResultKeep  int
	toolResultLimit int
}

// NewCompactor wires a compactor to its transcript store and
// summarizer.
func NewCompactor(store *Store, summarizer Summarizer, opts Options) *Compactor {
	if opts.TokenBudget <= 0 {
		opts.TokenBudget = 12_000
	}
	if opts.KeepRecent <= 0 {
		opts.KeepRecent = 6
	}
	if opts.ToolResultKeep <= 0 {
		opts.ToolResultKeep = 3
	}
	if opts.ToolResultLimit <= 0 {
		opts.ToolResultLimit = 100
	}
	return &Compactor{
		store:           store,
		summarizer:      summarizer,
		tokenBudget:     opts.TokenBudget,
		keepRecent:      opts.KeepRecent,
		toolResultKeep:  opts.ToolResultKeep,
		toolResultLimit: opts.ToolResultLimit,
	}
}

// EstimateTokens approximates the token count of a history at four
// characters per token over its serialized form.
func (c *Compactor) EstimateTokens(messages []Message) int {
	raw, err := json.Marshal(messages)
	if err != nil {
		return 0
	}
	return len(raw) / 4
}

// MicroCompact folds every tool output except the newest few into a
// placeholder naming the tool. Outputs already at or under the size
// limit are left alone. Messages are modified in place; the return
// value is how many were folded.
func (c *Compactor) MicroCompact(messages []Message) int {
	var toolIndexes []int
	for i, msg := range messages {
		if strings.EqualFold(msg.Role, "tool") {
			toolIndexes = append(toolIndexes, i)
		}
	}
	if len(toolIndexes) <= c.toolResultKeep {
		return 0
	}

	folded := 0
	for _, i := range toolIndexes[:len(toolIndexes)-c.toolResultKeep] {
		if len(messages[i].Content) <= c.toolResultLimit {
			continue
		}
		tool := messages[i].Tool
		if tool == "" {
			tool = "tool"
		}
		messages[i].Content = fmt.Sprintf("[Previous: used %s]", tool)
		folded++
	}
	return folded
}

// Compact archives the full history, summarizes everything but the
// most recent messages, and returns the replacement history along with
// the transcript path. Histories short enough to keep whole come back
// unchanged with an empty path.
func (c *Compactor) Compact(ctx context.Context, messages []Message, focus string) ([]Message, string, error) {
	if len(messages) <= c.keepRecent {
		return messages, "", nil
	}

	path, err := c.store.Save(messages)
	if err != nil {
		return nil, "", err
	}

	cut := len(messages) - c.keepRecent
	summary, err := c.summarize(ctx, messages[:cut], focus)
	if err != nil {
		return nil, "", err
	}

	compacted := make([]Message, 0, c.keepRecent+2)
	compacted = append(compacted,
		Message{
			Role:    "user",
			Content: fmt.Sprintf("[Conversation compressed. Transcript: %s]\n\n%s", path, summary),
		},
		Message{Role: "assistant", Content: handoffReply},
	)
	compacted = append(compacted, messages[cut:]...)
	return compacted, path, nil
}

// MaybeCompact folds the history only when it exceeds the token
// budget. The boolean reports whether a compaction happened.
func (c *Compactor) MaybeCompact(ctx context.Context, messages []Message, focus string) ([]Message, bool, error) {
	if c.EstimateTokens(messages) <= c.tokenBudget {
		return messages, false, nil
	}
	compacted, path, err := c.Compact(ctx, messages, focus)
	if err != nil {
		return nil, false, err
	}
	return compacted, path != "", nil
}

func (c *Compactor) summarize(ctx context.Context, messages []Message, focus string) (string, error) {
	raw, err := json.Marshal(messages)
	if err != nil {
		return "", fmt.Errorf("failed to serialize history: %w", err)
	}
	source := string(raw)
	if len(source) > maxSummarySourceChars {
		source = source[:maxSummarySourceChars]
	}

	prompt := summaryPrompt
	if focus = strings.TrimSpace(focus); focus != "" {
		prompt += "\nPriority focus: " + focus
	}
	prompt += "\n\nConversation:\n" + source

	summary, err := c.summarizer.Summarize(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to summarize history: %w", err)
	}
	if summary = strings.TrimSpace(summary); summary == "" {
		summary = "(summary unavailable)"
	}
	return summary, nil
}
