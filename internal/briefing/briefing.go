// Package briefing assembles the session-start context block: project
// profile, task board state, recent history, and available skills,
// rendered as markdown for prompt injection. Every source is best
// effort; a missing profile or unreachable history just drops that
// section.
package briefing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bosunworks/bosun/internal/config"
	"github.com/bosunworks/bosun/internal/history"
	"github.com/bosunworks/bosun/internal/skills"
	"github.com/bosunworks/bosun/internal/taskgraph"
)

// Sources are the inputs a briefing draws from. Nil entries are
// skipped.
type Sources struct {
	Config  *config.Config
	Manager *taskgraph.Manager
	History *history.Store
	Skills  *skills.Index
}

// Briefing holds the gathered sections before rendering.
type Briefing struct {
	ProjectName    string
	ProjectContext string
	Board          *taskgraph.Board
	RecentEvents   []history.Event
	SkillList      string
	GeneratedAt    time.Time
}

// Generate collects every enabled section.
func Generate(src Sources) *Briefing {
	cfg := src.Config
	b := &Briefing{
		ProjectName: cfg.Project.Name,
		GeneratedAt: time.Now(),
	}

	if profile, err := loadProfile(cfg.ProjectDir); err == nil && profile != "" {
		b.ProjectContext = profile
	}

	if cfg.Briefing.IncludeTasks && src.Manager != nil {
		if board, err := src.Manager.ListAll(); err == nil && board.Count > 0 {
			b.Board = board
		}
	}

	if cfg.Briefing.IncludeHistory && src.History != nil {
		limit := cfg.Briefing.HistoryEntries
		if events, err := src.History.Recent(cfg.Project.Name, limit); err == nil && len(events) > 0 {
			b.RecentEvents = events
		}
	}

	if cfg.Briefing.IncludeSkills && src.Skills != nil && src.Skills.Len() > 0 {
		b.SkillList = src.Skills.Describe()
	}

	return b
}

// Render converts the briefing to markdown.
func (b *Briefing) Render() string {
	var sb strings.Builder

	name := b.ProjectName
	if name == "" {
		name = "untitled project"
	}
	sb.WriteString(fmt.Sprintf("# Bosun Briefing: %s\n\n", name))

	if b.ProjectContext != "" {
		sb.WriteString("## Project Context\n\n")
		sb.WriteString(b.ProjectContext)
		sb.WriteString("\n\n")
	}

	if b.Board != nil && b.Board.Count > 0 {
		writeBoard(&sb, b.Board)
	}

	if len(b.RecentEvents) > 0 {
		sb.WriteString("## Recent Activity\n\n")
		for _, e := range b.RecentEvents {
			age := formatDuration(b.GeneratedAt.Sub(e.Timestamp))
			sb.WriteString(fmt.Sprintf("- %s ago: %s\n", age, e.Summary))
		}
		sb.WriteString("\n")
	}

	if b.SkillList != "" {
		sb.WriteString("## Skills\n\n")
		sb.WriteString(b.SkillList)
		sb.WriteString("\n\n")
	}

	sb.WriteString("---\n\nReady to continue. What would you like to work on?\n")
	return sb.String()
}

func writeBoard(sb *strings.Builder, board *taskgraph.Board) {
	sb.WriteString("## Task Board\n\n")
	sb.WriteString(fmt.Sprintf("**Status**: %d completed, %d in progress, %d ready, %d blocked\n\n",
		len(board.Completed), len(board.InProgress), len(board.Ready), len(board.Blocked)))

	if len(board.InProgress) > 0 {
		sb.WriteString("**In Progress:**\n")
		for _, t := range board.InProgress {
			sb.WriteString(fmt.Sprintf("- #%d %s\n", t.ID, t.Subject))
		}
		sb.WriteString("\n")
	}

	if len(board.Ready) > 0 {
		sb.WriteString("**Ready to Start:**\n")
		for _, t := range board.Ready {
			sb.WriteString(fmt.Sprintf("- #%d %s\n", t.ID, t.Subject))
		}
		sb.WriteString("\n")
	}

	if len(board.Blocked) > 0 {
		sb.WriteString("**Blocked:**\n")
		for _, t := range board.Blocked {
			deps := make([]string, 0, len(t.BlockedBy))
			for _, id := range t.BlockedBy {
				deps = append(deps, fmt.Sprintf("#%d", id))
			}
			sb.WriteString(fmt.Sprintf("- #%d %s (waiting on %s)\n", t.ID, t.Subject, strings.Join(deps, ", ")))
		}
		sb.WriteString("\n")
	}
}

func loadProfile(projectDir string) (string, error) {
	content, err := os.ReadFile(filepath.Join(projectDir, ".bosun", "profile.md"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(content)), nil
}

func formatDuration(d time.Duration) string {
	if d < time.Hour {
		minutes := int(d.Minutes())
		if minutes < 1 {
			minutes = 1
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%d hours", int(d.Hours()))
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
