package taskgraph

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// ParseStatus normalizes a raw status string (whitespace and case are
// forgiven) and rejects anything outside the known set.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return s, nil
	default:
		return "", &ValidationError{Reason: fmt.Sprintf("invalid status %q: use pending, in_progress, or completed", raw)}
	}
}

// Task is one unit of trackable work. BlockedBy and Blocks are two views
// of the same relation: B appears in A's BlockedBy exactly when A
// appears in B's Blocks.
type Task struct {
	ID          int    `json:"id"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Status      Status `json:"status"`
	BlockedBy   []int  `json:"blockedBy"`
	Blocks      []int  `json:"blocks"`
	Owner       string `json:"owner"`
}

// Ready reports whether the task is actionable right now: pending with
// nothing blocking it.
func (t *Task) Ready() bool {
	return t.Status == StatusPending && len(t.BlockedBy) == 0
}
