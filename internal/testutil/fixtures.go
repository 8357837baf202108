package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// TaskRecord mirrors the on-disk task JSON.
// This is separate from taskgraph.Task to avoid import cycles.
type TaskRecord struct {
	ID          int    `json:"id"`
	Subject     string `json:"subject"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	BlockedBy   []int  `json:"blockedBy,omitempty"`
	Blocks      []int  `json:"blocks,omitempty"`
	Owner       string `json:"owner,omitempty"`
}

// CreateTaskFile writes a task record JSON file in the given tasks directory.
func CreateTaskFile(t *testing.T, dir string, task TaskRecord) {
	t.Helper()

	data, err := json.MarshalIndent(task, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal task: %v", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("task_%d.json", task.ID))
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write task file: %v", err)
	}
}

// SampleTaskRecords returns a small dependency chain for testing.
func SampleTaskRecords() []TaskRecord {
	return []TaskRecord{
		{
			ID:          1,
			Subject:     "Design the storage schema",
			Description: "Decide on record layout before writing any code",
			Status:      "in_progress",
			Blocks:      []int{2},
		},
		{
			ID:          2,
			Subject:     "Implement the store",
			Description: "File-backed persistence for task records",
			Status:      "pending",
			BlockedBy:   []int{1},
			Blocks:      []int{3},
		},
		{
			ID:          3,
			Subject:     "Wire the store into the CLI",
			Status:      "pending",
			BlockedBy:   []int{2},
		},
	}
}

// AsymmetricTaskRecords returns records whose dependency edges only
// appear on one side, the way hand-edited or externally written files
// tend to arrive.
func AsymmetricTaskRecords() []TaskRecord {
	return []TaskRecord{
		{
			ID:      1,
			Subject: "Publish the API",
			Status:  "pending",
			Blocks:  []int{2},
		},
		{
			// Missing the blockedBy side of the edge from task 1
			ID:      2,
			Subject: "Announce the release",
			Status:  "pending",
		},
	}
}
