package taskgraph

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Store owns the on-disk task records: one JSON file per task inside a
// single directory. It also owns id allocation, seeded from the highest
// persisted id when the store opens and advanced in memory afterwards.
// Store takes no locks of its own; Manager serializes mutations.
type Store struct {
	dir string
	seq int
}

// NewStore opens the task directory, creating it if needed, and seeds
// the id sequence from the records already present.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create tasks directory: %w", err)
	}
	s := &Store{dir: dir}
	s.seq = s.maxID()
	return s, nil
}

// Dir returns the directory holding the task records.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(id int) string {
	return filepath.Join(s.dir, fmt.Sprintf("task_%d.json", id))
}

func (s *Store) maxID() int {
	matches, err := filepath.Glob(filepath.Join(s.dir, "task_*.json"))
	if err != nil {
		return 0
	}
	max := 0
	for _, m := range matches {
		stem := strings.TrimSuffix(filepath.Base(m), ".json")
		id, err := strconv.Atoi(strings.TrimPrefix(stem, "task_"))
		if err != nil {
			continue
		}
		if id > max {
			max = id
		}
	}
	return max
}

// nextID hands out the next task id. Callers must hold the manager's
// mutation lock; the sequence only moves forward once a create is going
// to be persisted.
func (s *Store) nextID() int {
	s.seq++
	return s.seq
}

// Exists reports whether a record for id is on disk.
func (s *Store) Exists(id int) bool {
	_, err := os.Stat(s.path(id))
	return err == nil
}

// Load reads one task record.
func (s *Store) Load(id int) (*Task, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("failed to read task %d: %w", id, err)
	}

	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse task %d: %w", id, err)
	}
	return &t, nil
}

// Save writes the full record, replacing any previous contents. Edge
// sets are stored sorted and de-duplicated so records stay canonical on
// disk and diffs stay readable.
func (s *Store) Save(t *Task) error {
	t.BlockedBy = canonical(t.BlockedBy)
	t.Blocks = canonical(t.Blocks)

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal task %d: %w", t.ID, err)
	}

	// Write atomically via temp file
	path := s.path(t.ID)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write task %d: %w", t.ID, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename task %d: %w", t.ID, err)
	}
	return nil
}

// List loads every record, sorted ascending by id. Files that cannot be
// read or parsed are skipped with a warning so one damaged record does
// not take down the whole view.
func (s *Store) List() ([]*Task, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "task_*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan tasks directory: %w", err)
	}

	tasks := make([]*Task, 0, len(matches))
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			log.Printf("warning: skipping unreadable task file %s: %v", m, err)
			continue
		}
		var t Task
		if err := json.Unmarshal(data, &t); err != nil {
			log.Printf("warning: skipping malformed task file %s: %v", m, err)
			continue
		}
		tasks = append(tasks, &t)
	}

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}
