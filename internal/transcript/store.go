package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Message is one conversation entry. Tool carries the tool name for
// role "tool" messages so a folded result can still say what ran.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Tool    string `json:"tool,omitempty"`
}

// Store writes full conversation snapshots as JSONL files, one message
// per line, so a compacted session can always be replayed from disk.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir. The directory is created on
// first save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the transcript directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes every message to a timestamped transcript and returns
// its path.
func (s *Store) Save(messages []Message) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create transcript directory: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("transcript_%d.jsonl", time.Now().UnixNano()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create transcript: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, msg := range messages {
		if err := enc.Encode(msg); err != nil {
			return "", fmt.Errorf("failed to write transcript line: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush transcript: %w", err)
	}
	return path, nil
}

// Load reads a transcript back. Blank lines are skipped.
func (s *Store) Load(path string) ([]Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	defer f.Close()

	var messages []Message
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse transcript line: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	return messages, nil
}

// List returns transcript paths, oldest first. A missing directory
// means no transcripts yet.
func (s *Store) List() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "transcript_*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}
