// Package history keeps an append-only event log in SQLite. Sessions,
// task changes, sandboxed commands, finished background jobs, and
// transcript compactions all land here, so "what happened recently"
// survives process restarts. The database lives at ~/.bosun/history.db
// by default and is shared across projects, with each event tagged by
// its project name.
package history

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Event types recorded by the rest of the system.
const (
	EventSessionStart   = "session_start"
	EventSessionEnd     = "session_end"
	EventTaskCreated    = "task_created"
	EventTaskStatus     = "task_status"
	EventCommandRun     = "command_run"
	EventBackgroundDone = "background_done"
	EventCompaction     = "compaction"
)

// Event is one history row.
type Event struct {
	ID        int64          `json:"id"`
	SessionID string         `json:"session_id"`
	Project   string         `json:"project,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Type      string         `json:"type"`
	Summary   string         `json:"summary"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
}

// Open creates the database and schema if needed. The parent directory
// is created on demand.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_fk=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends one event. A zero Timestamp is filled with the
// current time; the assigned row id is written back into e.
func (s *Store) Record(e *Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	var metadataJSON any
	if len(e.Metadata) > 0 {
		raw, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		metadataJSON = string(raw)
	}

	res, err := s.db.Exec(`
		INSERT INTO events (session_id, project, timestamp, type, summary, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		e.SessionID, e.Project,
		e.Timestamp.Format(time.RFC3339),
		e.Type, e.Summary, metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		e.ID = id
	}
	return nil
}

// Recent returns the newest events first, optionally filtered down to
// one project. An empty project matches everything.
func (s *Store) Recent(project string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, session_id, project, timestamp, type, summary, metadata
		FROM events
	`
	args := []any{}
	if project != "" {
		query += " WHERE project = ?"
		args = append(args, project)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// Session returns one session's events in the order they happened.
func (s *Store) Session(sessionID string) ([]Event, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, project, timestamp, type, summary, metadata
		FROM events
		WHERE session_id = ?
		ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// CountByType aggregates the whole log for the doctor view.
func (s *Store) CountByType() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT type, COUNT(*) FROM events GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var eventType string
		var n int
		if err := rows.Scan(&eventType, &n); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		counts[eventType] = n
	}
	return counts, rows.Err()
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var e Event
		var timestamp string
		var metadataJSON sql.NullString

		if err := rows.Scan(&e.ID, &e.SessionID, &e.Project, &timestamp, &e.Type, &e.Summary, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}

		if t, err := time.Parse(time.RFC3339, timestamp); err != nil {
			log.Printf("warning: failed to parse timestamp for event %d: %v", e.ID, err)
		} else {
			e.Timestamp = t
		}
		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &e.Metadata); err != nil {
				log.Printf("warning: failed to parse metadata for event %d: %v", e.ID, err)
			}
		}

		events = append(events, e)
	}
	return events, rows.Err()
}
