package taskgraph

import (
	"strings"
	"sync"
)

// Update describes a partial change to one task. Zero-valued fields are
// left untouched; Owner is a pointer so the owner tag can be cleared
// explicitly.
type Update struct {
	Status          string
	Owner           *string
	AddBlockedBy    []int
	AddBlocks       []int
	RemoveBlockedBy []int
	RemoveBlocks    []int
}

// Board groups the full task set into the views a planner acts on:
// ready is pending with nothing blocking, blocked is the complementary
// pending subset. It is recomputed from disk on every call.
type Board struct {
	Tasks      []*Task `json:"tasks"`
	Ready      []*Task `json:"ready"`
	Blocked    []*Task `json:"blocked"`
	InProgress []*Task `json:"in_progress"`
	Completed  []*Task `json:"completed"`
	Count      int     `json:"count"`
}

// Manager is the entry point for graph operations. One coarse mutex
// serializes Create and Update so overlapping reconciliation passes
// cannot interleave; reads go straight to the store without locking.
type Manager struct {
	store *Store
	mu    sync.Mutex
}

// NewManager opens the task store rooted at dir.
func NewManager(dir string) (*Manager, error) {
	store, err := NewStore(dir)
	if err != nil {
		return nil, err
	}
	return &Manager{store: store}, nil
}

// Dir returns the directory holding the task records.
func (m *Manager) Dir() string { return m.store.Dir() }

// Create validates and persists a new task. The subject must be
// non-empty after trimming and every id in blockedBy/blocks must name an
// existing task; when validation fails nothing is written and no id is
// consumed.
func (m *Manager) Create(subject, description, owner string, blockedBy, blocks []int) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, &ValidationError{Reason: "subject is required"}
	}

	normBlockedBy, err := m.store.normalizeIDs(blockedBy)
	if err != nil {
		return nil, err
	}
	normBlocks, err := m.store.normalizeIDs(blocks)
	if err != nil {
		return nil, err
	}

	task := &Task{
		ID:          m.store.nextID(),
		Subject:     subject,
		Description: strings.TrimSpace(description),
		Status:      StatusPending,
		BlockedBy:   normBlockedBy,
		Blocks:      normBlocks,
		Owner:       strings.TrimSpace(owner),
	}
	if err := m.store.Save(task); err != nil {
		return nil, err
	}

	if err := reconcile(m.store, task.ID, normBlockedBy, normBlocks); err != nil {
		return nil, err
	}
	return m.store.Load(task.ID)
}

// Update applies a partial change to one task: status and owner edits
// plus edge additions and removals, in that documented order. Added ids
// are validated up front; removals tolerate ids that are not present. A
// task cannot block itself, so its own id is silently dropped from
// additions. When the resulting status is completed, the task's id is
// cleared from every other blockedBy list.
func (m *Manager) Update(id int, upd Update) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, err := m.store.Load(id)
	if err != nil {
		return nil, err
	}

	var status Status
	if upd.Status != "" {
		status, err = ParseStatus(upd.Status)
		if err != nil {
			return nil, err
		}
	}

	blockedBy := task.BlockedBy
	blocks := task.Blocks

	if len(upd.AddBlockedBy) > 0 {
		added, err := m.store.normalizeIDs(upd.AddBlockedBy)
		if err != nil {
			return nil, err
		}
		for _, v := range added {
			if v != id && !contains(blockedBy, v) {
				blockedBy = append(blockedBy, v)
			}
		}
	}
	if len(upd.AddBlocks) > 0 {
		added, err := m.store.normalizeIDs(upd.AddBlocks)
		if err != nil {
			return nil, err
		}
		for _, v := range added {
			if v != id && !contains(blocks, v) {
				blocks = append(blocks, v)
			}
		}
	}
	for _, v := range upd.RemoveBlockedBy {
		blockedBy = remove(blockedBy, v)
	}
	for _, v := range upd.RemoveBlocks {
		blocks = remove(blocks, v)
	}

	if err := reconcile(m.store, id, blockedBy, blocks); err != nil {
		return nil, err
	}

	task, err = m.store.Load(id)
	if err != nil {
		return nil, err
	}
	if upd.Status != "" {
		task.Status = status
	}
	if upd.Owner != nil {
		task.Owner = strings.TrimSpace(*upd.Owner)
	}
	if err := m.store.Save(task); err != nil {
		return nil, err
	}

	if task.Status == StatusCompleted {
		if err := clearDependency(m.store, id); err != nil {
			return nil, err
		}
		task, err = m.store.Load(id)
		if err != nil {
			return nil, err
		}
	}
	return task, nil
}

// Get returns one task by id.
func (m *Manager) Get(id int) (*Task, error) {
	return m.store.Load(id)
}

// ListAll loads every task and derives the board views.
func (m *Manager) ListAll() (*Board, error) {
	tasks, err := m.store.List()
	if err != nil {
		return nil, err
	}

	board := &Board{
		Tasks:      tasks,
		Ready:      []*Task{},
		Blocked:    []*Task{},
		InProgress: []*Task{},
		Completed:  []*Task{},
		Count:      len(tasks),
	}
	for _, t := range tasks {
		switch {
		case t.Ready():
			board.Ready = append(board.Ready, t)
		case t.Status == StatusPending:
			board.Blocked = append(board.Blocked, t)
		case t.Status == StatusInProgress:
			board.InProgress = append(board.InProgress, t)
		case t.Status == StatusCompleted:
			board.Completed = append(board.Completed, t)
		}
	}
	return board, nil
}
