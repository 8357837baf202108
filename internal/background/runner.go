// Package background runs shell commands asynchronously inside the
// sandbox and keeps an in-process job table. Jobs exist only for the
// lifetime of the hosting process, which in practice means the MCP
// server session: a tool call starts a job, later calls poll it, and
// finished jobs surface once through the notification queue.
package background

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bosunworks/bosun/internal/sandbox"
)

// Status is the lifecycle state of a background job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusTimeout   Status = "timeout"
)

const (
	// DefaultJobTimeout bounds a job that did not ask for its own limit.
	DefaultJobTimeout = 5 * time.Minute

	// previewChars is how much output a notification carries. Callers
	// wanting the full capture ask the job table directly.
	previewChars = 500
)

// Job is one tracked background command. Fields are only written by the
// runner; callers receive snapshot copies.
type Job struct {
	ID         string    `json:"id"`
	Command    string    `json:"command"`
	Status     Status    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`
	ExitCode   int       `json:"exit_code"`
	Output     string    `json:"output"`
}

// Notification is the one-shot completion record for a finished job.
// Result holds a short output preview rather than the full capture.
type Notification struct {
	JobID   string `json:"job_id"`
	Status  Status `json:"status"`
	Command string `json:"command"`
	Result  string `json:"result"`
}

// Summary aggregates the job table for the status view.
type Summary struct {
	Count     int    `json:"count"`
	Queued    int    `json:"queued"`
	Running   int    `json:"running"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
	Timeout   int    `json:"timeout"`
	Jobs      []*Job `json:"jobs"`
}

// Executor runs one command and reports how it went. *sandbox.Runner
// satisfies it; tests substitute a scripted fake.
type Executor interface {
	ExecuteWithTimeout(ctx context.Context, command string, timeout time.Duration) (*sandbox.Result, error)
}

// Runner owns the job table. All methods are safe for concurrent use.
type Runner struct {
	exec        Executor
	notifyLimit int
	slots       chan struct{}

	mu            sync.Mutex
	jobs          map[string]*Job
	notifications []Notification
	onFinish      func(Notification)
	wg            sync.WaitGroup
}

// OnFinish registers a callback invoked once per finished job, after
// its notification is queued. Used to mirror completions into the
// history log.
func (r *Runner) OnFinish(fn func(Notification)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onFinish = fn
}

// NewRunner builds a job table that runs at most maxJobs commands at
// once and retains at most notifyLimit unread completion notices.
func NewRunner(exec Executor, maxJobs, notifyLimit int) *Runner {
	if maxJobs < 1 {
		maxJobs = 1
	}
	if notifyLimit < 1 {
		notifyLimit = 1
	}
	return &Runner{
		exec:        exec,
		notifyLimit: notifyLimit,
		slots:       make(chan struct{}, maxJobs),
		jobs:        make(map[string]*Job),
	}
}

// Start registers a job and launches it without waiting. The returned
// snapshot carries the assigned id; poll Get with it for progress.
func (r *Runner) Start(ctx context.Context, command string, timeout time.Duration) (*Job, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, fmt.Errorf("command is required")
	}
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}

	job := &Job{
		ID:        uuid.New().String()[:8],
		Command:   command,
		Status:    StatusQueued,
		StartedAt: time.Now(),
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(ctx, job.ID, command, timeout)

	return snapshot(job), nil
}

func (r *Runner) run(ctx context.Context, id, command string, timeout time.Duration) {
	defer r.wg.Done()

	select {
	case r.slots <- struct{}{}:
	case <-ctx.Done():
		r.finish(id, StatusFailed, -1, "Error: job cancelled before it could start")
		return
	}
	defer func() { <-r.slots }()

	r.setStatus(id, StatusRunning)

	res, err := r.exec.ExecuteWithTimeout(ctx, command, timeout)
	if err != nil {
		r.finish(id, StatusFailed, -1, fmt.Sprintf("Error: %v", err))
		return
	}

	status := StatusCompleted
	switch {
	case res.ExitCode == sandbox.ExitTimeout:
		status = StatusTimeout
	case res.ExitCode != 0:
		status = StatusFailed
	}
	r.finish(id, status, res.ExitCode, res.Output)
}

func (r *Runner) setStatus(id string, status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		job.Status = status
	}
}

func (r *Runner) finish(id string, status Status, exitCode int, output string) {
	r.mu.Lock()

	job, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	job.Status = status
	job.ExitCode = exitCode
	job.Output = output
	job.FinishedAt = time.Now()
	job.DurationMS = job.FinishedAt.Sub(job.StartedAt).Milliseconds()

	preview := output
	if len(preview) > previewChars {
		preview = preview[:previewChars]
	}
	note := Notification{
		JobID:   id,
		Status:  status,
		Command: job.Command,
		Result:  preview,
	}
	r.notifications = append(r.notifications, note)
	if excess := len(r.notifications) - r.notifyLimit; excess > 0 {
		r.notifications = append([]Notification(nil), r.notifications[excess:]...)
	}
	onFinish := r.onFinish
	r.mu.Unlock()

	if onFinish != nil {
		onFinish(note)
	}
}

// Get returns a snapshot of one job.
func (r *Runner) Get(id string) (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, false
	}
	return snapshot(job), true
}

// List returns snapshots of every job ordered by start time, oldest
// first, with the id as a tiebreak for jobs started in the same tick.
func (r *Runner) List() []*Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, snapshot(job))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Summarize rolls the job table up into per-status counts.
func (r *Runner) Summarize() *Summary {
	jobs := r.List()
	s := &Summary{Count: len(jobs), Jobs: jobs}
	for _, job := range jobs {
		switch job.Status {
		case StatusQueued:
			s.Queued++
		case StatusRunning:
			s.Running++
		case StatusCompleted:
			s.Completed++
		case StatusFailed:
			s.Failed++
		case StatusTimeout:
			s.Timeout++
		}
	}
	return s
}

// Drain hands back all unread notifications and clears the queue, so
// each completion is reported exactly once.
func (r *Runner) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notifications
	r.notifications = nil
	return out
}

// Wait blocks until every launched job has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func snapshot(job *Job) *Job {
	copied := *job
	return &copied
}
