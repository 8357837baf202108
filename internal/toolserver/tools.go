package toolserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bosunworks/bosun/internal/background"
	"github.com/bosunworks/bosun/internal/history"
	"github.com/bosunworks/bosun/internal/taskgraph"
)

type toolHandler func(ctx context.Context, args map[string]any) (string, error)

func (s *Server) handlers() map[string]toolHandler {
	return map[string]toolHandler{
		"task_create":       s.handleTaskCreate,
		"task_update":       s.handleTaskUpdate,
		"task_get":          s.handleTaskGet,
		"task_list":         s.handleTaskList,
		"execute":           s.handleExecute,
		"background_run":    s.handleBackgroundRun,
		"background_output": s.handleBackgroundOutput,
	}
}

func (s *Server) handleTaskCreate(ctx context.Context, args map[string]any) (string, error) {
	subject := stringArg(args, "subject")
	description := stringArg(args, "description")
	owner := stringArg(args, "owner")
	blockedBy := intSliceArg(args, "blocked_by")
	blocks := intSliceArg(args, "blocks")

	task, err := s.tasks.Create(subject, description, owner, blockedBy, blocks)
	if err != nil {
		return "", err
	}

	s.record(history.EventTaskCreated, fmt.Sprintf("created task %d: %s", task.ID, task.Subject),
		map[string]any{"task_id": task.ID})
	return marshalResult(task)
}

func (s *Server) handleTaskUpdate(ctx context.Context, args map[string]any) (string, error) {
	id, ok := intArg(args, "task_id")
	if !ok {
		return "", fmt.Errorf("task_id is required")
	}

	upd := taskgraph.Update{
		Status:          stringArg(args, "status"),
		AddBlockedBy:    intSliceArg(args, "add_blocked_by"),
		AddBlocks:       intSliceArg(args, "add_blocks"),
		RemoveBlockedBy: intSliceArg(args, "remove_blocked_by"),
		RemoveBlocks:    intSliceArg(args, "remove_blocks"),
	}
	if raw, present := args["owner"]; present {
		owner, _ := raw.(string)
		upd.Owner = &owner
	}

	task, err := s.tasks.Update(id, upd)
	if err != nil {
		return "", err
	}

	if upd.Status != "" {
		s.record(history.EventTaskStatus, fmt.Sprintf("task %d is now %s", task.ID, task.Status),
			map[string]any{"task_id": task.ID, "status": string(task.Status)})
	}
	return marshalResult(task)
}

func (s *Server) handleTaskGet(ctx context.Context, args map[string]any) (string, error) {
	id, ok := intArg(args, "task_id")
	if !ok {
		return "", fmt.Errorf("task_id is required")
	}
	task, err := s.tasks.Get(id)
	if err != nil {
		return "", err
	}
	return marshalResult(task)
}

func (s *Server) handleTaskList(ctx context.Context, args map[string]any) (string, error) {
	board, err := s.tasks.ListAll()
	if err != nil {
		return "", err
	}
	return marshalResult(board)
}

func (s *Server) handleExecute(ctx context.Context, args map[string]any) (string, error) {
	command := stringArg(args, "command")

	var res *sandboxResult
	if secs, ok := intArg(args, "timeout_secs"); ok {
		r, err := s.sandbox.ExecuteWithTimeout(ctx, command, time.Duration(secs)*time.Second)
		if err != nil {
			return "", err
		}
		res = &sandboxResult{r.Output, r.ExitCode}
	} else {
		r, err := s.sandbox.Execute(ctx, command)
		if err != nil {
			return "", err
		}
		res = &sandboxResult{r.Output, r.ExitCode}
	}

	s.record(history.EventCommandRun, fmt.Sprintf("ran: %s", command),
		map[string]any{"exit_code": res.exitCode})
	return res.output, nil
}

type sandboxResult struct {
	output   string
	exitCode int
}

func (s *Server) handleBackgroundRun(ctx context.Context, args map[string]any) (string, error) {
	command := stringArg(args, "command")

	timeout := background.DefaultJobTimeout
	if secs, ok := intArg(args, "timeout_secs"); ok {
		timeout = time.Duration(secs) * time.Second
	}

	job, err := s.background.Start(ctx, command, timeout)
	if err != nil {
		return "", err
	}

	return marshalResult(map[string]any{
		"message":      "Background job started. Poll background_output with the job id.",
		"job_id":       job.ID,
		"status":       job.Status,
		"command":      job.Command,
		"timeout_secs": int(timeout.Seconds()),
	})
}

func (s *Server) handleBackgroundOutput(ctx context.Context, args map[string]any) (string, error) {
	if id := stringArg(args, "job_id"); id != "" {
		job, ok := s.background.Get(id)
		if !ok {
			return "", fmt.Errorf("background job %s not found", id)
		}
		return marshalResult(job)
	}
	return marshalResult(s.background.Summarize())
}

func (s *Server) toolSpecs() []toolSpec {
	return []toolSpec{
		{
			Name:        "task_create",
			Description: "Create a task with optional dependency edges",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"subject": map[string]any{
						"type":        "string",
						"description": "Short imperative title",
					},
					"description": map[string]any{
						"type":        "string",
						"description": "Longer free-form body",
					},
					"owner": map[string]any{
						"type":        "string",
						"description": "Free-form assignee tag",
					},
					"blocked_by": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "integer"},
						"description": "IDs of tasks that must complete first",
					},
					"blocks": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "integer"},
						"description": "IDs of tasks this one gates",
					},
				},
				"required": []string{"subject"},
			},
		},
		{
			Name:        "task_update",
			Description: "Update a task's status, owner, or dependency edges",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"task_id": map[string]any{
						"type":        "integer",
						"description": "ID of the task to update",
					},
					"status": map[string]any{
						"type":        "string",
						"description": "New status: pending, in_progress, or completed",
					},
					"owner": map[string]any{
						"type":        "string",
						"description": "New owner tag; empty string clears it",
					},
					"add_blocked_by": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "integer"},
						"description": "Dependency IDs to add",
					},
					"remove_blocked_by": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "integer"},
						"description": "Dependency IDs to remove",
					},
					"add_blocks": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "integer"},
						"description": "Reverse-edge IDs to add",
					},
					"remove_blocks": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "integer"},
						"description": "Reverse-edge IDs to remove",
					},
				},
				"required": []string{"task_id"},
			},
		},
		{
			Name:        "task_get",
			Description: "Fetch one task by ID",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"task_id": map[string]any{
						"type":        "integer",
						"description": "ID of the task to fetch",
					},
				},
				"required": []string{"task_id"},
			},
		},
		{
			Name:        "task_list",
			Description: "List all tasks grouped into ready, blocked, in_progress, and completed views",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        "execute",
			Description: "Run a shell command in the sandbox and return its output",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"command": map[string]any{
						"type":        "string",
						"description": "Shell command to run",
					},
					"timeout_secs": map[string]any{
						"type":        "integer",
						"description": "Wall-clock limit in seconds",
					},
				},
				"required": []string{"command"},
			},
		},
		{
			Name:        "background_run",
			Description: "Start a sandboxed command as a background job and return its id immediately",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"command": map[string]any{
						"type":        "string",
						"description": "Shell command to run",
					},
					"timeout_secs": map[string]any{
						"type":        "integer",
						"description": "Wall-clock limit in seconds (default 300)",
					},
				},
				"required": []string{"command"},
			},
		},
		{
			Name:        "background_output",
			Description: "Check a background job by id, or summarize all jobs when no id is given",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"job_id": map[string]any{
						"type":        "string",
						"description": "Job id returned by background_run",
					},
				},
			},
		},
	}
}

func marshalResult(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(data), nil
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func intArg(args map[string]any, key string) (int, bool) {
	v, ok := args[key].(float64)
	if !ok {
		return 0, false
	}
	return int(v), true
}

func intSliceArg(args map[string]any, key string) []int {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	var out []int
	for _, v := range raw {
		if f, ok := v.(float64); ok {
			out = append(out, int(f))
		}
	}
	return out
}
