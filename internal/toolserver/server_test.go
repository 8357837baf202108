package toolserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bosunworks/bosun/internal/background"
	"github.com/bosunworks/bosun/internal/sandbox"
	"github.com/bosunworks/bosun/internal/taskgraph"
)

// session runs a scripted exchange: every frame is fed to the server,
// and the decoded responses come back keyed by request id.
func session(t *testing.T, frames ...string) map[float64]*Response {
	t.Helper()

	mgr, err := taskgraph.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	box, err := sandbox.NewRunner(t.TempDir(), sandbox.Options{Timeout: 30 * time.Second})
	if err != nil {
		t.Fatalf("sandbox.NewRunner: %v", err)
	}
	t.Cleanup(func() { box.Close() })
	jobs := background.NewRunner(box, 2, 10)

	in := bytes.NewBufferString(strings.Join(frames, "\n") + "\n")
	var out bytes.Buffer
	srv := NewServer(Options{
		Tasks:      mgr,
		Sandbox:    box,
		Background: jobs,
		Project:    "test",
		In:         in,
		Out:        &out,
	})

	if err := srv.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	jobs.Wait()

	responses := make(map[float64]*Response)
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}
		var resp Response
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			t.Fatalf("bad response line %q: %v", line, err)
		}
		if id, ok := resp.ID.(float64); ok {
			responses[id] = &resp
		}
	}
	return responses
}

func callFrame(id int, tool string, args string) string {
	return fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"method":"tools/call","params":{"name":%q,"arguments":%s}}`, id, tool, args)
}

// toolText decodes a tools/call response down to its text payload.
func toolText(t *testing.T, resp *Response) (string, bool) {
	t.Helper()
	if resp == nil {
		t.Fatal("missing response")
	}
	if resp.Error != nil {
		t.Fatalf("rpc error: %+v", resp.Error)
	}
	raw, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatal(err)
	}
	var result callToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("result is not a tool result: %v", err)
	}
	if len(result.Content) != 1 || result.Content[0].Type != "text" {
		t.Fatalf("unexpected content shape: %+v", result.Content)
	}
	return result.Content[0].Text, result.IsError
}

func TestInitializeHandshake(t *testing.T) {
	t.Parallel()
	responses := session(t,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05"}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
	)

	resp := responses[1]
	if resp == nil || resp.Error != nil {
		t.Fatalf("initialize response = %+v", resp)
	}
	raw, _ := json.Marshal(resp.Result)
	var result initializeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatal(err)
	}
	if result.ProtocolVersion != "2024-11-05" {
		t.Errorf("protocolVersion = %q", result.ProtocolVersion)
	}
	if result.ServerInfo.Name != "bosun" {
		t.Errorf("server name = %q", result.ServerInfo.Name)
	}
	if len(responses) != 1 {
		t.Errorf("notification drew a response: %d responses total", len(responses))
	}
}

func TestListToolsAdvertisesAll(t *testing.T) {
	t.Parallel()
	responses := session(t, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)

	raw, _ := json.Marshal(responses[1].Result)
	var result listToolsResult
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatal(err)
	}

	want := []string{"task_create", "task_update", "task_get", "task_list", "execute", "background_run", "background_output"}
	names := make(map[string]bool)
	for _, tool := range result.Tools {
		names[tool.Name] = true
		if tool.Description == "" {
			t.Errorf("tool %s has no description", tool.Name)
		}
	}
	for _, name := range want {
		if !names[name] {
			t.Errorf("tool %s not advertised", name)
		}
	}
	if len(result.Tools) != len(want) {
		t.Errorf("advertised %d tools, want %d", len(result.Tools), len(want))
	}
}

func TestTaskToolsRoundTrip(t *testing.T) {
	t.Parallel()
	responses := session(t,
		callFrame(1, "task_create", `{"subject":"write the parser"}`),
		callFrame(2, "task_create", `{"subject":"wire the parser in","blocked_by":[1],"owner":"io"}`),
		callFrame(3, "task_get", `{"task_id":1}`),
		callFrame(4, "task_list", `{}`),
		callFrame(5, "task_update", `{"task_id":1,"status":"completed"}`),
		callFrame(6, "task_get", `{"task_id":2}`),
	)

	text, isErr := toolText(t, responses[1])
	if isErr {
		t.Fatalf("task_create errored: %s", text)
	}
	var created taskgraph.Task
	if err := json.Unmarshal([]byte(text), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID != 1 || created.Status != taskgraph.StatusPending {
		t.Errorf("created = %+v", created)
	}

	text, _ = toolText(t, responses[3])
	var fetched taskgraph.Task
	if err := json.Unmarshal([]byte(text), &fetched); err != nil {
		t.Fatal(err)
	}
	if len(fetched.Blocks) != 1 || fetched.Blocks[0] != 2 {
		t.Errorf("reverse edge missing after dependent create: %+v", fetched)
	}

	text, _ = toolText(t, responses[4])
	var board map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &board); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"tasks", "ready", "blocked", "in_progress", "completed", "count"} {
		if _, ok := board[key]; !ok {
			t.Errorf("board missing key %q", key)
		}
	}

	text, _ = toolText(t, responses[6])
	var unblocked taskgraph.Task
	if err := json.Unmarshal([]byte(text), &unblocked); err != nil {
		t.Fatal(err)
	}
	if len(unblocked.BlockedBy) != 0 {
		t.Errorf("task 2 still blocked after task 1 completed: %+v", unblocked)
	}
}

func TestTaskErrorsSurfaceAsToolErrors(t *testing.T) {
	t.Parallel()
	responses := session(t,
		callFrame(1, "task_create", `{"subject":""}`),
		callFrame(2, "task_create", `{"subject":"ok","blocked_by":[999]}`),
		callFrame(3, "task_get", `{"task_id":42}`),
		callFrame(4, "task_update", `{"status":"completed"}`),
	)

	cases := map[float64]string{
		1: "Error: subject is required",
		2: "Error: task 999 not found",
		3: "Error: task 42 not found",
		4: "Error: task_id is required",
	}
	for id, want := range cases {
		text, isErr := toolText(t, responses[id])
		if !isErr {
			t.Errorf("call %v: isError not set", id)
		}
		if text != want {
			t.Errorf("call %v: text = %q, want %q", id, text, want)
		}
	}
}

func TestExecuteTool(t *testing.T) {
	t.Parallel()
	responses := session(t, callFrame(1, "execute", `{"command":"echo hello"}`))

	text, isErr := toolText(t, responses[1])
	if isErr {
		t.Fatalf("execute errored: %s", text)
	}
	if strings.TrimSpace(text) != "hello" {
		t.Errorf("execute output = %q", text)
	}
}

func TestExecuteBlockedCommand(t *testing.T) {
	t.Parallel()
	responses := session(t, callFrame(1, "execute", `{"command":"sudo rm /etc/passwd"}`))

	text, _ := toolText(t, responses[1])
	if !strings.Contains(text, "blocked by sandbox policy") {
		t.Errorf("blocked command output = %q", text)
	}
}

func TestBackgroundTools(t *testing.T) {
	t.Parallel()
	responses := session(t,
		callFrame(1, "background_run", `{"command":"echo async"}`),
		callFrame(2, "background_output", `{"job_id":"nope"}`),
		callFrame(3, "background_output", `{}`),
	)

	text, isErr := toolText(t, responses[1])
	if isErr {
		t.Fatalf("background_run errored: %s", text)
	}
	var started struct {
		JobID   string `json:"job_id"`
		Status  string `json:"status"`
		Command string `json:"command"`
	}
	if err := json.Unmarshal([]byte(text), &started); err != nil {
		t.Fatal(err)
	}
	if len(started.JobID) != 8 || started.Command != "echo async" {
		t.Errorf("started = %+v", started)
	}

	text, isErr = toolText(t, responses[2])
	if !isErr || text != "Error: background job nope not found" {
		t.Errorf("missing job response = %q, isError %v", text, isErr)
	}

	text, _ = toolText(t, responses[3])
	var summary background.Summary
	if err := json.Unmarshal([]byte(text), &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Count != 1 {
		t.Errorf("summary count = %d, want 1", summary.Count)
	}
}

func TestProtocolErrors(t *testing.T) {
	t.Parallel()
	responses := session(t,
		`{"jsonrpc":"2.0","id":1,"method":"bogus/method"}`,
		callFrame(2, "no_such_tool", `{}`),
		`{"jsonrpc":"2.0","method":"notifications/cancelled"}`,
	)

	if resp := responses[1]; resp.Error == nil || resp.Error.Code != -32601 {
		t.Errorf("unknown method response = %+v", resp)
	}
	if resp := responses[2]; resp.Error == nil || resp.Error.Message != "Unknown tool" {
		t.Errorf("unknown tool response = %+v", resp)
	}
	if len(responses) != 2 {
		t.Errorf("notification drew a response: %d responses total", len(responses))
	}
}
