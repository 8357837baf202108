// Package sandbox runs shell commands inside a disposable snapshot of
// the project tree, with a deny-list policy, a scrubbed environment, a
// wall-clock timeout, and an output cap. It is a lightweight guard rail
// for agent-issued commands, not an OS isolation boundary.
package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Directories never copied into the workspace snapshot.
var snapshotIgnore = map[string]bool{
	".git":          true,
	".bosun":        true,
	".venv":         true,
	"__pycache__":   true,
	"node_modules":  true,
	".pytest_cache": true,
	".mypy_cache":   true,
}

// Exit codes for runs the sandbox itself stopped.
const (
	ExitTimeout = 124
	ExitBlocked = 126
)

// Options tune one Runner. Zero values fall back to conservative
// defaults.
type Options struct {
	Timeout        time.Duration
	MaxOutputBytes int
	Deny           []string // extra deny patterns
	AllowEnv       []string // extra environment variables passed through
}

// Result is the uniform outcome of one command run.
type Result struct {
	Command   string
	Output    string
	ExitCode  int
	Truncated bool
	Blocked   bool
	Duration  time.Duration
}

// Runner executes commands inside an isolated temp workspace that is
// rebuilt from the project root before every run, so commands can read
// the current tree but their writes never reach it.
type Runner struct {
	root      string
	policy    *Policy
	timeout   time.Duration
	maxOutput int
	allowEnv  []string
	base      string
	workspace string
}

// NewRunner prepares a sandbox rooted at the given project directory.
func NewRunner(root string, opts Options) (*Runner, error) {
	policy, err := NewPolicy(opts.Deny)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxOutput := opts.MaxOutputBytes
	if maxOutput <= 0 {
		maxOutput = 100_000
	}

	base := filepath.Join(os.TempDir(), "bosun-sandbox-"+uuid.New().String()[:8])
	if err := os.MkdirAll(base, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sandbox directory: %w", err)
	}

	return &Runner{
		root:      root,
		policy:    policy,
		timeout:   timeout,
		maxOutput: maxOutput,
		allowEnv:  opts.AllowEnv,
		base:      base,
		workspace: filepath.Join(base, "workspace"),
	}, nil
}

// Close removes the sandbox's temp tree.
func (r *Runner) Close() error {
	return os.RemoveAll(r.base)
}

// Execute runs one shell command under the runner's configured timeout.
// Policy violations, timeouts, and nonzero exits are reported inside the
// Result; the returned error is reserved for the sandbox itself failing
// to set up.
func (r *Runner) Execute(ctx context.Context, command string) (*Result, error) {
	return r.ExecuteWithTimeout(ctx, command, r.timeout)
}

// ExecuteWithTimeout runs one shell command with an explicit wall-clock
// limit, for callers like the background runner whose jobs outlive the
// default.
func (r *Runner) ExecuteWithTimeout(ctx context.Context, command string, timeout time.Duration) (*Result, error) {
	if timeout <= 0 {
		timeout = r.timeout
	}
	res := &Result{Command: command}

	if strings.TrimSpace(command) == "" {
		res.Output = "Error: Command must be a non-empty string."
		res.ExitCode = 1
		return res, nil
	}

	if pattern, blocked := r.policy.Blocked(command); blocked {
		res.Output = fmt.Sprintf("Error: Command blocked by sandbox policy (%s).", pattern)
		res.ExitCode = ExitBlocked
		res.Blocked = true
		return res, nil
	}

	if err := r.refreshWorkspace(); err != nil {
		return nil, fmt.Errorf("failed to prepare sandbox workspace: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "/bin/sh", "-c", command)
	cmd.Dir = r.workspace
	cmd.Env = r.buildEnv()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	res.Duration = time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		res.Output = fmt.Sprintf("Error: Command timed out after %s.", timeout)
		res.ExitCode = ExitTimeout
		return res, nil
	}

	res.ExitCode = 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.Output = fmt.Sprintf("Error executing command in sandbox: %v", runErr)
			res.ExitCode = 1
			return res, nil
		}
	}

	res.Output, res.Truncated = r.renderOutput(stdout.String(), stderr.String(), res.ExitCode)
	return res, nil
}

// renderOutput merges stdout and stderr the way a transcript reads
// best: stderr lines carry a [stderr] prefix, empty output becomes a
// placeholder, oversized output is cut at the byte cap, and a nonzero
// exit code is appended.
func (r *Runner) renderOutput(stdout, stderr string, exitCode int) (string, bool) {
	var parts []string
	if stdout != "" {
		parts = append(parts, stdout)
	}
	if stderr != "" {
		for _, line := range strings.Split(strings.TrimSpace(stderr), "\n") {
			if line != "" {
				parts = append(parts, "[stderr] "+line)
			}
		}
	}

	output := strings.TrimSpace(strings.Join(parts, "\n"))
	if output == "" {
		output = "<no output>"
	}

	truncated := false
	if len(output) > r.maxOutput {
		output = output[:r.maxOutput] + fmt.Sprintf("\n\n... Output truncated at %d bytes.", r.maxOutput)
		truncated = true
	}

	if exitCode != 0 {
		output = fmt.Sprintf("%s\n\nExit code: %d", strings.TrimRight(output, "\n"), exitCode)
	}
	return output, truncated
}

func (r *Runner) buildEnv() []string {
	path := os.Getenv("PATH")
	if path == "" {
		path = "/usr/bin:/bin"
	}
	env := []string{
		"PATH=" + path,
		"HOME=" + r.base,
		"TMPDIR=" + r.base,
	}
	passthrough := append([]string{"LANG", "TERM"}, r.allowEnv...)
	for _, name := range passthrough {
		if v := os.Getenv(name); v != "" {
			env = append(env, name+"="+v)
		}
	}
	return env
}

// refreshWorkspace rebuilds the isolated copy of the project tree.
// Regular files only; version control internals and bosun's own state
// stay out of the snapshot.
func (r *Runner) refreshWorkspace() error {
	if err := os.RemoveAll(r.workspace); err != nil {
		return err
	}
	if err := os.MkdirAll(r.workspace, 0755); err != nil {
		return err
	}

	return filepath.WalkDir(r.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == r.root {
			return nil
		}

		rel, err := filepath.Rel(r.root, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(r.workspace, rel)

		if d.IsDir() {
			if snapshotIgnore[d.Name()] {
				return filepath.SkipDir
			}
			return os.MkdirAll(dst, 0755)
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(path, dst, info.Mode())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
