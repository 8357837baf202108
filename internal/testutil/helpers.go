// Package testutil provides reusable helpers for bosun integration tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TestEnv provides access to isolated test directories
type TestEnv struct {
	Home         string // Mocked HOME directory
	ProjectDir   string // Test project directory
	GlobalDir    string // ~/.bosun equivalent
	ProjectBosun string // .bosun in project
	t            *testing.T
}

// SetupTestEnv creates an isolated test environment with mocked HOME.
// Uses t.TempDir() for automatic cleanup and t.Setenv() for automatic env restoration.
func SetupTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	tmpHome := t.TempDir()
	tmpProject := t.TempDir()

	globalDir := filepath.Join(tmpHome, ".bosun")
	projectBosun := filepath.Join(tmpProject, ".bosun")

	if err := os.MkdirAll(globalDir, 0755); err != nil {
		t.Fatalf("failed to create global .bosun: %v", err)
	}
	if err := os.MkdirAll(projectBosun, 0755); err != nil {
		t.Fatalf("failed to create project .bosun: %v", err)
	}

	// Set HOME to temp directory (auto-restored after test)
	t.Setenv("HOME", tmpHome)

	return &TestEnv{
		Home:         tmpHome,
		ProjectDir:   tmpProject,
		GlobalDir:    globalDir,
		ProjectBosun: projectBosun,
		t:            t,
	}
}

// CreateFile creates a file with the given content. Relative paths
// resolve against the project directory.
func (e *TestEnv) CreateFile(path, content string) {
	e.t.Helper()

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(e.ProjectDir, path)
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		e.t.Fatalf("failed to create directory %s: %v", dir, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		e.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}
}

// CreateProjectFile creates a file relative to the project directory.
func (e *TestEnv) CreateProjectFile(relPath, content string) {
	e.t.Helper()
	e.CreateFile(filepath.Join(e.ProjectDir, relPath), content)
}

// CreateGlobalFile creates a file relative to the global .bosun directory.
func (e *TestEnv) CreateGlobalFile(relPath, content string) {
	e.t.Helper()
	e.CreateFile(filepath.Join(e.GlobalDir, relPath), content)
}

// ReadFile reads a file from the test environment.
func (e *TestEnv) ReadFile(path string) string {
	e.t.Helper()

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(e.ProjectDir, path)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		e.t.Fatalf("failed to read file %s: %v", fullPath, err)
	}
	return string(data)
}

// FileExists checks if a file exists in the test environment.
func (e *TestEnv) FileExists(path string) bool {
	e.t.Helper()

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(e.ProjectDir, path)
	}

	_, err := os.Stat(fullPath)
	return err == nil
}

// TasksDir creates and returns the .bosun/tasks directory in the project.
func (e *TestEnv) TasksDir() string {
	e.t.Helper()

	dir := filepath.Join(e.ProjectBosun, "tasks")
	if err := os.MkdirAll(dir, 0755); err != nil {
		e.t.Fatalf("failed to create tasks dir: %v", err)
	}
	return dir
}

// SetupMinimalProject creates a minimal bosun project structure.
func (e *TestEnv) SetupMinimalProject() {
	e.t.Helper()

	e.CreateProjectFile(".bosun/profile.md", `# Test Project

## Overview
A test project for integration tests.

## Tech Stack
- Go
- SQLite
`)

	e.CreateProjectFile(".bosun/config.yaml", `version: "1"
project:
  name: test-project
`)
}
