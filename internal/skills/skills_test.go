package skills

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSkill(t *testing.T, root, folder, content string) {
	t.Helper()
	dir := filepath.Join(root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverReadsFrontmatter(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeSkill(t, root, "code-review", `---
name: code-review
description: Review changes before merging
---

Check the diff carefully.
`)

	ix := Discover(root)
	if ix.Len() != 1 {
		t.Fatalf("discovered %d skills, want 1", ix.Len())
	}
	skill, ok := ix.Resolve("code-review")
	if !ok {
		t.Fatal("code-review not resolvable")
	}
	if skill.Description != "Review changes before merging" {
		t.Errorf("description = %q", skill.Description)
	}
	if skill.Body != "Check the diff carefully." {
		t.Errorf("body = %q", skill.Body)
	}
	if skill.Dir != filepath.Join(root, "code-review") {
		t.Errorf("dir = %q", skill.Dir)
	}
}

func TestDiscoverFolderNameFallback(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeSkill(t, root, "release-notes", "Just a body, no frontmatter.\n")

	ix := Discover(root)
	if _, ok := ix.Resolve("release-notes"); !ok {
		t.Error("expected folder name to become the skill name")
	}
}

func TestDiscoverProjectOverridesGlobal(t *testing.T) {
	t.Parallel()
	global := t.TempDir()
	project := t.TempDir()
	writeSkill(t, global, "deploy", "---\nname: deploy\ndescription: global deploy\n---\nglobal body\n")
	writeSkill(t, project, "deploy", "---\nname: deploy\ndescription: project deploy\n---\nproject body\n")

	ix := Discover(global, project)
	if ix.Len() != 1 {
		t.Fatalf("discovered %d skills, want 1", ix.Len())
	}
	skill, _ := ix.Resolve("deploy")
	if skill.Description != "project deploy" {
		t.Errorf("description = %q, want the project copy to win", skill.Description)
	}
}

func TestDiscoverSkipsMissingRootAndBrokenSkill(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeSkill(t, root, "ok", "---\nname: ok\n---\nbody\n")
	writeSkill(t, root, "broken", "---\nname: [unclosed\n---\nbody\n")
	if err := os.WriteFile(filepath.Join(root, "stray.md"), []byte("not a skill dir"), 0o644); err != nil {
		t.Fatal(err)
	}

	ix := Discover(root, filepath.Join(root, "does-not-exist"))
	if ix.Len() != 1 {
		t.Fatalf("discovered %d skills, want only the valid one", ix.Len())
	}
	if _, ok := ix.Resolve("ok"); !ok {
		t.Error("valid skill missing from index")
	}
}

func TestResolveAliases(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeSkill(t, root, "api-design", "---\nname: API-Design\ndescription: design APIs\n---\nbody\n")

	ix := Discover(root)
	for _, input := range []string{"API-Design", "api-design", "api_design", "  API_DESIGN  "} {
		if _, ok := ix.Resolve(input); !ok {
			t.Errorf("Resolve(%q) failed, want alias hit", input)
		}
	}
	if _, ok := ix.Resolve("unrelated"); ok {
		t.Error("Resolve matched a name that does not exist")
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeSkill(t, root, "beta", "---\nname: beta\ndescription: second\n---\nbody\n")
	writeSkill(t, root, "alpha", "---\nname: alpha\n---\nbody\n")

	got := Discover(root).Describe()
	want := "- alpha: (no description)\n- beta: second"
	if got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}

	if got := Discover(t.TempDir()).Describe(); got != "(no skills available)" {
		t.Errorf("empty Describe() = %q", got)
	}
}
