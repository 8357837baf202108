package frontmatter

import (
	"strings"
	"testing"
)

func TestSplitWithMetadata(t *testing.T) {
	content := []byte(`---
name: demo
description: a demo
---

# Heading

Body text.
`)

	meta, body, err := Split(content)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if !strings.Contains(string(meta), "name: demo") {
		t.Errorf("meta = %q, want it to contain the name line", meta)
	}
	if body != "# Heading\n\nBody text." {
		t.Errorf("body = %q, want trimmed markdown", body)
	}
}

func TestSplitWithoutMetadata(t *testing.T) {
	content := []byte("# Just markdown\n\nNo fence here.\n")

	meta, body, err := Split(content)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if meta != nil {
		t.Errorf("meta = %q, want nil", meta)
	}
	if body != string(content) {
		t.Errorf("body = %q, want the untouched content", body)
	}
}

func TestSplitUnterminatedFence(t *testing.T) {
	content := []byte("---\nname: broken\nno closing fence\n")

	if _, _, err := Split(content); err == nil {
		t.Fatal("expected error for unterminated frontmatter, got nil")
	}
}

func TestDecode(t *testing.T) {
	content := []byte(`---
name: coder
tools:
  - read
  - write
---
Prompt body.
`)

	var doc struct {
		Name  string   `yaml:"name"`
		Tools []string `yaml:"tools"`
	}
	body, err := Decode(content, &doc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.Name != "coder" {
		t.Errorf("name = %q, want %q", doc.Name, "coder")
	}
	if len(doc.Tools) != 2 {
		t.Errorf("tools = %v, want 2 entries", doc.Tools)
	}
	if body != "Prompt body." {
		t.Errorf("body = %q, want %q", body, "Prompt body.")
	}
}

func TestDecodeBadYAML(t *testing.T) {
	content := []byte("---\nname: [unclosed\n---\nbody\n")

	var doc struct{}
	if _, err := Decode(content, &doc); err == nil {
		t.Fatal("expected error for invalid YAML, got nil")
	}
}
