package summarize

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/api/generate" {
			t.Errorf("expected /api/generate, got %s", r.URL.Path)
		}

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "testmodel" {
			t.Errorf("expected model 'testmodel', got %q", req.Model)
		}
		if !strings.Contains(req.Prompt, "what happened") {
			t.Errorf("expected prompt to carry the input, got %q", req.Prompt)
		}
		if req.Stream {
			t.Error("expected stream false")
		}

		json.NewEncoder(w).Encode(generateResponse{Response: "  A tidy summary.\n"})
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithModel("testmodel"))

	out, err := c.Summarize(context.Background(), "summarize what happened")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if out != "A tidy summary." {
		t.Errorf("expected trimmed summary, got %q", out)
	}
}

func TestSummarizeRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(generateResponse{Response: "second try"})
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	out, err := c.Summarize(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if out != "second try" {
		t.Errorf("expected 'second try', got %q", out)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected 2 calls, got %d", got)
	}
}

func TestSummarizeClientErrorFailsFast(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "no such model", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	_, err := c.Summarize(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected an error for a 404 response")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected exactly 1 call for a client error, got %d", got)
	}
}

func TestSummarizeEmptyCompletion(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{Response: "   "})
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	_, err := c.Summarize(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected an error for an empty completion")
	}
	if !strings.Contains(err.Error(), "empty completion") {
		t.Errorf("expected empty completion error, got %v", err)
	}
}

func TestPing(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("expected /api/tags, got %s", r.URL.Path)
		}
		w.Write([]byte(`{"models":[{"name":"llama3.2:latest"},{"name":"nomic-embed-text:latest"}]}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithModel("llama3.2"))
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("expected model tag match, got %v", err)
	}

	missing := NewClient(WithBaseURL(srv.URL), WithModel("mistral"))
	err := missing.Ping(context.Background())
	if err == nil {
		t.Fatal("expected an error for a missing model")
	}
	if !strings.Contains(err.Error(), "mistral not found") {
		t.Errorf("expected missing model error, got %v", err)
	}
}
