package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brainstem-ai/brainstem/internal/backend"
)

func TestStoreAppendLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions", "cli", "default.jsonl")
	store := New(path)

	input := []backend.Message{
		{Role: backend.RoleUser, Content: "hello"},
		{
			Role:    backend.RoleAssistant,
			Content: "checking the list",
			ToolCalls: []backend.ToolCall{
				{ID: "1", Name: "list_current_tasks", Arguments: "{}"},
			},
		},
		{
			Role:       backend.RoleTool,
			ToolCallID: "1",
			Content:    "1. [ ] (P1) water the plants",
		},
		{Role: backend.RoleAssistant, Content: "one task left"},
	}

	if err := store.Append(context.Background(), input); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != len(input) {
		t.Fatalf("expected %d messages, got %d", len(input), len(got))
	}
	if got[1].ToolCalls[0].Name != "list_current_tasks" {
		t.Fatalf("expected tool call to round-trip, got %#v", got[1].ToolCalls)
	}
	if got[2].ToolCallID != "1" {
		t.Fatalf("expected tool result to round-trip, got %#v", got[2])
	}
}

func TestStoreLoadMissingFileIsEmpty(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "absent.jsonl"))
	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty history, got %#v", got)
	}
}

func TestStoreLoadSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.jsonl")
	content := []byte("{bad json}\n{\"role\":\"user\",\"content\":\"ok\"}\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := New(path)
	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].Content != "ok" {
		t.Fatalf("expected only valid record, got %#v", got)
	}
}

func TestStoreLoadRepairsInterruptedTurn(t *testing.T) {
	// Simulate a process killed after writing the tool request but before any
	// result: the unanswered call must be stripped and the file rewritten.
	path := filepath.Join(t.TempDir(), "default.jsonl")
	content := strings.Join([]string{
		`{"role":"user","content":"plan my day"}`,
		`{"role":"assistant","tool_calls":[{"id":"1","name":"list_current_tasks","arguments":"{}"}]}`,
	}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := New(path)
	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].Role != backend.RoleUser {
		t.Fatalf("expected only the user message, got %#v", got)
	}

	// Second load reads the rewritten file and needs no further repair.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read rewritten file: %v", err)
	}
	if strings.Contains(string(raw), "tool_calls") {
		t.Fatalf("expected rewritten file without unanswered calls, got %q", raw)
	}
}

func TestStoreResetClearsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.jsonl")
	store := New(path)
	if err := store.Append(context.Background(), []backend.Message{
		{Role: backend.RoleUser, Content: "hello"},
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := store.Reset(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}
	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty history, got %#v", got)
	}
}

func TestStoreAppendCancelledContext(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "default.jsonl"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Append(ctx, []backend.Message{{Role: backend.RoleUser, Content: "x"}})
	if err == nil {
		t.Fatalf("expected error from cancelled context")
	}
}
