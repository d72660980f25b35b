package conversation

import (
	"fmt"
	"testing"

	"github.com/brainstem-ai/brainstem/internal/backend"
)

func user(text string) backend.Message {
	return backend.Message{Role: backend.RoleUser, Content: text}
}

func assistant(text string) backend.Message {
	return backend.Message{Role: backend.RoleAssistant, Content: text}
}

func assistantCalling(ids ...string) backend.Message {
	msg := backend.Message{Role: backend.RoleAssistant}
	for _, id := range ids {
		msg.ToolCalls = append(msg.ToolCalls, backend.ToolCall{
			ID:        id,
			Name:      "list_current_tasks",
			Arguments: "{}",
		})
	}
	return msg
}

func toolResult(id string) backend.Message {
	return backend.Message{Role: backend.RoleTool, ToolCallID: id, Content: "ok"}
}

func TestStoreWindowKeepsSystemMessage(t *testing.T) {
	s := New("system prompt")
	for i := 0; i < 20; i++ {
		s.Append(user(fmt.Sprintf("msg %d", i)), assistant("reply"))
	}

	window := s.Window(4)
	if window[0].Role != backend.RoleSystem || window[0].Content != "system prompt" {
		t.Fatalf("expected leading system message, got %#v", window[0])
	}
	if len(window) != 5 {
		t.Fatalf("expected system + 4 recent, got %d messages", len(window))
	}
}

func TestStoreWindowIncludesStagedMessages(t *testing.T) {
	s := New("sys")
	s.Append(user("committed"), assistant("reply"))

	window := s.Window(10, user("staged"))
	last := window[len(window)-1]
	if last.Content != "staged" {
		t.Fatalf("expected staged message at end of window, got %#v", last)
	}
	// Staging never mutates the committed log.
	if s.Len() != 2 {
		t.Fatalf("expected committed log unchanged, got %d messages", s.Len())
	}
}

func TestWindowShortLogUnchanged(t *testing.T) {
	msgs := []backend.Message{user("a"), assistant("b")}
	got := Window(msgs, 10)
	if len(got) != 2 {
		t.Fatalf("expected full log, got %d messages", len(got))
	}
}

func TestWindowExpandsPastToolTurn(t *testing.T) {
	// Cutting at the 3 most recent messages would start the window on a tool
	// result; the window must expand back to the assistant that requested it.
	msgs := []backend.Message{
		user("old"),
		assistant("old reply"),
		user("do the thing"),
		assistantCalling("c1", "c2"),
		toolResult("c1"),
		toolResult("c2"),
		assistant("done"),
	}

	got := Window(msgs, 3)
	if got[0].Role != backend.RoleAssistant || len(got[0].ToolCalls) != 2 {
		t.Fatalf("expected window to start at the calling assistant, got %#v", got[0])
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(got))
	}
	if !PairingValid(got) {
		t.Fatalf("window breaks tool pairing: %#v", got)
	}
}

func TestWindowSkipsOrphanToolResults(t *testing.T) {
	// A tool block with no owning assistant message cannot be repaired by
	// expansion; the window moves forward past it instead.
	msgs := []backend.Message{
		toolResult("ghost"),
		toolResult("ghost2"),
		user("hello"),
		assistant("hi"),
	}

	got := Window(msgs, 3)
	if got[0].Role != backend.RoleUser {
		t.Fatalf("expected orphan block skipped, got %#v", got[0])
	}
	if !PairingValid(got) {
		t.Fatalf("window breaks tool pairing: %#v", got)
	}
}

func TestWindowTrailingOrphanToolBlock(t *testing.T) {
	// An orphan tool block running to the end of the log leaves nothing to
	// skip forward to; the window comes back empty rather than panicking.
	msgs := []backend.Message{
		user("hello"),
		toolResult("ghost"),
		toolResult("ghost2"),
	}

	got := Window(msgs, 2)
	if len(got) != 0 {
		t.Fatalf("expected empty window past trailing orphans, got %#v", got)
	}
	if !PairingValid(got) {
		t.Fatalf("window breaks tool pairing: %#v", got)
	}
}

func TestWindowPairingInvariantAcrossSizes(t *testing.T) {
	msgs := []backend.Message{
		user("u1"),
		assistantCalling("a"),
		toolResult("a"),
		assistant("r1"),
		user("u2"),
		assistantCalling("b", "c"),
		toolResult("b"),
		toolResult("c"),
		assistant("r2"),
		user("u3"),
		assistant("r3"),
	}

	for maxRecent := 1; maxRecent <= len(msgs)+2; maxRecent++ {
		got := Window(msgs, maxRecent)
		if !PairingValid(got) {
			t.Fatalf("maxRecent=%d breaks pairing: %#v", maxRecent, got)
		}
		if len(got) < maxRecent && len(got) != len(msgs) {
			t.Fatalf("maxRecent=%d returned fewer than requested: %d", maxRecent, len(got))
		}
	}
}

func TestWindowIdempotent(t *testing.T) {
	msgs := []backend.Message{
		user("u1"),
		assistantCalling("a"),
		toolResult("a"),
		assistant("r1"),
		user("u2"),
		assistant("r2"),
	}

	once := Window(msgs, 3)
	twice := Window(once, 3)
	if len(once) != len(twice) {
		t.Fatalf("window not idempotent: %d then %d messages", len(once), len(twice))
	}
	for i := range once {
		if once[i].Role != twice[i].Role || once[i].Content != twice[i].Content {
			t.Fatalf("window not idempotent at %d: %#v vs %#v", i, once[i], twice[i])
		}
	}
}

func TestWindowMonotonic(t *testing.T) {
	// A larger budget never yields a smaller window.
	var msgs []backend.Message
	for i := 0; i < 6; i++ {
		msgs = append(msgs, user("u"), assistantCalling(fmt.Sprintf("c%d", i)), toolResult(fmt.Sprintf("c%d", i)), assistant("r"))
	}

	prev := 0
	for maxRecent := 1; maxRecent <= len(msgs); maxRecent++ {
		got := len(Window(msgs, maxRecent))
		if got < prev {
			t.Fatalf("window shrank from %d to %d at maxRecent=%d", prev, got, maxRecent)
		}
		prev = got
	}
}

func TestStoreResetKeepsSystem(t *testing.T) {
	s := New("sys")
	s.Append(user("a"), assistant("b"))
	s.Reset()

	if s.Len() != 0 {
		t.Fatalf("expected empty log after reset, got %d", s.Len())
	}
	full := s.FullHistory()
	if len(full) != 1 || full[0].Role != backend.RoleSystem {
		t.Fatalf("expected system message to survive reset, got %#v", full)
	}
}

func TestPairingValid(t *testing.T) {
	tests := []struct {
		name string
		msgs []backend.Message
		want bool
	}{
		{
			name: "paired block",
			msgs: []backend.Message{assistantCalling("a"), toolResult("a")},
			want: true,
		},
		{
			name: "orphan result",
			msgs: []backend.Message{assistant("hi"), toolResult("a")},
			want: false,
		},
		{
			name: "result before any assistant",
			msgs: []backend.Message{toolResult("a")},
			want: false,
		},
		{
			name: "duplicate result id",
			msgs: []backend.Message{assistantCalling("a"), toolResult("a"), toolResult("a")},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PairingValid(tt.msgs); got != tt.want {
				t.Fatalf("PairingValid = %v, want %v", got, tt.want)
			}
		})
	}
}
