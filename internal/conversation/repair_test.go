package conversation

import (
	"testing"

	"github.com/brainstem-ai/brainstem/internal/backend"
)

func TestRepairCleanLogUnchanged(t *testing.T) {
	msgs := []backend.Message{
		user("u"),
		assistantCalling("a"),
		toolResult("a"),
		assistant("done"),
	}

	got, changed := Repair(msgs)
	if changed {
		t.Fatalf("clean log reported as changed")
	}
	if len(got) != len(msgs) {
		t.Fatalf("expected %d messages, got %d", len(msgs), len(got))
	}
}

func TestRepairDropsOrphanToolResults(t *testing.T) {
	msgs := []backend.Message{
		toolResult("ghost"),
		user("u"),
		assistant("r"),
	}

	got, changed := Repair(msgs)
	if !changed {
		t.Fatalf("expected changed flag")
	}
	if len(got) != 2 || got[0].Role != backend.RoleUser {
		t.Fatalf("expected orphan dropped, got %#v", got)
	}
}

func TestRepairStripsUnansweredToolCalls(t *testing.T) {
	// Process killed after the model requested two tools but before the second
	// result was written.
	msgs := []backend.Message{
		user("u"),
		assistantCalling("a", "b"),
		toolResult("a"),
	}

	got, changed := Repair(msgs)
	if !changed {
		t.Fatalf("expected changed flag")
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %#v", got)
	}
	calls := got[1].ToolCalls
	if len(calls) != 1 || calls[0].ID != "a" {
		t.Fatalf("expected only answered call kept, got %#v", calls)
	}
	if !PairingValid(got) {
		t.Fatalf("repaired log breaks pairing: %#v", got)
	}
}

func TestRepairRemovesEmptyAssistantTurn(t *testing.T) {
	// All calls unanswered and no text content: nothing worth keeping.
	msgs := []backend.Message{
		user("u"),
		assistantCalling("a"),
	}

	got, changed := Repair(msgs)
	if !changed {
		t.Fatalf("expected changed flag")
	}
	if len(got) != 1 || got[0].Role != backend.RoleUser {
		t.Fatalf("expected bare user message, got %#v", got)
	}
}

func TestRepairKeepsAssistantTextWhenCallsStripped(t *testing.T) {
	msg := assistantCalling("a")
	msg.Content = "let me check"
	msgs := []backend.Message{user("u"), msg}

	got, _ := Repair(msgs)
	if len(got) != 2 || got[1].Content != "let me check" || len(got[1].ToolCalls) != 0 {
		t.Fatalf("expected text-only assistant message kept, got %#v", got)
	}
}

func TestRepairIdempotent(t *testing.T) {
	msgs := []backend.Message{
		toolResult("ghost"),
		user("u"),
		assistantCalling("a", "b"),
		toolResult("a"),
		user("u2"),
		assistant("r2"),
	}

	once, _ := Repair(msgs)
	twice, changed := Repair(once)
	if changed {
		t.Fatalf("second repair reported changes")
	}
	if len(once) != len(twice) {
		t.Fatalf("repair not idempotent: %d then %d", len(once), len(twice))
	}
}
