package backend

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/brainstem-ai/brainstem/internal/config"
)

func TestIsComplex(t *testing.T) {
	small := Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}}
	if isComplex(small) {
		t.Fatalf("small request classified complex")
	}

	flagged := small
	flagged.Complex = true
	if !isComplex(flagged) {
		t.Fatalf("explicit flag ignored")
	}

	big := Request{Messages: []Message{{Role: RoleUser, Content: strings.Repeat("a", complexCharThreshold+1)}}}
	if !isComplex(big) {
		t.Fatalf("oversized window not classified complex")
	}

	// Tool call arguments count toward the size heuristic.
	args := Request{Messages: []Message{{
		Role:      RoleAssistant,
		ToolCalls: []ToolCall{{ID: "1", Name: "x", Arguments: strings.Repeat("b", complexCharThreshold+1)}},
	}}}
	if !isComplex(args) {
		t.Fatalf("tool arguments not counted")
	}
}

func TestDeadlineFor(t *testing.T) {
	req := Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}}

	ctx, cancel := deadlineFor(context.Background(), req, time.Minute, 2*time.Minute)
	defer cancel()
	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatalf("expected a deadline")
	}
	if remaining := time.Until(deadline); remaining > time.Minute || remaining < 50*time.Second {
		t.Fatalf("expected ~1m deadline, got %v", remaining)
	}

	complexReq := req
	complexReq.Complex = true
	ctx2, cancel2 := deadlineFor(context.Background(), complexReq, time.Minute, 2*time.Minute)
	defer cancel2()
	deadline2, _ := ctx2.Deadline()
	if remaining := time.Until(deadline2); remaining < 90*time.Second {
		t.Fatalf("expected extended deadline, got %v", remaining)
	}

	// No configured timeout leaves the context untouched.
	ctx3, cancel3 := deadlineFor(context.Background(), req, 0, 0)
	defer cancel3()
	if _, ok := ctx3.Deadline(); ok {
		t.Fatalf("expected no deadline")
	}
}

func TestFactoryNew(t *testing.T) {
	if _, err := New("cloud", config.LLMConfig{Provider: config.ProviderAnthropic, APIKey: "k", Model: "m"}); err != nil {
		t.Fatalf("anthropic: %v", err)
	}
	if _, err := New("cloud", config.LLMConfig{Provider: config.ProviderOpenAI, APIKey: "k", Model: "m"}); err != nil {
		t.Fatalf("openai: %v", err)
	}
	if _, err := New("ondevice", config.LLMConfig{Provider: config.ProviderLocal, Model: "m"}); err != nil {
		t.Fatalf("local: %v", err)
	}
	if _, err := New("x", config.LLMConfig{Provider: "carrier-pigeon"}); err == nil {
		t.Fatalf("expected unknown provider to fail")
	}
	if _, err := New("cloud", config.LLMConfig{Provider: config.ProviderAnthropic, Model: "m"}); err == nil {
		t.Fatalf("expected missing api key to fail")
	}
}

func TestNewSetBuildsOnlyLadderBackends(t *testing.T) {
	cfg := &config.Config{
		LLM: map[string]config.LLMConfig{
			"cloud":    {Provider: config.ProviderAnthropic, APIKey: "k", Model: "m"},
			"ondevice": {Provider: config.ProviderLocal, Model: "m"},
			"unused":   {Provider: "carrier-pigeon"},
		},
		Ladder: []config.TierConfig{
			{Label: "cloud-full", Backend: "cloud"},
			{Label: "text-only", Backend: "ondevice", TextOnly: true},
		},
	}

	set, err := NewSet(cfg)
	if err != nil {
		t.Fatalf("new set: %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("expected 2 backends, got %d", len(set))
	}
	if _, ok := set["unused"]; ok {
		t.Fatalf("unreferenced profile must not be built")
	}
}

func TestKindOfDefaultsToUnavailable(t *testing.T) {
	if got := KindOf(context.DeadlineExceeded); got != FailureUnavailable {
		t.Fatalf("unclassified error = %s, want unavailable", got)
	}
	err := NewError(FailureTimeout, "b", nil)
	if got := KindOf(err); got != FailureTimeout {
		t.Fatalf("classified error = %s, want timeout", got)
	}
}
