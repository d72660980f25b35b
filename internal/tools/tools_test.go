package tools

import (
	"context"
	"strings"
	"testing"
)

type fakeTool struct {
	name   string
	output string
}

func (f fakeTool) Name() string           { return f.name }
func (f fakeTool) Description() string    { return "fake tool" }
func (f fakeTool) Schema() map[string]any { return map[string]any{"type": "object"} }
func (f fakeTool) Execute(context.Context, map[string]any) (*Result, error) {
	return &Result{Output: f.output}, nil
}

func TestRegistryRejectsDuplicateName(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(fakeTool{name: "a"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(fakeTool{name: "a"}); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}

func TestRegistryRejectsEmptyName(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(fakeTool{name: ""}); err == nil {
		t.Fatalf("expected empty name to fail")
	}
	if err := r.Register(nil); err == nil {
		t.Fatalf("expected nil tool to fail")
	}
}

func TestMustRegisterPanicsOnDuplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	r := NewRegistry()
	r.MustRegister(fakeTool{name: "a"}, fakeTool{name: "a"})
}

func TestNamesStableOrder(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(fakeTool{name: "c"}, fakeTool{name: "a"}, fakeTool{name: "b"})

	names := r.Names()
	if strings.Join(names, ",") != "a,b,c" {
		t.Fatalf("expected sorted names, got %v", names)
	}
}

func TestDefinitionsForSubsetSemantics(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(fakeTool{name: "a"}, fakeTool{name: "b"})

	if got := r.DefinitionsFor(nil); len(got) != 2 {
		t.Fatalf("nil subset should mean full set, got %d", len(got))
	}
	if got := r.DefinitionsFor([]string{}); len(got) != 0 {
		t.Fatalf("empty subset should mean no tools, got %d", len(got))
	}
	got := r.DefinitionsFor([]string{"b", "missing"})
	if len(got) != 1 || got[0].Name != "b" {
		t.Fatalf("expected unknown names ignored, got %#v", got)
	}
}

func TestArgHelpers(t *testing.T) {
	args := map[string]any{
		"text":    "hello",
		"blank":   "  ",
		"num":     float64(3),
		"frac":    float64(3.5),
		"flag":    true,
		"notText": 7,
	}

	if _, err := stringArg(args, "text"); err != nil {
		t.Fatalf("stringArg: %v", err)
	}
	if _, err := stringArg(args, "blank"); err == nil {
		t.Fatalf("expected blank string to fail")
	}
	if _, err := stringArg(args, "absent"); err == nil {
		t.Fatalf("expected missing key to fail")
	}
	if _, err := stringArg(args, "notText"); err == nil {
		t.Fatalf("expected non-string to fail")
	}

	if got, err := intArg(args, "num"); err != nil || got != 3 {
		t.Fatalf("intArg = %d, %v", got, err)
	}
	if _, err := intArg(args, "frac"); err == nil {
		t.Fatalf("expected fractional number to fail")
	}
	if got, err := optionalIntArg(args, "absent", 9); err != nil || got != 9 {
		t.Fatalf("optionalIntArg fallback = %d, %v", got, err)
	}

	if got, err := boolArg(args, "flag"); err != nil || !got {
		t.Fatalf("boolArg = %v, %v", got, err)
	}
	if _, err := boolArg(args, "text"); err == nil {
		t.Fatalf("expected non-bool to fail")
	}

	if value, ok, err := optionalStringArg(args, "absent"); err != nil || ok || value != "" {
		t.Fatalf("optionalStringArg absent = %q, %v, %v", value, ok, err)
	}
	if value, ok, err := optionalStringArg(args, "text"); err != nil || !ok || value != "hello" {
		t.Fatalf("optionalStringArg = %q, %v, %v", value, ok, err)
	}
}
