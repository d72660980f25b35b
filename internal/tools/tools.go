// Package tools defines the Tool interface and Registry used by the
// orchestrator, plus the built-in task, calendar, scratchpad, time, and
// health tools.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/brainstem-ai/brainstem/internal/backend"
)

// Tool is one executable action exposed to the model.
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]any
	Execute(ctx context.Context, args map[string]any) (*Result, error)
}

// Result is the normalized output returned by tools. Its text becomes the
// content of the role=tool message the model sees next.
type Result struct {
	Output string
}

// Registry stores tools by unique name. Registration happens once at wiring
// time; a duplicate name is a configuration error, not a runtime condition.
type Registry struct {
	byName map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Tool)}
}

// Register adds a tool by unique name.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return errors.New("tool cannot be nil")
	}
	name := tool.Name()
	if name == "" {
		return errors.New("tool name cannot be empty")
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}
	r.byName[name] = tool
	return nil
}

// MustRegister registers a list of tools and panics on a duplicate. Wiring
// code calls it during startup where a duplicate means a broken build.
func (r *Registry) MustRegister(toolList ...Tool) {
	for _, tool := range toolList {
		if err := r.Register(tool); err != nil {
			panic(err)
		}
	}
}

// Lookup returns a tool by name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	tool, ok := r.byName[name]
	return tool, ok
}

// Names returns all registered tool names in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions converts all registered tools into model request definitions,
// in stable name order.
func (r *Registry) Definitions() []backend.ToolDefinition {
	return r.definitionsFor(r.Names())
}

// DefinitionsFor returns definitions for the named subset only, preserving
// stable order and silently ignoring names the registry does not know. A nil
// subset means the full set; an empty non-nil subset means no tools.
func (r *Registry) DefinitionsFor(subset []string) []backend.ToolDefinition {
	if subset == nil {
		return r.Definitions()
	}
	names := append([]string(nil), subset...)
	sort.Strings(names)
	return r.definitionsFor(names)
}

func (r *Registry) definitionsFor(names []string) []backend.ToolDefinition {
	defs := make([]backend.ToolDefinition, 0, len(names))
	for _, name := range names {
		tool, ok := r.byName[name]
		if !ok {
			continue
		}
		defs = append(defs, backend.ToolDefinition{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Schema(),
		})
	}
	return defs
}
