package tools

import (
	"context"

	"github.com/brainstem-ai/brainstem/internal/notes"
)

// GetScratchpadTool reads the shared scratchpad.
type GetScratchpadTool struct {
	Store *notes.Store
}

func (t GetScratchpadTool) Name() string { return "get_scratchpad" }

func (t GetScratchpadTool) Description() string {
	return "Read the user's scratchpad notes."
}

func (t GetScratchpadTool) Schema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t GetScratchpadTool) Execute(_ context.Context, _ map[string]any) (*Result, error) {
	content, err := t.Store.Get()
	if err != nil {
		return nil, err
	}
	if content == "" {
		return &Result{Output: "The scratchpad is empty."}, nil
	}
	return &Result{Output: content}, nil
}

// SetScratchpadTool replaces the shared scratchpad.
type SetScratchpadTool struct {
	Store *notes.Store
}

func (t SetScratchpadTool) Name() string { return "set_scratchpad" }

func (t SetScratchpadTool) Description() string {
	return "Replace the user's scratchpad notes with new content."
}

func (t SetScratchpadTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"content": map[string]any{
				"type":        "string",
				"description": "The new scratchpad content",
			},
		},
		"required": []string{"content"},
	}
}

func (t SetScratchpadTool) Execute(_ context.Context, args map[string]any) (*Result, error) {
	content, ok := args["content"].(string)
	if !ok {
		// An explicit empty string clears the scratchpad, so stringArg's
		// non-empty check does not apply here.
		return nil, errArgContent
	}
	if err := t.Store.Set(content); err != nil {
		return nil, err
	}
	return &Result{Output: "Scratchpad updated."}, nil
}
