// Package backend defines the provider-agnostic chat contract shared by every
// model adapter, plus the concrete cloud and on-device adapters.
package backend

import (
	"context"
	"time"
)

// Backend sends one conversation window to a model endpoint.
type Backend interface {
	// ID is the config profile name this backend was built from.
	ID() string
	// Send submits the window and tool definitions. A nil error means the
	// model produced either final text or tool-call requests; a non-nil
	// error is always a *backend.Error carrying a classified failure kind.
	Send(ctx context.Context, req Request) (*Response, error)
}

// Role is the author role for a conversation message.
type Role string

const (
	// RoleSystem is the leading instruction message.
	RoleSystem Role = "system"
	// RoleUser is a user-authored message.
	RoleUser Role = "user"
	// RoleAssistant is a model-authored message.
	RoleAssistant Role = "assistant"
	// RoleTool is a tool-result message addressed to the model.
	RoleTool Role = "tool"
)

// Message is a single message in conversation history.
type Message struct {
	Role       Role
	Content    string
	ToolCallID string
	ToolCalls  []ToolCall
}

// ToolCall is a model request to execute a tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolDefinition describes a callable tool exposed to the model.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request is the provider-agnostic request payload. Messages carry the
// truncated conversation window, including the leading system message.
type Request struct {
	Messages  []Message
	Tools     []ToolDefinition
	MaxTokens int
	// Complex extends the adapter deadline for reasoning-heavy turns.
	Complex bool
}

// Usage reports provider token accounting for one response.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Response is the provider-agnostic response payload. A response with a
// non-empty ToolCalls slice means the model wants tools run before it can
// produce a final answer.
type Response struct {
	Content   string
	ToolCalls []ToolCall
	Usage     Usage
}

// complexCharThreshold marks a window as reasoning-heavy by raw size when the
// caller did not flag it explicitly.
const complexCharThreshold = 6000

// deadlineFor derives the per-call context deadline: the base timeout by
// default, the extended one when the request classifies as complex. A
// non-positive timeout leaves the caller's context untouched.
func deadlineFor(ctx context.Context, req Request, base, complex time.Duration) (context.Context, context.CancelFunc) {
	timeout := base
	if isComplex(req) && complex > 0 {
		timeout = complex
	}
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// isComplex reports whether the request should get the extended deadline.
func isComplex(req Request) bool {
	if req.Complex {
		return true
	}
	chars := 0
	for _, msg := range req.Messages {
		chars += len(msg.Content)
		for _, tc := range msg.ToolCalls {
			chars += len(tc.Arguments)
		}
	}
	return chars > complexCharThreshold
}
