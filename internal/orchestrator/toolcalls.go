package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/brainstem-ai/brainstem/internal/backend"
	"github.com/brainstem-ai/brainstem/internal/logging"
)

// executeToolCalls runs every call from one assistant turn. Calls execute
// concurrently (they are independent side-effecting operations), but each
// result lands in the slot matching its request, so the appended tool
// messages always follow the model's request order.
func (o *Orchestrator) executeToolCalls(ctx context.Context, calls []backend.ToolCall) []backend.Message {
	results := make([]backend.Message, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(slot int, call backend.ToolCall) {
			defer wg.Done()
			results[slot] = backend.Message{
				Role:       backend.RoleTool,
				ToolCallID: call.ID,
				Content:    o.executeToolCall(ctx, call),
			}
		}(i, call)
	}
	wg.Wait()

	return results
}

// executeToolCall produces the tool-result text for one call. Every failure
// mode (unknown tool, bad arguments, handler error, handler panic) becomes
// text the model can read and react to; nothing escapes into the turn loop.
func (o *Orchestrator) executeToolCall(ctx context.Context, call backend.ToolCall) (result string) {
	defer func() {
		if r := recover(); r != nil {
			logging.Logger().Error("tool handler panicked", "tool", call.Name, "panic", r)
			result = fmt.Sprintf("tool execution error: internal failure in %q", call.Name)
		}
	}()

	tool, ok := o.registry.Lookup(call.Name)
	if !ok {
		logging.Logger().Warn(
			"tool call rejected: unknown tool",
			"tool", call.Name,
			"tool_call_id", call.ID,
		)
		return fmt.Sprintf(
			"tool execution error: unknown tool %q. Available tools: %s. Use an available tool name exactly.",
			call.Name,
			strings.Join(o.registry.Names(), ", "),
		)
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			logging.Logger().Warn(
				"tool call rejected: invalid arguments",
				"tool", call.Name,
				"tool_call_id", call.ID,
				"err", err,
			)
			return fmt.Sprintf("tool execution error: invalid tool arguments for %q: %v", call.Name, err)
		}
	}

	startedAt := time.Now()
	out, err := tool.Execute(ctx, args)
	if err != nil {
		logging.Logger().Warn(
			"tool call failed",
			"tool", call.Name,
			"tool_call_id", call.ID,
			"duration_ms", time.Since(startedAt).Milliseconds(),
			"err", err,
		)
		return fmt.Sprintf("tool execution error: %v", err)
	}

	logging.Logger().Info(
		"tool call complete",
		"tool", call.Name,
		"tool_call_id", call.ID,
		"duration_ms", time.Since(startedAt).Milliseconds(),
	)
	if out == nil || out.Output == "" {
		// The model must always see some tool response.
		return "ok"
	}
	return out.Output
}
