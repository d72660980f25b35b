package conversation

import "github.com/brainstem-ai/brainstem/internal/backend"

// Repair normalizes a persisted log that may have been written by a process
// killed mid-turn. Orphan tool results are dropped, and assistant tool calls
// with no recorded result are stripped (an assistant message left with neither
// content nor calls is removed outright). The returned flag reports whether
// anything changed, so callers can rewrite the log once instead of repairing
// on every load.
func Repair(messages []backend.Message) ([]backend.Message, bool) {
	if len(messages) == 0 {
		return []backend.Message{}, false
	}

	out := make([]backend.Message, 0, len(messages))
	changed := false

	for i := 0; i < len(messages); i++ {
		msg := messages[i]

		// A tool result reaching this point has no owning assistant message.
		if msg.Role == backend.RoleTool {
			changed = true
			continue
		}

		if msg.Role != backend.RoleAssistant || len(msg.ToolCalls) == 0 {
			out = append(out, msg)
			continue
		}

		// Gather the contiguous tool-result block following this assistant turn.
		j := i + 1
		for j < len(messages) && messages[j].Role == backend.RoleTool {
			j++
		}

		resultsByID := make(map[string][]backend.Message, len(msg.ToolCalls))
		resultOrder := make([]string, 0, len(msg.ToolCalls))
		for k := i + 1; k < j; k++ {
			id := messages[k].ToolCallID
			if id == "" {
				changed = true
				continue
			}
			if _, ok := resultsByID[id]; !ok {
				resultOrder = append(resultOrder, id)
			}
			resultsByID[id] = append(resultsByID[id], messages[k])
		}

		keptCalls := make([]backend.ToolCall, 0, len(msg.ToolCalls))
		validIDs := make(map[string]struct{}, len(msg.ToolCalls))
		for _, call := range msg.ToolCalls {
			if len(resultsByID[call.ID]) == 0 {
				changed = true
				continue
			}
			keptCalls = append(keptCalls, call)
			validIDs[call.ID] = struct{}{}
		}

		assistant := msg
		assistant.ToolCalls = keptCalls
		if len(keptCalls) > 0 || assistant.Content != "" {
			out = append(out, assistant)
		} else {
			changed = true
		}

		for _, id := range resultOrder {
			if _, ok := validIDs[id]; !ok {
				changed = true
				continue
			}
			out = append(out, resultsByID[id]...)
		}
		if len(keptCalls) != len(msg.ToolCalls) {
			changed = true
		}

		i = j - 1
	}

	return out, changed
}
