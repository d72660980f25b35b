// Package conversation owns the append-only message log for one chat session
// and the truncation algorithm applied before every model send.
package conversation

import "github.com/brainstem-ai/brainstem/internal/backend"

// Store is the ordered, append-only conversation log. The leading system
// message is fixed at construction and survives every truncation and reset.
//
// A Store has a single owner (the orchestrator); callers must not append
// concurrently.
type Store struct {
	system   backend.Message
	messages []backend.Message
}

// New creates a store seeded with the leading system message.
func New(systemPrompt string) *Store {
	return &Store{
		system: backend.Message{
			Role:    backend.RoleSystem,
			Content: systemPrompt,
		},
	}
}

// Append adds messages to the end of the log. Corrections happen by appending
// new messages, never by editing old ones.
func (s *Store) Append(messages ...backend.Message) {
	s.messages = append(s.messages, messages...)
}

// Replace swaps the whole post-system log, used when loading persisted history.
func (s *Store) Replace(messages []backend.Message) {
	s.messages = append([]backend.Message(nil), messages...)
}

// FullHistory returns the untruncated log including the system message.
func (s *Store) FullHistory() []backend.Message {
	out := make([]backend.Message, 0, len(s.messages)+1)
	out = append(out, s.system)
	out = append(out, s.messages...)
	return out
}

// Messages returns the post-system log.
func (s *Store) Messages() []backend.Message {
	return append([]backend.Message(nil), s.messages...)
}

// Len reports the number of messages excluding the system message.
func (s *Store) Len() int {
	return len(s.messages)
}

// Reset clears everything except the system message.
func (s *Store) Reset() {
	s.messages = nil
}

// Window returns the truncated view sent to a backend: the system message
// plus at least the maxRecent most recent messages, expanded backward so no
// tool-result message is separated from the assistant message that requested
// it. Staged messages not yet committed to the store are appended to the log
// before windowing.
func (s *Store) Window(maxRecent int, staged ...backend.Message) []backend.Message {
	combined := make([]backend.Message, 0, len(s.messages)+len(staged))
	combined = append(combined, s.messages...)
	combined = append(combined, staged...)

	windowed := Window(combined, maxRecent)
	out := make([]backend.Message, 0, len(windowed)+1)
	out = append(out, s.system)
	out = append(out, windowed...)
	return out
}

// Window truncates a message log (without its system message) to at least the
// maxRecent most recent entries, walking further back whenever the cut would
// land inside a tool turn. Backends reject a tool-result message whose
// originating tool-call request is missing from the same request, so the
// window trades size for validity.
func Window(messages []backend.Message, maxRecent int) []backend.Message {
	if maxRecent <= 0 || len(messages) <= maxRecent {
		return append([]backend.Message(nil), messages...)
	}

	start := len(messages) - maxRecent
	// Skipping forward past a trailing orphan tool block can run start off
	// the end of the log.
	for start > 0 && start < len(messages) && messages[start].Role == backend.RoleTool {
		start = expandPastToolTurn(messages, start)
	}
	return append([]backend.Message(nil), messages[start:]...)
}

// expandPastToolTurn moves a window start that lands on a tool-result message
// back to the assistant message carrying the matching tool calls. Orphan tool
// blocks (no owning assistant message) are skipped forward instead; the repair
// pass removes them from persisted logs, but an in-memory log is never trusted
// blindly.
func expandPastToolTurn(messages []backend.Message, start int) int {
	blockStart := start
	for blockStart > 0 && messages[blockStart-1].Role == backend.RoleTool {
		blockStart--
	}

	assistantIdx := blockStart - 1
	if assistantIdx >= 0 &&
		messages[assistantIdx].Role == backend.RoleAssistant &&
		len(messages[assistantIdx].ToolCalls) > 0 {
		return assistantIdx
	}

	i := start
	for i < len(messages) && messages[i].Role == backend.RoleTool {
		i++
	}
	return i
}

// PairingValid reports whether every tool-result message in the window has
// exactly one preceding assistant message whose tool calls carry its id.
func PairingValid(messages []backend.Message) bool {
	open := map[string]struct{}{}
	for _, msg := range messages {
		switch msg.Role {
		case backend.RoleAssistant:
			open = map[string]struct{}{}
			for _, tc := range msg.ToolCalls {
				open[tc.ID] = struct{}{}
			}
		case backend.RoleTool:
			if _, ok := open[msg.ToolCallID]; !ok {
				return false
			}
			delete(open, msg.ToolCallID)
		}
	}
	return true
}
