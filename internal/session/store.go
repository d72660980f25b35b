// Package session persists the full untruncated conversation as JSONL
// records, one file per channel session, with append, rewrite, and reset
// operations.
package session

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/brainstem-ai/brainstem/internal/backend"
	"github.com/brainstem-ai/brainstem/internal/conversation"
	"github.com/brainstem-ai/brainstem/internal/logging"
	"github.com/brainstem-ai/brainstem/internal/store"
)

// Store persists conversation history in a JSONL file.
type Store struct {
	path string
	mu   sync.Mutex
}

type record struct {
	Role       backend.Role       `json:"role"`
	Content    string             `json:"content,omitempty"`
	ToolCallID string             `json:"tool_call_id,omitempty"`
	ToolCalls  []backend.ToolCall `json:"tool_calls,omitempty"`
}

// New creates a session store for one channel session file.
func New(path string) *Store {
	return &Store{path: path}
}

// Load reads all valid JSONL records from disk. A log written by a process
// killed mid-turn is repaired (orphan tool messages dropped, unanswered tool
// calls stripped) and rewritten once so later loads see a clean file.
// Malformed lines are skipped.
func (s *Store) Load(ctx context.Context) ([]backend.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.path == "" {
		return nil, errors.New("session path is required")
	}

	content, err := store.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []backend.Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	messages := make([]backend.Message, 0)
	scanner := bufio.NewScanner(strings.NewReader(content))
	// Tool results can produce long single-line records.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		messages = append(messages, backend.Message{
			Role:       rec.Role,
			Content:    rec.Content,
			ToolCallID: rec.ToolCallID,
			ToolCalls:  rec.ToolCalls,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan session file: %w", err)
	}

	repaired, changed := conversation.Repair(messages)
	if changed {
		logging.Logger().Warn("session log repaired on load", "path", s.path, "kept", len(repaired), "loaded", len(messages))
		if err := s.Rewrite(ctx, repaired); err != nil {
			return nil, err
		}
	}
	return repaired, nil
}

// Append appends messages as JSONL records.
func (s *Store) Append(ctx context.Context, messages []backend.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.path == "" {
		return errors.New("session path is required")
	}
	if len(messages) == 0 {
		return nil
	}

	encoded, err := encodeRecords(messages)
	if err != nil {
		return err
	}
	if err := store.AppendFile(s.path, encoded); err != nil {
		return fmt.Errorf("append session records: %w", err)
	}
	return nil
}

// Rewrite atomically replaces the whole log.
func (s *Store) Rewrite(ctx context.Context, messages []backend.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.path == "" {
		return errors.New("session path is required")
	}

	encoded, err := encodeRecords(messages)
	if err != nil {
		return err
	}
	if err := store.WriteFile(s.path, encoded); err != nil {
		return fmt.Errorf("rewrite session file: %w", err)
	}
	return nil
}

// Reset deletes the session file.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.path == "" {
		return errors.New("session path is required")
	}
	return store.RemoveFile(s.path)
}

func encodeRecords(messages []backend.Message) ([]byte, error) {
	var b strings.Builder
	for _, msg := range messages {
		rec := record{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
			ToolCalls:  msg.ToolCalls,
		}
		encoded, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("marshal session record: %w", err)
		}
		b.Write(encoded)
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}
