// Package scheduler runs recurring coach nudges: cron-scheduled prompts that
// flow through the same dispatcher as user messages.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/brainstem-ai/brainstem/internal/store"
)

// Nudge is one persisted scheduled prompt in jobs.json.
type Nudge struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Cron        string    `json:"cron"`
	Prompt      string    `json:"prompt"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store manages the persisted nudge list.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a nudge store over one jobs.json path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// List returns all persisted nudges.
func (s *Store) List(ctx context.Context) ([]Nudge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.load()
}

// Add validates and appends one nudge.
func (s *Store) Add(ctx context.Context, nudge Nudge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(nudge.ID) == "" {
		return errors.New("nudge id is required")
	}
	if strings.TrimSpace(nudge.Prompt) == "" {
		return errors.New("nudge prompt is required")
	}
	if _, err := cron.ParseStandard(nudge.Cron); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", nudge.Cron, err)
	}

	all, err := s.load()
	if err != nil {
		return err
	}
	for _, existing := range all {
		if existing.ID == nudge.ID {
			return fmt.Errorf("nudge %q already exists", nudge.ID)
		}
	}
	if nudge.CreatedAt.IsZero() {
		nudge.CreatedAt = time.Now()
	}
	all = append(all, nudge)
	return s.save(all)
}

// Remove deletes a nudge by id.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	all, err := s.load()
	if err != nil {
		return err
	}
	kept := all[:0]
	for _, nudge := range all {
		if nudge.ID != id {
			kept = append(kept, nudge)
		}
	}
	if len(kept) == len(all) {
		return fmt.Errorf("nudge %q not found", id)
	}
	return s.save(kept)
}

func (s *Store) load() ([]Nudge, error) {
	content, err := store.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Nudge{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read jobs file: %w", err)
	}
	var all []Nudge
	if err := json.Unmarshal([]byte(content), &all); err != nil {
		return nil, fmt.Errorf("decode jobs file: %w", err)
	}
	return all, nil
}

func (s *Store) save(all []Nudge) error {
	encoded, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode jobs file: %w", err)
	}
	if err := store.WriteFile(s.path, encoded); err != nil {
		return fmt.Errorf("write jobs file: %w", err)
	}
	return nil
}
