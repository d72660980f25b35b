// Package notes is the scratchpad store: one free-form text blob the user and
// the model share for quick capture.
package notes

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/brainstem-ai/brainstem/internal/store"
)

// Store reads and writes the scratchpad file.
type Store struct {
	path string
	mu   sync.Mutex
}

// New creates a scratchpad store over one file.
func New(path string) *Store {
	return &Store{path: path}
}

// Get returns the scratchpad contents; a missing file reads as empty.
func (s *Store) Get() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := store.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read scratchpad: %w", err)
	}
	return content, nil
}

// Set replaces the scratchpad contents.
func (s *Store) Set(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := store.WriteFile(s.path, []byte(text)); err != nil {
		return fmt.Errorf("write scratchpad: %w", err)
	}
	return nil
}
