// Package tasks is the task-list store backing the task tools. Tasks live in
// a single JSON file rewritten atomically on every mutation.
package tasks

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/brainstem-ai/brainstem/internal/store"
)

// Priority bounds, 1 is highest.
const (
	MinPriority     = 1
	MaxPriority     = 5
	DefaultPriority = 3
)

// ErrNotFound reports a task id with no matching task.
var ErrNotFound = errors.New("task not found")

// Task is one todo item.
type Task struct {
	ID               string    `json:"id"`
	Description      string    `json:"description"`
	Done             bool      `json:"done"`
	Priority         int       `json:"priority"`
	EstimatedMinutes int       `json:"estimated_minutes,omitempty"`
	Category         string    `json:"category,omitempty"`
	Project          string    `json:"project,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Store reads and writes the task file.
type Store struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// New creates a task store over one JSON file.
func New(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Add inserts a new task and returns it with a generated id.
func (s *Store) Add(description string, priority, estimatedMinutes int, category, project string) (*Task, error) {
	if description == "" {
		return nil, errors.New("task description is required")
	}
	if priority == 0 {
		priority = DefaultPriority
	}
	if priority < MinPriority || priority > MaxPriority {
		return nil, fmt.Errorf("priority must be between %d and %d", MinPriority, MaxPriority)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return nil, err
	}

	task := Task{
		ID:               newID(),
		Description:      description,
		Priority:         priority,
		EstimatedMinutes: estimatedMinutes,
		Category:         category,
		Project:          project,
		CreatedAt:        s.now(),
	}
	all = append(all, task)
	if err := s.save(all); err != nil {
		return nil, err
	}
	return &task, nil
}

// List returns all tasks ordered by priority, then age.
func (s *Store) List() ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Priority != all[j].Priority {
			return all[i].Priority < all[j].Priority
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return all, nil
}

// Remove deletes a task by id.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	kept := all[:0]
	for _, task := range all {
		if task.ID != id {
			kept = append(kept, task)
		}
	}
	if len(kept) == len(all) {
		return ErrNotFound
	}
	return s.save(kept)
}

// SetDone updates the completion status of a task.
func (s *Store) SetDone(id string, done bool) (*Task, error) {
	return s.update(id, func(task *Task) error {
		task.Done = done
		return nil
	})
}

// SetPriority updates the priority of a task.
func (s *Store) SetPriority(id string, priority int) (*Task, error) {
	if priority < MinPriority || priority > MaxPriority {
		return nil, fmt.Errorf("priority must be between %d and %d", MinPriority, MaxPriority)
	}
	return s.update(id, func(task *Task) error {
		task.Priority = priority
		return nil
	})
}

// SetEstimatedMinutes updates the duration estimate of a task.
func (s *Store) SetEstimatedMinutes(id string, minutes int) (*Task, error) {
	if minutes <= 0 {
		return nil, errors.New("duration must be greater than 0 minutes")
	}
	return s.update(id, func(task *Task) error {
		task.EstimatedMinutes = minutes
		return nil
	})
}

// SetMetadata updates category and/or project of a task. Nil pointers leave
// the existing value untouched.
func (s *Store) SetMetadata(id string, category, project *string) (*Task, error) {
	if category == nil && project == nil {
		return nil, errors.New("no changes specified")
	}
	return s.update(id, func(task *Task) error {
		if category != nil {
			task.Category = *category
		}
		if project != nil {
			task.Project = *project
		}
		return nil
	})
}

func (s *Store) update(id string, mutate func(*Task) error) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID != id {
			continue
		}
		if err := mutate(&all[i]); err != nil {
			return nil, err
		}
		if err := s.save(all); err != nil {
			return nil, err
		}
		out := all[i]
		return &out, nil
	}
	return nil, ErrNotFound
}

func (s *Store) load() ([]Task, error) {
	content, err := store.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}
	var all []Task
	if err := json.Unmarshal([]byte(content), &all); err != nil {
		return nil, fmt.Errorf("decode task file: %w", err)
	}
	return all, nil
}

func (s *Store) save(all []Task) error {
	encoded, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode task file: %w", err)
	}
	if err := store.WriteFile(s.path, encoded); err != nil {
		return fmt.Errorf("write task file: %w", err)
	}
	return nil
}

func newID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand read failure means the platform is broken; fall back to time.
		return fmt.Sprintf("t-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
