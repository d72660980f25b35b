// Package calendar is the event store backing the calendar tools. It covers
// the day-planning surface the coach needs: create, list today, update,
// delete.
package calendar

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

// ErrNotFound reports an event id with no matching event.
var ErrNotFound = errors.New("event not found")

// Event is one calendar entry.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
}

// Store reads and writes the events file.
type Store struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// New creates a calendar store over one JSON file.
func New(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Create adds an event starting at the given time for durationMinutes.
func (s *Store) Create(title string, start time.Time, durationMinutes int, description, location string) (*Event, error) {
	if title == "" {
		return nil, errors.New("event title is required")
	}
	if durationMinutes <= 0 {
		return nil, errors.New("duration must be greater than 0 minutes")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return nil, err
	}

	event := Event{
		ID:          newID(),
		Title:       title,
		Start:       start,
		End:         start.Add(time.Duration(durationMinutes) * time.Minute),
		Description: description,
		Location:    location,
	}
	all = append(all, event)
	if err := s.save(all); err != nil {
		return nil, err
	}
	return &event, nil
}

// Today returns events overlapping the current local day, ordered by start.
func (s *Store) Today() ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return nil, err
	}

	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	out := make([]Event, 0, len(all))
	for _, event := range all {
		if event.End.After(dayStart) && event.Start.Before(dayEnd) {
			out = append(out, event)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// Update rewrites the given fields of an event. Nil pointers leave the
// existing value untouched; a new start or duration recomputes End.
func (s *Store) Update(id string, title *string, start *time.Time, durationMinutes *int, description, location *string) (*Event, error) {
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
		event := &all[i]
		duration := event.End.Sub(event.Start)
		if title != nil {
			event.Title = *title
		}
		if start != nil {
			event.Start = *start
		}
		if durationMinutes != nil {
			if *durationMinutes <= 0 {
				return nil, errors.New("duration must be greater than 0 minutes")
			}
			duration = time.Duration(*durationMinutes) * time.Minute
		}
		event.End = event.Start.Add(duration)
		if description != nil {
			event.Description = *description
		}
		if location != nil {
			event.Location = *location
		}
		if err := s.save(all); err != nil {
			return nil, err
		}
		out := *event
		return &out, nil
	}
	return nil, ErrNotFound
}

// Delete removes an event by id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	kept := all[:0]
	for _, event := range all {
		if event.ID != id {
			kept = append(kept, event)
		}
	}
	if len(kept) == len(all) {
		return ErrNotFound
	}
	return s.save(kept)
}

func (s *Store) load() ([]Event, error) {
	content, err := store.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Event{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read events file: %w", err)
	}
	var all []Event
	if err := json.Unmarshal([]byte(content), &all); err != nil {
		return nil, fmt.Errorf("decode events file: %w", err)
	}
	return all, nil
}

func (s *Store) save(all []Event) error {
	encoded, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode events file: %w", err)
	}
	if err := store.WriteFile(s.path, encoded); err != nil {
		return fmt.Errorf("write events file: %w", err)
	}
	return nil
}

func newID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("e-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
