package calendar

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "events.json"))
	s.now = func() time.Time {
		return time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	}
	return s
}

func TestCreateComputesEnd(t *testing.T) {
	s := newTestStore(t)
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)

	event, err := s.Create("standup", start, 30, "", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !event.End.Equal(start.Add(30 * time.Minute)) {
		t.Fatalf("expected end = start + 30m, got %v", event.End)
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	s := newTestStore(t)
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)

	if _, err := s.Create("", start, 30, "", ""); err == nil {
		t.Fatalf("expected error for empty title")
	}
	if _, err := s.Create("x", start, 0, "", ""); err == nil {
		t.Fatalf("expected error for zero duration")
	}
}

func TestTodayFiltersAndOrders(t *testing.T) {
	s := newTestStore(t)
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)

	if _, err := s.Create("afternoon", today.Add(15*time.Hour), 60, "", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Create("morning", today.Add(9*time.Hour), 60, "", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Create("yesterday", today.Add(-10*time.Hour), 60, "", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	// An event straddling midnight still overlaps today.
	if _, err := s.Create("late night", today.Add(-30*time.Minute), 60, "", ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.Today()
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if got[0].Title != "late night" || got[1].Title != "morning" || got[2].Title != "afternoon" {
		t.Fatalf("unexpected order: %v, %v, %v", got[0].Title, got[1].Title, got[2].Title)
	}
}

func TestUpdateRecomputesEnd(t *testing.T) {
	s := newTestStore(t)
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	event, err := s.Create("focus block", start, 60, "", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Moving the start keeps the original duration.
	newStart := start.Add(2 * time.Hour)
	got, err := s.Update(event.ID, nil, &newStart, nil, nil, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !got.End.Equal(newStart.Add(time.Hour)) {
		t.Fatalf("expected duration preserved, got end %v", got.End)
	}

	// Changing the duration recomputes the end from the current start.
	minutes := 90
	got, err = s.Update(event.ID, nil, nil, &minutes, nil, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !got.End.Equal(newStart.Add(90 * time.Minute)) {
		t.Fatalf("expected 90m duration, got end %v", got.End)
	}

	title := "renamed"
	got, err = s.Update(event.ID, &title, nil, nil, nil, nil)
	if err != nil || got.Title != "renamed" {
		t.Fatalf("update title = %#v, %v", got, err)
	}
}

func TestUpdateUnknownID(t *testing.T) {
	s := newTestStore(t)
	title := "x"
	if _, err := s.Update("missing", &title, nil, nil, nil, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	event, err := s.Create("temp", start, 15, "", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.Delete(event.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(event.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
