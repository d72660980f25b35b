package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brainstem-ai/brainstem/internal/calendar"
)

// CreateEventTool adds a calendar event.
type CreateEventTool struct {
	Store *calendar.Store
}

func (t CreateEventTool) Name() string { return "create_calendar_event" }

func (t CreateEventTool) Description() string {
	return "Create a new calendar event from a title, an ISO start time, and a duration in minutes."
}

func (t CreateEventTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "The title of the event",
			},
			"start_time": map[string]any{
				"type":        "string",
				"description": "Start time in ISO format (YYYY-MM-DDTHH:MM:SS)",
			},
			"duration_minutes": map[string]any{
				"type":        "integer",
				"description": "Duration of the event in minutes",
			},
			"description": map[string]any{
				"type":        "string",
				"description": "Optional description",
			},
			"location": map[string]any{
				"type":        "string",
				"description": "Optional location",
			},
		},
		"required": []string{"title", "start_time", "duration_minutes"},
	}
}

func (t CreateEventTool) Execute(_ context.Context, args map[string]any) (*Result, error) {
	title, err := stringArg(args, "title")
	if err != nil {
		return nil, err
	}
	startRaw, err := stringArg(args, "start_time")
	if err != nil {
		return nil, err
	}
	start, err := parseEventTime(startRaw)
	if err != nil {
		return &Result{Output: fmt.Sprintf("Invalid start time format: %s. Use ISO format (YYYY-MM-DDTHH:MM:SS).", startRaw)}, nil
	}
	minutes, err := intArg(args, "duration_minutes")
	if err != nil {
		return nil, err
	}
	description, _, err := optionalStringArg(args, "description")
	if err != nil {
		return nil, err
	}
	location, _, err := optionalStringArg(args, "location")
	if err != nil {
		return nil, err
	}

	event, err := t.Store.Create(title, start, minutes, description, location)
	if err != nil {
		return nil, err
	}
	return &Result{Output: fmt.Sprintf("Calendar event created with ID: %s", event.ID)}, nil
}

// ListTodayEventsTool lists today's calendar events.
type ListTodayEventsTool struct {
	Store *calendar.Store
}

func (t ListTodayEventsTool) Name() string { return "list_todays_events" }

func (t ListTodayEventsTool) Description() string {
	return "List all calendar events scheduled for today, ordered by start time."
}

func (t ListTodayEventsTool) Schema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t ListTodayEventsTool) Execute(_ context.Context, _ map[string]any) (*Result, error) {
	events, err := t.Store.Today()
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return &Result{Output: "No events are scheduled for today."}, nil
	}

	var b strings.Builder
	for _, event := range events {
		fmt.Fprintf(&b, "%s - %s: %s (id=%s",
			event.Start.Format("15:04"), event.End.Format("15:04"), event.Title, event.ID)
		if event.Location != "" {
			fmt.Fprintf(&b, ", location=%s", event.Location)
		}
		b.WriteString(")\n")
	}
	return &Result{Output: b.String()}, nil
}

// UpdateEventTool rewrites fields of a calendar event.
type UpdateEventTool struct {
	Store *calendar.Store
}

func (t UpdateEventTool) Name() string { return "update_calendar_event" }

func (t UpdateEventTool) Description() string {
	return "Update the title, start time, duration, description, or location of a calendar event."
}

func (t UpdateEventTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"event_id": map[string]any{
				"type":        "string",
				"description": "The unique identifier of the event",
			},
			"title": map[string]any{
				"type":        "string",
				"description": "New title",
			},
			"start_time": map[string]any{
				"type":        "string",
				"description": "New start time in ISO format",
			},
			"duration_minutes": map[string]any{
				"type":        "integer",
				"description": "New duration in minutes",
			},
			"description": map[string]any{
				"type":        "string",
				"description": "New description",
			},
			"location": map[string]any{
				"type":        "string",
				"description": "New location",
			},
		},
		"required": []string{"event_id"},
	}
}

func (t UpdateEventTool) Execute(_ context.Context, args map[string]any) (*Result, error) {
	id, err := stringArg(args, "event_id")
	if err != nil {
		return nil, err
	}

	var title, description, location *string
	var start *time.Time
	var minutes *int

	if value, ok, err := optionalStringArg(args, "title"); err != nil {
		return nil, err
	} else if ok {
		title = &value
	}
	if value, ok, err := optionalStringArg(args, "start_time"); err != nil {
		return nil, err
	} else if ok {
		parsed, err := parseEventTime(value)
		if err != nil {
			return &Result{Output: fmt.Sprintf("Invalid start time format: %s. Use ISO format (YYYY-MM-DDTHH:MM:SS).", value)}, nil
		}
		start = &parsed
	}
	if raw, ok := args["duration_minutes"]; ok && raw != nil {
		value, err := coerceInt(raw, "duration_minutes")
		if err != nil {
			return nil, err
		}
		minutes = &value
	}
	if value, ok, err := optionalStringArg(args, "description"); err != nil {
		return nil, err
	} else if ok {
		description = &value
	}
	if value, ok, err := optionalStringArg(args, "location"); err != nil {
		return nil, err
	} else if ok {
		location = &value
	}

	if _, err := t.Store.Update(id, title, start, minutes, description, location); err != nil {
		if errors.Is(err, calendar.ErrNotFound) {
			return &Result{Output: fmt.Sprintf("No event found with ID: %s", id)}, nil
		}
		return nil, err
	}
	return &Result{Output: fmt.Sprintf("Calendar event with ID: %s has been updated", id)}, nil
}

// DeleteEventTool removes a calendar event.
type DeleteEventTool struct {
	Store *calendar.Store
}

func (t DeleteEventTool) Name() string { return "delete_calendar_event" }

func (t DeleteEventTool) Description() string {
	return "Delete a calendar event by its unique identifier."
}

func (t DeleteEventTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"event_id": map[string]any{
				"type":        "string",
				"description": "The unique identifier of the event",
			},
		},
		"required": []string{"event_id"},
	}
}

func (t DeleteEventTool) Execute(_ context.Context, args map[string]any) (*Result, error) {
	id, err := stringArg(args, "event_id")
	if err != nil {
		return nil, err
	}
	if err := t.Store.Delete(id); err != nil {
		if errors.Is(err, calendar.ErrNotFound) {
			return &Result{Output: fmt.Sprintf("No event found with ID: %s", id)}, nil
		}
		return nil, err
	}
	return &Result{Output: fmt.Sprintf("Calendar event with ID: %s has been deleted", id)}, nil
}

// parseEventTime accepts ISO timestamps with or without a zone offset.
func parseEventTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", raw, time.Local)
}
