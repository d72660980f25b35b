package tools

import (
	"context"
	"errors"
	"time"

	"github.com/brainstem-ai/brainstem/internal/health"
)

var errArgContent = errors.New(`argument "content" must be a string`)

// CurrentDateTimeTool tells the model the current local date and time, which
// it needs to schedule anything sensibly.
type CurrentDateTimeTool struct {
	// Now is swappable for tests; nil means time.Now.
	Now func() time.Time
}

func (t CurrentDateTimeTool) Name() string { return "get_current_datetime" }

func (t CurrentDateTimeTool) Description() string {
	return "Get the current local date and time."
}

func (t CurrentDateTimeTool) Schema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t CurrentDateTimeTool) Execute(_ context.Context, _ map[string]any) (*Result, error) {
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	return &Result{Output: now().Format("Monday, 2006-01-02 15:04:05 MST")}, nil
}

// HealthSummaryTool reports the day's health snapshot.
type HealthSummaryTool struct {
	Client *health.Client
}

func (t HealthSummaryTool) Name() string { return "get_health_summary" }

func (t HealthSummaryTool) Description() string {
	return "Get a summary of today's health data (steps, sleep, activity)."
}

func (t HealthSummaryTool) Schema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t HealthSummaryTool) Execute(_ context.Context, _ map[string]any) (*Result, error) {
	summary, err := t.Client.TodaySummary()
	if err != nil {
		return nil, err
	}
	return &Result{Output: summary}, nil
}
