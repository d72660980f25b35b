// Package health reads a local health export and renders a one-shot daily
// summary for the model. The export file is written by an external sync
// process; this package never mutates it.
package health

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/brainstem-ai/brainstem/internal/store"
)

// Summary is the daily snapshot found in the export file.
type Summary struct {
	Date          string  `json:"date"`
	Steps         int     `json:"steps"`
	SleepHours    float64 `json:"sleep_hours"`
	ActiveMinutes int     `json:"active_minutes"`
	RestingHR     int     `json:"resting_heart_rate"`
}

// Client reads the export file.
type Client struct {
	path string
}

// NewClient creates a health client over one export file.
func NewClient(path string) *Client {
	return &Client{path: path}
}

// TodaySummary renders the latest export as coach-readable text. A missing
// export is not an error; the model is told no data is available.
func (c *Client) TodaySummary() (string, error) {
	content, err := store.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return "No health data is available.", nil
	}
	if err != nil {
		return "", fmt.Errorf("read health export: %w", err)
	}

	var summary Summary
	if err := json.Unmarshal([]byte(content), &summary); err != nil {
		return "", fmt.Errorf("decode health export: %w", err)
	}

	var b strings.Builder
	if summary.Date != "" {
		fmt.Fprintf(&b, "Health summary for %s:\n", summary.Date)
	} else {
		b.WriteString("Health summary:\n")
	}
	fmt.Fprintf(&b, "- Steps: %d\n", summary.Steps)
	fmt.Fprintf(&b, "- Sleep: %.1f hours\n", summary.SleepHours)
	fmt.Fprintf(&b, "- Active minutes: %d\n", summary.ActiveMinutes)
	if summary.RestingHR > 0 {
		fmt.Fprintf(&b, "- Resting heart rate: %d bpm\n", summary.RestingHR)
	}
	return b.String(), nil
}
