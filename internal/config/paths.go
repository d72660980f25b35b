package config

import (
	"path/filepath"

	"github.com/brainstem-ai/brainstem/internal/store"
)

// ConfigFilePath returns the absolute path of the config file.
func (c *Config) ConfigFilePath() string {
	return filepath.Join(c.HomeDir, store.ConfigFilePath)
}

// TasksPath returns the task store file path.
func (c *Config) TasksPath() string {
	return filepath.Join(c.HomeDir, store.TasksFilePath)
}

// EventsPath returns the calendar store file path.
func (c *Config) EventsPath() string {
	return filepath.Join(c.HomeDir, store.EventsFilePath)
}

// NotesPath returns the scratchpad file path.
func (c *Config) NotesPath() string {
	return filepath.Join(c.HomeDir, store.NotesFilePath)
}

// HealthPath returns the optional health export file path.
func (c *Config) HealthPath() string {
	return filepath.Join(c.HomeDir, store.HealthFilePath)
}

// JobsPath returns the scheduler jobs file path.
func (c *Config) JobsPath() string {
	return filepath.Join(c.HomeDir, store.JobsFilePath)
}

// SessionPath returns the conversation log path for one channel session.
func (c *Config) SessionPath(channel string) string {
	return filepath.Join(c.HomeDir, store.SessionsDirPath, channel, store.DefaultSessionPath)
}
