// Package logging owns the process-wide structured logger.
package logging

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

var (
	mu     sync.RWMutex
	level  = new(slog.LevelVar)
	logger = newLogger()
)

func newLogger() *slog.Logger {
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	}))
}

// Logger returns the process logger.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// SetLevel adjusts the minimum level for all subsequent log records.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// SetLogger replaces the process logger. Intended for tests.
func SetLogger(l *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l != nil {
		logger = l
	}
}
