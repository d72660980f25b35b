package cli

import (
	"github.com/brainstem-ai/brainstem/internal/backend"
	"github.com/brainstem-ai/brainstem/internal/calendar"
	"github.com/brainstem-ai/brainstem/internal/config"
	"github.com/brainstem-ai/brainstem/internal/degrade"
	"github.com/brainstem-ai/brainstem/internal/health"
	"github.com/brainstem-ai/brainstem/internal/notes"
	"github.com/brainstem-ai/brainstem/internal/orchestrator"
	"github.com/brainstem-ai/brainstem/internal/session"
	"github.com/brainstem-ai/brainstem/internal/tasks"
	"github.com/brainstem-ai/brainstem/internal/tools"
)

// buildToolRegistry registers every tool over file-backed stores rooted in
// the configured home directory. Duplicate names are a programming error, so
// registration failures are fatal to startup.
func buildToolRegistry(cfg *config.Config) (*tools.Registry, error) {
	taskStore := tasks.New(cfg.TasksPath())
	eventStore := calendar.New(cfg.EventsPath())
	noteStore := notes.New(cfg.NotesPath())
	healthClient := health.NewClient(cfg.HealthPath())

	registry := tools.NewRegistry()
	all := []tools.Tool{
		tools.AddTaskTool{Store: taskStore},
		tools.ListTasksTool{Store: taskStore},
		tools.RemoveTaskTool{Store: taskStore},
		tools.UpdateTaskStatusTool{Store: taskStore},
		tools.UpdateTaskPriorityTool{Store: taskStore},
		tools.UpdateTaskDurationTool{Store: taskStore},
		tools.UpdateTaskMetadataTool{Store: taskStore},
		tools.CreateEventTool{Store: eventStore},
		tools.ListTodayEventsTool{Store: eventStore},
		tools.UpdateEventTool{Store: eventStore},
		tools.DeleteEventTool{Store: eventStore},
		tools.GetScratchpadTool{Store: noteStore},
		tools.SetScratchpadTool{Store: noteStore},
		tools.CurrentDateTimeTool{},
		tools.HealthSummaryTool{Client: healthClient},
	}
	for _, tool := range all {
		if err := registry.Register(tool); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// buildOrchestrator assembles the full turn pipeline for one channel: backend
// set, tool registry, degradation ladder, and the channel's persistent
// conversation log.
func buildOrchestrator(cfg *config.Config, channel string) (*orchestrator.Orchestrator, error) {
	backends, err := backend.NewSet(cfg)
	if err != nil {
		return nil, err
	}
	registry, err := buildToolRegistry(cfg)
	if err != nil {
		return nil, err
	}
	ladder := degrade.FromConfig(cfg.Ladder)
	sessions := session.New(cfg.SessionPath(channel))

	return orchestrator.New(
		backends,
		registry,
		ladder,
		orchestrator.DefaultSystemPrompt,
		cfg.Context.MaxRecent,
		orchestrator.WithSessionStore(sessions),
		orchestrator.WithMaxToolIterations(cfg.Context.MaxToolIterations),
	)
}
