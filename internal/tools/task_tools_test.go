package tools

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brainstem-ai/brainstem/internal/tasks"
)

func newTaskStore(t *testing.T) *tasks.Store {
	t.Helper()
	return tasks.New(filepath.Join(t.TempDir(), "tasks.json"))
}

func addTask(t *testing.T, store *tasks.Store, description string) string {
	t.Helper()
	task, err := store.Add(description, 0, 0, "", "")
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	return task.ID
}

func TestAddTaskTool(t *testing.T) {
	store := newTaskStore(t)
	tool := AddTaskTool{Store: store}

	result, err := tool.Execute(context.Background(), map[string]any{
		"description":                "write the report",
		"priority":                   float64(1),
		"estimated_duration_minutes": float64(30),
		"category":                   "work",
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.HasPrefix(result.Output, "Task added with ID: ") {
		t.Fatalf("unexpected confirmation: %q", result.Output)
	}

	all, err := store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 || all[0].Priority != 1 || all[0].EstimatedMinutes != 30 || all[0].Category != "work" {
		t.Fatalf("task not stored as requested: %#v", all)
	}
}

func TestAddTaskToolRequiresDescription(t *testing.T) {
	tool := AddTaskTool{Store: newTaskStore(t)}
	if _, err := tool.Execute(context.Background(), map[string]any{}); err == nil {
		t.Fatalf("expected missing description to fail")
	}
}

func TestListTasksToolEmpty(t *testing.T) {
	tool := ListTasksTool{Store: newTaskStore(t)}
	result, err := tool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Output != "The todo list is empty." {
		t.Fatalf("unexpected output: %q", result.Output)
	}
}

func TestListTasksToolRendersTasks(t *testing.T) {
	store := newTaskStore(t)
	if _, err := store.Add("walk the dog", 2, 20, "home", ""); err != nil {
		t.Fatalf("add: %v", err)
	}

	tool := ListTasksTool{Store: store}
	result, err := tool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(result.Output, "walk the dog") ||
		!strings.Contains(result.Output, "priority=2") ||
		!strings.Contains(result.Output, "est=20m") ||
		!strings.Contains(result.Output, "category=home") {
		t.Fatalf("unexpected rendering: %q", result.Output)
	}
}

func TestRemoveTaskTool(t *testing.T) {
	store := newTaskStore(t)
	id := addTask(t, store, "delete me")
	tool := RemoveTaskTool{Store: store}

	result, err := tool.Execute(context.Background(), map[string]any{"task_id": id})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Output != "Task with ID: "+id+" has been removed" {
		t.Fatalf("unexpected confirmation: %q", result.Output)
	}

	// A second removal reports not-found as tool output, not an error.
	result, err = tool.Execute(context.Background(), map[string]any{"task_id": id})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Output != "No task found with ID: "+id {
		t.Fatalf("unexpected output: %q", result.Output)
	}
}

func TestUpdateTaskStatusTool(t *testing.T) {
	store := newTaskStore(t)
	id := addTask(t, store, "finish me")
	tool := UpdateTaskStatusTool{Store: store}

	result, err := tool.Execute(context.Background(), map[string]any{"task_id": id, "is_done": true})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Output != "Task with ID: "+id+" has been completed" {
		t.Fatalf("unexpected confirmation: %q", result.Output)
	}

	result, err = tool.Execute(context.Background(), map[string]any{"task_id": id, "is_done": false})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Output != "Task with ID: "+id+" has been marked as not complete" {
		t.Fatalf("unexpected confirmation: %q", result.Output)
	}
}

func TestUpdateTaskPriorityTool(t *testing.T) {
	store := newTaskStore(t)
	id := addTask(t, store, "prioritize me")
	tool := UpdateTaskPriorityTool{Store: store}

	result, err := tool.Execute(context.Background(), map[string]any{"task_id": id, "priority": float64(6)})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Output != "Priority must be between 1 and 5" {
		t.Fatalf("unexpected output: %q", result.Output)
	}

	result, err = tool.Execute(context.Background(), map[string]any{"task_id": id, "priority": float64(1)})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(result.Output, "updated to priority 1") {
		t.Fatalf("unexpected confirmation: %q", result.Output)
	}
}

func TestUpdateTaskDurationTool(t *testing.T) {
	store := newTaskStore(t)
	id := addTask(t, store, "estimate me")
	tool := UpdateTaskDurationTool{Store: store}

	result, err := tool.Execute(context.Background(), map[string]any{
		"task_id":                    id,
		"estimated_duration_minutes": float64(0),
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Output != "Duration must be greater than 0 minutes" {
		t.Fatalf("unexpected output: %q", result.Output)
	}

	result, err = tool.Execute(context.Background(), map[string]any{
		"task_id":                    id,
		"estimated_duration_minutes": float64(25),
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(result.Output, "estimated duration of 25 minutes") {
		t.Fatalf("unexpected confirmation: %q", result.Output)
	}
}

func TestUpdateTaskMetadataTool(t *testing.T) {
	store := newTaskStore(t)
	id := addTask(t, store, "categorize me")
	tool := UpdateTaskMetadataTool{Store: store}

	result, err := tool.Execute(context.Background(), map[string]any{"task_id": id})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Output != "No changes specified" {
		t.Fatalf("unexpected output: %q", result.Output)
	}

	result, err = tool.Execute(context.Background(), map[string]any{
		"task_id":         id,
		"category":        "errands",
		"project_or_path": "spring-cleaning",
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(result.Output, `category="errands"`) ||
		!strings.Contains(result.Output, `project_or_path="spring-cleaning"`) {
		t.Fatalf("unexpected confirmation: %q", result.Output)
	}
}
