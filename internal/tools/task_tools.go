package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/brainstem-ai/brainstem/internal/tasks"
)

// AddTaskTool adds a new task to the todo list.
type AddTaskTool struct {
	Store *tasks.Store
}

func (t AddTaskTool) Name() string { return "add_task_to_list" }

func (t AddTaskTool) Description() string {
	return "Add a new task to the todo list. Supports priority (1-5, 1 is highest), an estimated duration in minutes, a category, and a project or path."
}

func (t AddTaskTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": map[string]any{
				"type":        "string",
				"description": "The text description of the task",
			},
			"priority": map[string]any{
				"type":        "integer",
				"description": "Priority from 1-5 (1 is highest)",
			},
			"estimated_duration_minutes": map[string]any{
				"type":        "integer",
				"description": "Estimated time to complete in minutes",
			},
			"category": map[string]any{
				"type":        "string",
				"description": "Category or context of the task",
			},
			"project_or_path": map[string]any{
				"type":        "string",
				"description": "Project or path the task belongs to",
			},
		},
		"required": []string{"description"},
	}
}

func (t AddTaskTool) Execute(_ context.Context, args map[string]any) (*Result, error) {
	description, err := stringArg(args, "description")
	if err != nil {
		return nil, err
	}
	priority, err := optionalIntArg(args, "priority", tasks.DefaultPriority)
	if err != nil {
		return nil, err
	}
	minutes, err := optionalIntArg(args, "estimated_duration_minutes", 0)
	if err != nil {
		return nil, err
	}
	category, _, err := optionalStringArg(args, "category")
	if err != nil {
		return nil, err
	}
	project, _, err := optionalStringArg(args, "project_or_path")
	if err != nil {
		return nil, err
	}

	task, err := t.Store.Add(description, priority, minutes, category, project)
	if err != nil {
		return nil, err
	}
	return &Result{Output: fmt.Sprintf("Task added with ID: %s", task.ID)}, nil
}

// ListTasksTool lists all current tasks.
type ListTasksTool struct {
	Store *tasks.Store
}

func (t ListTasksTool) Name() string { return "list_current_tasks" }

func (t ListTasksTool) Description() string {
	return "List all current tasks in the todo list, ordered by priority."
}

func (t ListTasksTool) Schema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t ListTasksTool) Execute(_ context.Context, _ map[string]any) (*Result, error) {
	all, err := t.Store.List()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return &Result{Output: "The todo list is empty."}, nil
	}

	var b strings.Builder
	for _, task := range all {
		status := " "
		if task.Done {
			status = "x"
		}
		fmt.Fprintf(&b, "[%s] %s (id=%s, priority=%d", status, task.Description, task.ID, task.Priority)
		if task.EstimatedMinutes > 0 {
			fmt.Fprintf(&b, ", est=%dm", task.EstimatedMinutes)
		}
		if task.Category != "" {
			fmt.Fprintf(&b, ", category=%s", task.Category)
		}
		if task.Project != "" {
			fmt.Fprintf(&b, ", project=%s", task.Project)
		}
		b.WriteString(")\n")
	}
	return &Result{Output: b.String()}, nil
}

// RemoveTaskTool removes a task from the todo list.
type RemoveTaskTool struct {
	Store *tasks.Store
}

func (t RemoveTaskTool) Name() string { return "remove_task_from_list" }

func (t RemoveTaskTool) Description() string {
	return "Remove a task from the todo list by its unique identifier."
}

func (t RemoveTaskTool) Schema() map[string]any {
	return taskIDSchema(nil)
}

func (t RemoveTaskTool) Execute(_ context.Context, args map[string]any) (*Result, error) {
	id, err := stringArg(args, "task_id")
	if err != nil {
		return nil, err
	}
	if err := t.Store.Remove(id); err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			return &Result{Output: fmt.Sprintf("No task found with ID: %s", id)}, nil
		}
		return nil, err
	}
	return &Result{Output: fmt.Sprintf("Task with ID: %s has been removed", id)}, nil
}

// UpdateTaskStatusTool toggles task completion.
type UpdateTaskStatusTool struct {
	Store *tasks.Store
}

func (t UpdateTaskStatusTool) Name() string { return "update_task_status" }

func (t UpdateTaskStatusTool) Description() string {
	return "Update the completion status of a task."
}

func (t UpdateTaskStatusTool) Schema() map[string]any {
	return taskIDSchema(map[string]any{
		"is_done": map[string]any{
			"type":        "boolean",
			"description": "Whether the task is complete",
		},
	}, "is_done")
}

func (t UpdateTaskStatusTool) Execute(_ context.Context, args map[string]any) (*Result, error) {
	id, err := stringArg(args, "task_id")
	if err != nil {
		return nil, err
	}
	done, err := boolArg(args, "is_done")
	if err != nil {
		return nil, err
	}
	if _, err := t.Store.SetDone(id, done); err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			return &Result{Output: fmt.Sprintf("No task found with ID: %s", id)}, nil
		}
		return nil, err
	}
	status := "marked as not complete"
	if done {
		status = "completed"
	}
	return &Result{Output: fmt.Sprintf("Task with ID: %s has been %s", id, status)}, nil
}

// UpdateTaskPriorityTool changes task priority.
type UpdateTaskPriorityTool struct {
	Store *tasks.Store
}

func (t UpdateTaskPriorityTool) Name() string { return "update_task_priority" }

func (t UpdateTaskPriorityTool) Description() string {
	return "Update the priority of a task (1-5, where 1 is highest)."
}

func (t UpdateTaskPriorityTool) Schema() map[string]any {
	return taskIDSchema(map[string]any{
		"priority": map[string]any{
			"type":        "integer",
			"description": "New priority (1-5, where 1 is highest)",
		},
	}, "priority")
}

func (t UpdateTaskPriorityTool) Execute(_ context.Context, args map[string]any) (*Result, error) {
	id, err := stringArg(args, "task_id")
	if err != nil {
		return nil, err
	}
	priority, err := intArg(args, "priority")
	if err != nil {
		return nil, err
	}
	if priority < tasks.MinPriority || priority > tasks.MaxPriority {
		return &Result{Output: "Priority must be between 1 and 5"}, nil
	}
	if _, err := t.Store.SetPriority(id, priority); err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			return &Result{Output: fmt.Sprintf("No task found with ID: %s", id)}, nil
		}
		return nil, err
	}
	return &Result{Output: fmt.Sprintf("Task with ID: %s has been updated to priority %d", id, priority)}, nil
}

// UpdateTaskDurationTool changes the duration estimate.
type UpdateTaskDurationTool struct {
	Store *tasks.Store
}

func (t UpdateTaskDurationTool) Name() string { return "update_task_estimated_duration" }

func (t UpdateTaskDurationTool) Description() string {
	return "Update the estimated duration of a task in minutes."
}

func (t UpdateTaskDurationTool) Schema() map[string]any {
	return taskIDSchema(map[string]any{
		"estimated_duration_minutes": map[string]any{
			"type":        "integer",
			"description": "Estimated time to complete in minutes",
		},
	}, "estimated_duration_minutes")
}

func (t UpdateTaskDurationTool) Execute(_ context.Context, args map[string]any) (*Result, error) {
	id, err := stringArg(args, "task_id")
	if err != nil {
		return nil, err
	}
	minutes, err := intArg(args, "estimated_duration_minutes")
	if err != nil {
		return nil, err
	}
	if minutes <= 0 {
		return &Result{Output: "Duration must be greater than 0 minutes"}, nil
	}
	if _, err := t.Store.SetEstimatedMinutes(id, minutes); err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			return &Result{Output: fmt.Sprintf("No task found with ID: %s", id)}, nil
		}
		return nil, err
	}
	return &Result{Output: fmt.Sprintf("Task with ID: %s has been updated with estimated duration of %d minutes", id, minutes)}, nil
}

// UpdateTaskMetadataTool changes category and/or project.
type UpdateTaskMetadataTool struct {
	Store *tasks.Store
}

func (t UpdateTaskMetadataTool) Name() string { return "update_task_metadata" }

func (t UpdateTaskMetadataTool) Description() string {
	return "Update the category and/or project of a task."
}

func (t UpdateTaskMetadataTool) Schema() map[string]any {
	return taskIDSchema(map[string]any{
		"category": map[string]any{
			"type":        "string",
			"description": "New category",
		},
		"project_or_path": map[string]any{
			"type":        "string",
			"description": "New project or path",
		},
	})
}

func (t UpdateTaskMetadataTool) Execute(_ context.Context, args map[string]any) (*Result, error) {
	id, err := stringArg(args, "task_id")
	if err != nil {
		return nil, err
	}

	var category, project *string
	var changes []string
	if value, ok, err := optionalStringArg(args, "category"); err != nil {
		return nil, err
	} else if ok {
		category = &value
		changes = append(changes, fmt.Sprintf("category=%q", value))
	}
	if value, ok, err := optionalStringArg(args, "project_or_path"); err != nil {
		return nil, err
	} else if ok {
		project = &value
		changes = append(changes, fmt.Sprintf("project_or_path=%q", value))
	}
	if len(changes) == 0 {
		return &Result{Output: "No changes specified"}, nil
	}

	if _, err := t.Store.SetMetadata(id, category, project); err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			return &Result{Output: fmt.Sprintf("No task found with ID: %s", id)}, nil
		}
		return nil, err
	}
	return &Result{Output: fmt.Sprintf("Task with ID: %s has been updated with %s", id, strings.Join(changes, ", "))}, nil
}

// taskIDSchema builds an object schema around the required task_id property.
func taskIDSchema(extra map[string]any, extraRequired ...string) map[string]any {
	props := map[string]any{
		"task_id": map[string]any{
			"type":        "string",
			"description": "The unique identifier of the task",
		},
	}
	for key, value := range extra {
		props[key] = value
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   append([]string{"task_id"}, extraRequired...),
	}
}
