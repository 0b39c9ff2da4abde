package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/taskboard/internal/board"
	"github.com/gosuda/taskboard/internal/domain"
)

type CreateTaskInput struct {
	ListID string `path:"id" doc:"List ID"`
	Body   struct {
		Name        string     `json:"name" minLength:"1" maxLength:"500" doc:"Task name"`
		Description string     `json:"description,omitempty" maxLength:"10000" doc:"Task description"`
		DueDate     *time.Time `json:"dueDate,omitempty" doc:"Due date"`
		Priority    string     `json:"priority,omitempty" doc:"low, medium or high; defaults to medium"`
	}
}

type TaskOutput struct {
	Body *domain.Task
}

type GetTaskInput struct {
	ID string `path:"id" doc:"Task ID"`
}

type UpdateTaskInput struct {
	ID   string `path:"id" doc:"Task ID"`
	Body struct {
		Name         *string    `json:"name,omitempty" minLength:"1" maxLength:"500" doc:"New name"`
		Description  *string    `json:"description,omitempty" maxLength:"10000" doc:"New description"`
		DueDate      *time.Time `json:"dueDate,omitempty" doc:"New due date"`
		ClearDueDate bool       `json:"clearDueDate,omitempty" doc:"Remove the due date"`
		Priority     *string    `json:"priority,omitempty" doc:"New priority"`
		Completed    *bool      `json:"completed,omitempty" doc:"New completion state"`
	}
}

type MoveTaskInput struct {
	ID   string `path:"id" doc:"Task ID"`
	Body struct {
		ListID string `json:"listId" minLength:"1" doc:"Target list ID"`
		Order  *int   `json:"order,omitempty" doc:"Target position; appends when omitted"`
	}
}

type ToggleTaskInput struct {
	ID string `path:"id" doc:"Task ID"`
}

type DeleteTaskInput struct {
	ID string `path:"id" doc:"Task ID"`
}

func RegisterTaskRoutes(api huma.API, store BoardStore) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/lists/{id}/tasks",
		Summary:       "Append a task to a list",
		Tags:          []string{"Tasks"},
		DefaultStatus: http.StatusCreated,
	}, func(_ context.Context, input *CreateTaskInput) (*TaskOutput, error) {
		var opts []board.TaskOption
		if input.Body.Description != "" {
			opts = append(opts, board.WithDescription(input.Body.Description))
		}
		if input.Body.DueDate != nil {
			opts = append(opts, board.WithDueDate(*input.Body.DueDate))
		}
		if input.Body.Priority != "" {
			p, err := parsePriority(input.Body.Priority)
			if err != nil {
				return nil, err
			}
			opts = append(opts, board.WithPriority(p))
		}

		t, ok := store.CreateTask(input.ListID, input.Body.Name, opts...)
		if !ok {
			return nil, huma.Error404NotFound("list not found")
		}
		return &TaskOutput{Body: &t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}",
		Summary:     "Get a task",
		Tags:        []string{"Tasks"},
	}, func(_ context.Context, input *GetTaskInput) (*TaskOutput, error) {
		return taskOutput(store, input.ID)
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPatch,
		Path:        "/tasks/{id}",
		Summary:     "Merge changes into a task",
		Tags:        []string{"Tasks"},
	}, func(_ context.Context, input *UpdateTaskInput) (*TaskOutput, error) {
		patch := domain.TaskPatch{
			Name:         input.Body.Name,
			Description:  input.Body.Description,
			DueDate:      input.Body.DueDate,
			ClearDueDate: input.Body.ClearDueDate,
			Completed:    input.Body.Completed,
		}
		if input.Body.Priority != nil {
			p, err := parsePriority(*input.Body.Priority)
			if err != nil {
				return nil, err
			}
			patch.Priority = &p
		}

		if !store.UpdateTask(input.ID, patch) {
			return nil, huma.Error404NotFound("task not found")
		}
		return taskOutput(store, input.ID)
	})

	huma.Register(api, huma.Operation{
		OperationID: "move-task",
		Method:      http.MethodPost,
		Path:        "/tasks/{id}/move",
		Summary:     "Move a task to a list, optionally at a position",
		Tags:        []string{"Tasks"},
	}, func(_ context.Context, input *MoveTaskInput) (*TaskOutput, error) {
		var ok bool
		if input.Body.Order != nil {
			ok = store.MoveTaskAt(input.ID, input.Body.ListID, *input.Body.Order)
		} else {
			ok = store.MoveTask(input.ID, input.Body.ListID)
		}
		if !ok {
			return nil, huma.Error404NotFound("task or list not found")
		}
		return taskOutput(store, input.ID)
	})

	huma.Register(api, huma.Operation{
		OperationID: "toggle-task",
		Method:      http.MethodPost,
		Path:        "/tasks/{id}/toggle",
		Summary:     "Flip a task's completion state",
		Tags:        []string{"Tasks"},
	}, func(_ context.Context, input *ToggleTaskInput) (*TaskOutput, error) {
		if !store.ToggleTaskCompletion(input.ID) {
			return nil, huma.Error404NotFound("task not found")
		}
		return taskOutput(store, input.ID)
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-task",
		Method:      http.MethodDelete,
		Path:        "/tasks/{id}",
		Summary:     "Delete a task",
		Tags:        []string{"Tasks"},
	}, func(_ context.Context, input *DeleteTaskInput) (*struct{}, error) {
		if !store.DeleteTask(input.ID) {
			return nil, huma.Error404NotFound("task not found")
		}
		return nil, nil
	})
}

func taskOutput(store BoardStore, id string) (*TaskOutput, error) {
	t, ok := store.Task(id)
	if !ok {
		return nil, huma.Error404NotFound("task not found")
	}
	return &TaskOutput{Body: &t}, nil
}
