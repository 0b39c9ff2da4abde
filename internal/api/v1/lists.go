package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/taskboard/internal/domain"
)

type CreateListInput struct {
	Body struct {
		Name string `json:"name" minLength:"1" maxLength:"500" doc:"List name"`
	}
}

type ListOutput struct {
	Body *domain.List
}

type UpdateListInput struct {
	ID   string `path:"id" doc:"List ID"`
	Body struct {
		Name string `json:"name" minLength:"1" maxLength:"500" doc:"List name"`
	}
}

type ReorderListInput struct {
	ID   string `path:"id" doc:"List ID"`
	Body struct {
		Order int `json:"order" doc:"Target position; negative counts from the end"`
	}
}

type DeleteListInput struct {
	ID string `path:"id" doc:"List ID"`
}

type ListTasksInput struct {
	ID string `path:"id" doc:"List ID"`
}

type ListTasksOutput struct {
	Body []domain.Task
}

func RegisterListRoutes(api huma.API, store BoardStore) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-list",
		Method:        http.MethodPost,
		Path:          "/lists",
		Summary:       "Append a list to the board",
		Tags:          []string{"Lists"},
		DefaultStatus: http.StatusCreated,
	}, func(_ context.Context, input *CreateListInput) (*ListOutput, error) {
		l, ok := store.CreateList(input.Body.Name)
		if !ok {
			return nil, huma.Error409Conflict("no board exists")
		}
		return &ListOutput{Body: &l}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-list",
		Method:      http.MethodPut,
		Path:        "/lists/{id}",
		Summary:     "Rename a list",
		Tags:        []string{"Lists"},
	}, func(_ context.Context, input *UpdateListInput) (*ListOutput, error) {
		if !store.UpdateList(input.ID, input.Body.Name) {
			return nil, huma.Error404NotFound("list not found")
		}
		return listOutput(store, input.ID)
	})

	huma.Register(api, huma.Operation{
		OperationID: "reorder-list",
		Method:      http.MethodPost,
		Path:        "/lists/{id}/reorder",
		Summary:     "Move a list to a new position",
		Tags:        []string{"Lists"},
	}, func(_ context.Context, input *ReorderListInput) (*ListOutput, error) {
		if !store.ReorderList(input.ID, input.Body.Order) {
			return nil, huma.Error404NotFound("list not found")
		}
		return listOutput(store, input.ID)
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-list",
		Method:      http.MethodDelete,
		Path:        "/lists/{id}",
		Summary:     "Delete a list and all of its tasks",
		Tags:        []string{"Lists"},
	}, func(_ context.Context, input *DeleteListInput) (*struct{}, error) {
		if !store.DeleteList(input.ID) {
			return nil, huma.Error404NotFound("list not found")
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/lists/{id}/tasks",
		Summary:     "List the tasks of a list that pass the current filters",
		Tags:        []string{"Lists"},
	}, func(_ context.Context, input *ListTasksInput) (*ListTasksOutput, error) {
		tasks, ok := store.FilteredTasks(input.ID)
		if !ok {
			return nil, huma.Error404NotFound("list not found")
		}
		return &ListTasksOutput{Body: tasks}, nil
	})
}

func listOutput(store BoardStore, id string) (*ListOutput, error) {
	l, ok := store.List(id)
	if !ok {
		return nil, huma.Error404NotFound("list not found")
	}
	return &ListOutput{Body: &l}, nil
}
