package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/taskboard/internal/domain"
)

type BoardState struct {
	Board   *domain.Board `json:"board" doc:"Current board, null before one is created"`
	Filters domain.Filter `json:"filters" doc:"Store-wide view filters"`
}

type GetBoardOutput struct {
	Body *BoardState
}

type CreateBoardInput struct {
	Body struct {
		Name string `json:"name" minLength:"1" maxLength:"500" doc:"Board name"`
	}
}

type BoardOutput struct {
	Body *domain.Board
}

type UpdateBoardInput struct {
	ID   string `path:"id" doc:"Board ID"`
	Body struct {
		Name string `json:"name" minLength:"1" maxLength:"500" doc:"Board name"`
	}
}

func RegisterBoardRoutes(api huma.API, store BoardStore) {
	huma.Register(api, huma.Operation{
		OperationID: "get-board",
		Method:      http.MethodGet,
		Path:        "/board",
		Summary:     "Get the board and current filters",
		Tags:        []string{"Board"},
	}, func(_ context.Context, _ *struct{}) (*GetBoardOutput, error) {
		state := &BoardState{Filters: store.Filters()}
		if b, ok := store.Board(); ok {
			state.Board = &b
		}
		return &GetBoardOutput{Body: state}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-board",
		Method:        http.MethodPost,
		Path:          "/board",
		Summary:       "Create the board, replacing any existing one",
		Tags:          []string{"Board"},
		DefaultStatus: http.StatusCreated,
	}, func(_ context.Context, input *CreateBoardInput) (*BoardOutput, error) {
		b := store.CreateBoard(input.Body.Name)
		return &BoardOutput{Body: &b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-board",
		Method:      http.MethodPut,
		Path:        "/board/{id}",
		Summary:     "Rename the board",
		Tags:        []string{"Board"},
	}, func(_ context.Context, input *UpdateBoardInput) (*BoardOutput, error) {
		if !store.UpdateBoard(input.ID, input.Body.Name) {
			return nil, huma.Error404NotFound("board not found")
		}
		b, ok := store.Board()
		if !ok {
			return nil, huma.Error404NotFound("board not found")
		}
		return &BoardOutput{Body: &b}, nil
	})
}
