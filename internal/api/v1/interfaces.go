package v1

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/taskboard/internal/board"
	"github.com/gosuda/taskboard/internal/domain"
)

// BoardStore abstracts the board operations the handlers drive.
// *board.Store satisfies this interface.
type BoardStore interface {
	Board() (domain.Board, bool)
	List(id string) (domain.List, bool)
	Task(id string) (domain.Task, bool)
	Filters() domain.Filter
	FilteredTasks(listID string) ([]domain.Task, bool)

	CreateBoard(name string) domain.Board
	UpdateBoard(id, name string) bool

	CreateList(name string) (domain.List, bool)
	UpdateList(id, name string) bool
	ReorderList(id string, newOrder int) bool
	DeleteList(id string) bool

	CreateTask(listID, name string, opts ...board.TaskOption) (domain.Task, bool)
	UpdateTask(taskID string, patch domain.TaskPatch) bool
	MoveTask(taskID, targetListID string) bool
	MoveTaskAt(taskID, targetListID string, newOrder int) bool
	ToggleTaskCompletion(taskID string) bool
	DeleteTask(taskID string) bool

	SetFilterCompleted(hide bool)
	SetFilterPriority(p *domain.Priority)
}

// RegisterRoutes wires every board, list, task and filter operation.
func RegisterRoutes(api huma.API, store BoardStore) {
	RegisterBoardRoutes(api, store)
	RegisterListRoutes(api, store)
	RegisterTaskRoutes(api, store)
	RegisterFilterRoutes(api, store)
}

func parsePriority(s string) (domain.Priority, error) {
	p, err := domain.ParsePriority(s)
	if err != nil {
		return "", huma.Error422UnprocessableEntity("priority must be one of low, medium, high", err)
	}
	return p, nil
}
