package domain

import "time"

type EventType string

const (
	EventBoardCreated          EventType = "board_created"
	EventBoardUpdated          EventType = "board_updated"
	EventListCreated           EventType = "list_created"
	EventListUpdated           EventType = "list_updated"
	EventListReordered         EventType = "list_reordered"
	EventListDeleted           EventType = "list_deleted"
	EventTaskCreated           EventType = "task_created"
	EventTaskUpdated           EventType = "task_updated"
	EventTaskMoved             EventType = "task_moved"
	EventTaskCompletionToggled EventType = "task_completion_toggled"
	EventTaskDeleted           EventType = "task_deleted"
	EventFiltersChanged        EventType = "filters_changed"
)

// Event describes a committed change to the board.
type Event struct {
	Type    EventType `json:"type"`
	BoardID string    `json:"board_id,omitempty"`
	ListID  string    `json:"list_id,omitempty"`
	TaskID  string    `json:"task_id,omitempty"`
	At      time.Time `json:"at"`
}
