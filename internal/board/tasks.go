package board

import (
	"slices"
	"time"

	"github.com/gosuda/taskboard/internal/domain"
)

// TaskOption sets an optional field on a task being created.
type TaskOption func(*domain.Task)

// WithDescription sets the task description.
func WithDescription(desc string) TaskOption {
	return func(t *domain.Task) { t.Description = desc }
}

// WithDueDate sets the due date, clamped to the range the snapshot can hold.
func WithDueDate(due time.Time) TaskOption {
	return func(t *domain.Task) {
		d := normalizeTime(due)
		t.DueDate = &d
	}
}

// WithPriority sets the priority. Unknown priorities are ignored and the
// task keeps the medium default.
func WithPriority(p domain.Priority) TaskOption {
	return func(t *domain.Task) {
		if p.Valid() {
			t.Priority = p
		}
	}
}

// CreateTask appends a task to the list with id listID. Description defaults
// to empty and priority to medium. It is a no-op when the list is unknown.
func (s *Store) CreateTask(listID, name string, opts ...TaskOption) (domain.Task, bool) {
	var out domain.Task
	ok := s.mutate(func(now time.Time) (domain.Event, bool) {
		li := s.listIndex(listID)
		if li < 0 {
			return domain.Event{}, false
		}
		list := &s.board.Lists[li]
		t := domain.Task{
			ListID:    listID,
			Name:      name,
			Priority:  domain.PriorityMedium,
			CreatedAt: now,
			UpdatedAt: now,
		}
		for _, opt := range opts {
			opt(&t)
		}
		t.ID = s.newID()
		t.Order = len(list.Tasks)
		list.Tasks = append(list.Tasks, t)
		out = t.Clone()
		return domain.Event{Type: domain.EventTaskCreated, ListID: listID, TaskID: t.ID}, true
	})
	return out, ok
}

// UpdateTask merges patch into the task with id taskID, wherever it lives.
// An unknown priority in the patch is dropped; the other fields still apply.
func (s *Store) UpdateTask(taskID string, patch domain.TaskPatch) bool {
	return s.mutate(func(now time.Time) (domain.Event, bool) {
		li, ti := s.taskIndex(taskID)
		if li < 0 {
			return domain.Event{}, false
		}
		if patch.DueDate != nil {
			due := normalizeTime(*patch.DueDate)
			patch.DueDate = &due
		}
		if patch.Priority != nil && !patch.Priority.Valid() {
			patch.Priority = nil
		}
		patch.Apply(&s.board.Lists[li].Tasks[ti], now)
		return domain.Event{Type: domain.EventTaskUpdated, ListID: s.board.Lists[li].ID, TaskID: taskID}, true
	})
}

// MoveTask appends the task to the end of the target list.
func (s *Store) MoveTask(taskID, targetListID string) bool {
	return s.moveTask(taskID, targetListID, 0, false)
}

// MoveTaskAt inserts the task into the target list at position newOrder,
// clamped with the same splice rules as ReorderList. Moving within the
// same list reorders it.
func (s *Store) MoveTaskAt(taskID, targetListID string, newOrder int) bool {
	return s.moveTask(taskID, targetListID, newOrder, true)
}

func (s *Store) moveTask(taskID, targetListID string, newOrder int, positioned bool) bool {
	return s.mutate(func(now time.Time) (domain.Event, bool) {
		li, ti := s.taskIndex(taskID)
		if li < 0 {
			return domain.Event{}, false
		}
		target := s.listIndex(targetListID)
		if target < 0 {
			return domain.Event{}, false
		}

		source := &s.board.Lists[li]
		t := source.Tasks[ti]
		source.Tasks = slices.Delete(source.Tasks, ti, ti+1)
		renumberTasks(source.Tasks)

		t.ListID = targetListID
		t.UpdatedAt = now

		dst := &s.board.Lists[target]
		at := len(dst.Tasks)
		if positioned {
			at = spliceIndex(len(dst.Tasks), newOrder)
		}
		dst.Tasks = slices.Insert(dst.Tasks, at, t)
		renumberTasks(dst.Tasks)

		return domain.Event{Type: domain.EventTaskMoved, ListID: targetListID, TaskID: taskID}, true
	})
}

// ToggleTaskCompletion flips the task's completed flag.
func (s *Store) ToggleTaskCompletion(taskID string) bool {
	return s.mutate(func(now time.Time) (domain.Event, bool) {
		li, ti := s.taskIndex(taskID)
		if li < 0 {
			return domain.Event{}, false
		}
		t := &s.board.Lists[li].Tasks[ti]
		t.Completed = !t.Completed
		t.UpdatedAt = now
		return domain.Event{Type: domain.EventTaskCompletionToggled, ListID: t.ListID, TaskID: taskID}, true
	})
}

// DeleteTask removes the task from whichever list holds it.
func (s *Store) DeleteTask(taskID string) bool {
	return s.mutate(func(time.Time) (domain.Event, bool) {
		li, ti := s.taskIndex(taskID)
		if li < 0 {
			return domain.Event{}, false
		}
		list := &s.board.Lists[li]
		list.Tasks = slices.Delete(list.Tasks, ti, ti+1)
		renumberTasks(list.Tasks)
		return domain.Event{Type: domain.EventTaskDeleted, ListID: list.ID, TaskID: taskID}, true
	})
}

func renumberTasks(tasks []domain.Task) {
	for i := range tasks {
		tasks[i].Order = i
	}
}
