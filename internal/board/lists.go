package board

import (
	"slices"
	"time"

	"github.com/gosuda/taskboard/internal/domain"
)

// CreateBoard replaces the current board, if any, with a new one named name
// seeded with the default lists. Name validation is left to callers.
func (s *Store) CreateBoard(name string) domain.Board {
	var out domain.Board
	s.mutate(func(now time.Time) (domain.Event, bool) {
		s.createBoardLocked(name, now)
		out = s.board.Clone()
		return domain.Event{Type: domain.EventBoardCreated}, true
	})
	return out
}

func (s *Store) createBoardLocked(name string, now time.Time) {
	b := &domain.Board{
		ID:        s.newID(),
		Name:      name,
		Lists:     make([]domain.List, 0, len(domain.DefaultListNames)),
		CreatedAt: now,
	}
	for i, listName := range domain.DefaultListNames {
		b.Lists = append(b.Lists, domain.List{
			ID:        s.newID(),
			BoardID:   b.ID,
			Name:      listName,
			Order:     i,
			Tasks:     []domain.Task{},
			CreatedAt: now,
		})
	}
	s.board = b
}

// UpdateBoard renames the board when id matches the current board.
func (s *Store) UpdateBoard(id, name string) bool {
	return s.mutate(func(time.Time) (domain.Event, bool) {
		if s.board == nil || s.board.ID != id {
			return domain.Event{}, false
		}
		s.board.Name = name
		return domain.Event{Type: domain.EventBoardUpdated}, true
	})
}

// CreateList appends a new empty list. It is a no-op without a board.
func (s *Store) CreateList(name string) (domain.List, bool) {
	var out domain.List
	ok := s.mutate(func(now time.Time) (domain.Event, bool) {
		if s.board == nil {
			return domain.Event{}, false
		}
		l := domain.List{
			ID:        s.newID(),
			BoardID:   s.board.ID,
			Name:      name,
			Order:     len(s.board.Lists),
			Tasks:     []domain.Task{},
			CreatedAt: now,
		}
		s.board.Lists = append(s.board.Lists, l)
		out = l.Clone()
		return domain.Event{Type: domain.EventListCreated, ListID: l.ID}, true
	})
	return out, ok
}

// UpdateList renames the list with the given id.
func (s *Store) UpdateList(id, name string) bool {
	return s.mutate(func(time.Time) (domain.Event, bool) {
		i := s.listIndex(id)
		if i < 0 {
			return domain.Event{}, false
		}
		s.board.Lists[i].Name = name
		return domain.Event{Type: domain.EventListUpdated, ListID: id}, true
	})
}

// ReorderList moves the list to position newOrder and renumbers every list.
// Out-of-range positions follow splice rules: past the end appends,
// negative counts back from the end.
func (s *Store) ReorderList(id string, newOrder int) bool {
	return s.mutate(func(time.Time) (domain.Event, bool) {
		i := s.listIndex(id)
		if i < 0 {
			return domain.Event{}, false
		}
		l := s.board.Lists[i]
		lists := slices.Delete(s.board.Lists, i, i+1)
		lists = slices.Insert(lists, spliceIndex(len(lists), newOrder), l)
		renumberLists(lists)
		s.board.Lists = lists
		return domain.Event{Type: domain.EventListReordered, ListID: id}, true
	})
}

// DeleteList removes the list and all of its tasks.
func (s *Store) DeleteList(id string) bool {
	return s.mutate(func(time.Time) (domain.Event, bool) {
		i := s.listIndex(id)
		if i < 0 {
			return domain.Event{}, false
		}
		s.board.Lists = slices.Delete(s.board.Lists, i, i+1)
		renumberLists(s.board.Lists)
		return domain.Event{Type: domain.EventListDeleted, ListID: id}, true
	})
}

func renumberLists(lists []domain.List) {
	for i := range lists {
		lists[i].Order = i
	}
}

// spliceIndex clamps i into [0, n] the way an array splice start does.
func spliceIndex(n, i int) int {
	if i < 0 {
		i += n
		if i < 0 {
			return 0
		}
	}
	if i > n {
		return n
	}
	return i
}
