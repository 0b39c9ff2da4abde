// Package board holds the in-memory board graph and every operation that
// mutates it. A Store is the single owner of the graph; it persists a
// snapshot of itself to a durable slot after each committed mutation.
package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskboard/internal/domain"
)

// DefaultKey is the slot name the snapshot is stored under.
const DefaultKey = "board-storage"

// Slot is a named, durable key-value cell holding the serialized snapshot.
// Load returns domain.ErrNotFound when nothing has been stored under key.
type Slot interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// Store owns the board graph. Every exported operation runs as a single
// critical section over the whole tree, so observers never see a partially
// applied mutation.
type Store struct {
	mu     sync.RWMutex
	board  *domain.Board
	filter domain.Filter
	closed bool

	key         string
	saveTimeout time.Duration
	loadTimeout time.Duration
	clock       func() time.Time
	newID       func() string
	observers   []func(domain.Event)
	logger      zerolog.Logger

	writer *writer
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the slot key.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithClock overrides the time source used for createdAt/updatedAt stamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// WithIDGenerator overrides id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithSaveTimeout bounds each background snapshot write.
func WithSaveTimeout(d time.Duration) Option {
	return func(s *Store) { s.saveTimeout = d }
}

// WithLoadTimeout bounds the initial snapshot read.
func WithLoadTimeout(d time.Duration) Option {
	return func(s *Store) { s.loadTimeout = d }
}

// WithObserver registers fn to receive an event after every committed
// mutation. Observers run outside the store lock, on the mutating goroutine.
func WithObserver(fn func(domain.Event)) Option {
	return func(s *Store) { s.observers = append(s.observers, fn) }
}

// Open restores a Store from slot. A missing, unreadable or malformed
// snapshot leaves the store empty (no board); callers decide whether to
// Bootstrap. A nil slot gives a memory-only store.
func Open(ctx context.Context, slot Slot, opts ...Option) *Store {
	s := &Store{
		key:         DefaultKey,
		saveTimeout: 5 * time.Second,
		loadTimeout: 10 * time.Second,
		clock:       time.Now,
		newID:       uuid.NewString,
		logger:      log.With().Str("component", "board").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if slot == nil {
		return s
	}

	s.restore(ctx, slot)
	s.writer = newWriter(slot, s.key, s.saveTimeout, s.logger)
	go s.writer.run()

	return s
}

func (s *Store) restore(ctx context.Context, slot Slot) {
	loadCtx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	defer cancel()

	data, err := slot.Load(loadCtx, s.key)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Info().Str("key", s.key).Msg("no snapshot found, starting empty")
		return
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("key", s.key).Msg("snapshot load failed, starting empty")
		return
	}

	b, filter, err := decodeSnapshot(data)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", s.key).Msg("discarding unreadable snapshot")
		return
	}

	s.board = b
	s.filter = filter
	if b != nil {
		s.logger.Info().Str("board_id", b.ID).Int("lists", len(b.Lists)).Msg("snapshot restored")
	}
}

// Close stops the background writer after it has saved the latest snapshot.
// Mutations after Close still apply in memory but are no longer persisted.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed || s.writer == nil {
		s.closed = true
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.writer.queue)
	s.mu.Unlock()

	select {
	case <-s.writer.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("board.Close: %w", ctx.Err())
	}
}

// Bootstrap creates a board named name, with the default lists, when the
// store has none. It reports whether a board was created.
func (s *Store) Bootstrap(name string) bool {
	created := false
	s.mutate(func(now time.Time) (domain.Event, bool) {
		if s.board != nil {
			return domain.Event{}, false
		}
		s.createBoardLocked(name, now)
		created = true
		return domain.Event{Type: domain.EventBoardCreated}, true
	})
	return created
}

// Board returns a copy of the current board, or false when none exists.
func (s *Store) Board() (domain.Board, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.board == nil {
		return domain.Board{}, false
	}
	return s.board.Clone(), true
}

// List returns a copy of the list with the given id.
func (s *Store) List(id string) (domain.List, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.listIndex(id)
	if i < 0 {
		return domain.List{}, false
	}
	return s.board.Lists[i].Clone(), true
}

// Task returns a copy of the task with the given id.
func (s *Store) Task(id string) (domain.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	li, ti := s.taskIndex(id)
	if li < 0 {
		return domain.Task{}, false
	}
	return s.board.Lists[li].Tasks[ti].Clone(), true
}

// Filters returns the current view filters.
func (s *Store) Filters() domain.Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneFilter(s.filter)
}

// FilteredTasks projects a list's tasks through the current filters. The
// stored tasks are left untouched.
func (s *Store) FilteredTasks(listID string) ([]domain.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.listIndex(listID)
	if i < 0 {
		return nil, false
	}
	return s.filter.Apply(s.board.Lists[i].Tasks), true
}

// SetFilterCompleted hides or shows completed tasks in filtered reads.
func (s *Store) SetFilterCompleted(hide bool) {
	s.mutate(func(time.Time) (domain.Event, bool) {
		s.filter.HideCompleted = hide
		return domain.Event{Type: domain.EventFiltersChanged}, true
	})
}

// SetFilterPriority restricts filtered reads to one priority; nil shows all.
// An unknown priority leaves the filter unchanged.
func (s *Store) SetFilterPriority(p *domain.Priority) {
	s.mutate(func(time.Time) (domain.Event, bool) {
		if p != nil && !p.Valid() {
			return domain.Event{}, false
		}
		if p == nil {
			s.filter.Priority = nil
		} else {
			v := *p
			s.filter.Priority = &v
		}
		return domain.Event{Type: domain.EventFiltersChanged}, true
	})
}

// mutate runs fn under the write lock. When fn reports a change, the new
// state is queued for persistence before the lock is released and the
// event is delivered to observers afterwards.
func (s *Store) mutate(fn func(now time.Time) (domain.Event, bool)) bool {
	s.mu.Lock()
	now := s.now()
	ev, changed := fn(now)
	if !changed {
		s.mu.Unlock()
		return false
	}
	ev.At = now
	if s.board != nil {
		ev.BoardID = s.board.ID
	}
	s.persistLocked()
	s.mu.Unlock()

	for _, obs := range s.observers {
		obs(ev)
	}
	return true
}

func (s *Store) persistLocked() {
	if s.writer == nil || s.closed {
		return
	}
	data, err := encodeSnapshot(s.board, s.filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("encode snapshot")
		return
	}
	s.writer.enqueue(data)
}

// now returns the clock reading at the millisecond precision the snapshot
// format keeps, so restored values compare equal to in-memory ones.
func (s *Store) now() time.Time {
	return normalizeTime(s.clock())
}

// Bounds of the four-digit years the snapshot date format can express.
var (
	minTime = time.Date(0, time.January, 1, 0, 0, 0, 0, time.UTC)
	maxTime = time.Date(9999, time.December, 31, 23, 59, 59, int(999*time.Millisecond), time.UTC)
)

// normalizeTime reduces t to UTC milliseconds within years 0000 to 9999.
func normalizeTime(t time.Time) time.Time {
	t = t.UTC().Truncate(time.Millisecond)
	switch {
	case t.Before(minTime):
		return minTime
	case t.After(maxTime):
		return maxTime
	}
	return t
}

func (s *Store) listIndex(id string) int {
	if s.board == nil {
		return -1
	}
	for i := range s.board.Lists {
		if s.board.Lists[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) taskIndex(id string) (int, int) {
	if s.board == nil {
		return -1, -1
	}
	for li := range s.board.Lists {
		for ti := range s.board.Lists[li].Tasks {
			if s.board.Lists[li].Tasks[ti].ID == id {
				return li, ti
			}
		}
	}
	return -1, -1
}

func cloneFilter(f domain.Filter) domain.Filter {
	if f.Priority != nil {
		p := *f.Priority
		f.Priority = &p
	}
	return f
}
