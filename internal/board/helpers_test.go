package board_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gosuda/taskboard/internal/board"
	"github.com/gosuda/taskboard/internal/domain"
)

// ---------------------------------------------------------------------------
// In-memory slot
// ---------------------------------------------------------------------------

type memSlot struct {
	mu      sync.Mutex
	data    map[string][]byte
	saves   int
	saveErr error
	loadErr error
}

func newMemSlot() *memSlot {
	return &memSlot{data: make(map[string][]byte)}
}

func (m *memSlot) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loadErr != nil {
		return nil, m.loadErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("memSlot.Load: %w", domain.ErrNotFound)
	}
	return append([]byte(nil), v...), nil
}

func (m *memSlot) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *memSlot) get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.data[key]
	return v, ok
}

var errDiskFull = errors.New("disk full")

// ---------------------------------------------------------------------------
// Deterministic clock and ids
// ---------------------------------------------------------------------------

type tickClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTickClock() *tickClock {
	return &tickClock{now: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
}

// Now advances by one second per call so successive stamps always differ.
func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(time.Second)
	return c.now
}

func seqIDs() func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

func newTestStore(t *testing.T, slot board.Slot, opts ...board.Option) *board.Store {
	t.Helper()

	base := []board.Option{
		board.WithClock(newTickClock().Now),
		board.WithIDGenerator(seqIDs()),
	}
	s := board.Open(context.Background(), slot, append(base, opts...)...)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

// reopen closes s, flushing its snapshot, and opens a fresh store on slot.
func reopen(t *testing.T, s *board.Store, slot board.Slot) *board.Store {
	t.Helper()

	require.NoError(t, s.Close(context.Background()))
	return newTestStore(t, slot)
}

// ---------------------------------------------------------------------------
// Invariant checks
// ---------------------------------------------------------------------------

func requireInvariants(t *testing.T, s *board.Store) {
	t.Helper()

	b, ok := s.Board()
	if !ok {
		return
	}
	seen := make(map[string]bool)
	for i, l := range b.Lists {
		require.Equal(t, i, l.Order, "list %q order", l.Name)
		require.False(t, seen[l.ID], "duplicate id %s", l.ID)
		seen[l.ID] = true
		for j, task := range l.Tasks {
			require.Equal(t, j, task.Order, "task %q order in list %q", task.Name, l.Name)
			require.Equal(t, l.ID, task.ListID, "task %q back-reference", task.Name)
			require.False(t, seen[task.ID], "duplicate id %s", task.ID)
			seen[task.ID] = true
		}
	}
}

func listByName(t *testing.T, s *board.Store, name string) domain.List {
	t.Helper()

	b, ok := s.Board()
	require.True(t, ok, "board should exist")
	for _, l := range b.Lists {
		if l.Name == name {
			return l
		}
	}
	require.FailNow(t, "list not found", name)
	return domain.List{}
}

func taskNames(tasks []domain.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.Name
	}
	return out
}

func listNames(lists []domain.List) []string {
	out := make([]string, len(lists))
	for i, l := range lists {
		out[i] = l.Name
	}
	return out
}
