package redis_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/taskboard/internal/domain"
	redisstore "github.com/gosuda/taskboard/internal/store/redis"
)

func newClient(t *testing.T) (*redisstore.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := redisstore.New(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c, mr
}

func TestNew_PingFailure(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = redisstore.New(ctx, addr, "", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis.New: ping")
}

func TestSlot_LoadMissing(t *testing.T) {
	t.Parallel()

	c, _ := newClient(t)

	_, err := c.Load(context.Background(), "board-storage")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSlot_SaveThenLoad(t *testing.T) {
	t.Parallel()

	c, mr := newClient(t)
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, "board-storage", []byte(`{"v":1}`)))
	require.NoError(t, c.Save(ctx, "board-storage", []byte(`{"v":2}`)))

	got, err := c.Load(ctx, "board-storage")
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(got))

	raw, err := mr.Get("board-storage")
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, raw)
	assert.Zero(t, mr.TTL("board-storage"), "snapshots must not expire")
}

func TestSlot_SaveFailsWhenServerGone(t *testing.T) {
	t.Parallel()

	c, mr := newClient(t)
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := c.Save(ctx, "board-storage", []byte(`{}`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestPublishSubscribe(t *testing.T) {
	t.Parallel()

	c, _ := newClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, cleanup, err := c.Subscribe(ctx, redisstore.BoardChannel())
	require.NoError(t, err)
	defer cleanup()

	require.NoError(t, c.Publish(ctx, redisstore.BoardChannel(), []byte(`{"type":"task_created"}`)))

	select {
	case msg := <-msgs:
		assert.JSONEq(t, `{"type":"task_created"}`, string(msg))
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestBoardChannel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "board:events", redisstore.BoardChannel())
	assert.Equal(t, redisstore.BoardChannel(), redisstore.BoardChannel())
}
