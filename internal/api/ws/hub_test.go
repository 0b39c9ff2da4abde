package ws_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bytedance/sonic"
	"github.com/coder/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/taskboard/internal/api/ws"
	"github.com/gosuda/taskboard/internal/auth"
	"github.com/gosuda/taskboard/internal/board"
	"github.com/gosuda/taskboard/internal/domain"
	"github.com/gosuda/taskboard/internal/server/middleware"
	redisstore "github.com/gosuda/taskboard/internal/store/redis"
)

func newHub(t *testing.T) (*ws.Hub, *redisstore.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := redisstore.New(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return ws.NewHub(client), client
}

func dialBoard(t *testing.T, hub *ws.Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeBoard))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.CloseNow() })
	return conn
}

// publishUntilReceived retries until the server side subscription is live;
// the dial returns before the handler has subscribed.
func publishUntilReceived(t *testing.T, hub *ws.Hub, conn *websocket.Conn, e domain.Event) domain.Event {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type frame struct {
		typ  websocket.MessageType
		data []byte
		err  error
	}
	got := make(chan frame, 1)
	go func() {
		typ, data, err := conn.Read(ctx)
		got <- frame{typ, data, err}
	}()

	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for {
		require.NoError(t, hub.Publish(context.Background(), e))
		select {
		case f := <-got:
			require.NoError(t, f.err)
			assert.Equal(t, websocket.MessageText, f.typ)

			var ev domain.Event
			require.NoError(t, sonic.ConfigStd.Unmarshal(f.data, &ev))
			return ev
		case <-ctx.Done():
			t.Fatal("no event received")
		case <-tick.C:
		}
	}
}

func TestHub_PublishReachesSocket(t *testing.T) {
	t.Parallel()

	hub, _ := newHub(t)
	conn := dialBoard(t, hub)

	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	got := publishUntilReceived(t, hub, conn, domain.Event{
		Type:    domain.EventTaskCreated,
		BoardID: "b1",
		ListID:  "l1",
		TaskID:  "t1",
		At:      at,
	})

	assert.Equal(t, domain.EventTaskCreated, got.Type)
	assert.Equal(t, "t1", got.TaskID)
	assert.True(t, at.Equal(got.At))
}

func TestBroadcaster_ForwardsStoreEvents(t *testing.T) {
	t.Parallel()

	hub, client := newHub(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	messages, cleanup, err := client.Subscribe(ctx, redisstore.BoardChannel())
	require.NoError(t, err)
	defer cleanup()

	bc := ws.NewBroadcaster(hub, time.Second)
	store := board.Open(context.Background(), nil, board.WithObserver(bc.Observe))

	store.CreateBoard("Sprint")
	b, _ := store.Board()
	store.CreateTask(b.Lists[0].ID, "Write docs")

	require.NoError(t, store.Close(context.Background()))
	bc.Close()

	var types []domain.EventType
	for len(types) < 2 {
		select {
		case msg := <-messages:
			var e domain.Event
			require.NoError(t, sonic.ConfigStd.Unmarshal(msg, &e))
			types = append(types, e.Type)
		case <-time.After(5 * time.Second):
			t.Fatalf("received %v", types)
		}
	}
	assert.Equal(t, []domain.EventType{domain.EventBoardCreated, domain.EventTaskCreated}, types)
}

func TestBroadcaster_ObserveAfterClose(t *testing.T) {
	t.Parallel()

	hub, _ := newHub(t)
	bc := ws.NewBroadcaster(hub, time.Second)
	bc.Close()

	assert.NotPanics(t, func() {
		bc.Observe(domain.Event{Type: domain.EventBoardUpdated})
	})
	bc.Close()
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestHub_LogsAuthenticatedSubject(t *testing.T) {
	t.Parallel()

	const secret = "hub-test-secret"

	mr := miniredis.RunT(t)
	client, err := redisstore.New(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	var out syncBuffer
	hub := ws.NewHub(client, ws.WithLogger(zerolog.New(&out)))

	srv := httptest.NewServer(middleware.Auth(secret)(http.HandlerFunc(hub.ServeBoard)))
	t.Cleanup(srv.Close)

	token, err := auth.IssueToken(secret, "owner-42", time.Minute)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?access_token=" + token
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.CloseNow() })

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "board feed connected")
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), `"subject":"owner-42"`)
}
