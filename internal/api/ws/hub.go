package ws

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/coder/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskboard/internal/domain"
	"github.com/gosuda/taskboard/internal/server/middleware"
	redisstore "github.com/gosuda/taskboard/internal/store/redis"
)

// PubSub is the message bus the hub fans board events through.
// *redisstore.Client satisfies this interface.
type PubSub interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// Hub manages WebSocket connections backed by Redis pub/sub.
type Hub struct {
	pubsub  PubSub
	channel string
	logger  zerolog.Logger
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithLogger replaces the hub's component logger.
func WithLogger(l zerolog.Logger) HubOption {
	return func(h *Hub) { h.logger = l }
}

// NewHub creates a new WebSocket hub.
func NewHub(pubsub PubSub, opts ...HubOption) *Hub {
	h := &Hub{
		pubsub:  pubsub,
		channel: redisstore.BoardChannel(),
		logger:  log.With().Str("component", "ws.hub").Logger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeBoard streams every board event to the connected client as one
// JSON text message per event.
func (h *Hub) ServeBoard(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With().Str("remote", r.RemoteAddr).Logger()
	if sub, ok := middleware.SubjectFromContext(r.Context()); ok {
		logger = logger.With().Str("subject", sub).Logger()
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		logger.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	logger.Info().Msg("board feed connected")
	defer logger.Info().Msg("board feed disconnected")

	// Reads are only needed to observe the client's close frame.
	ctx := conn.CloseRead(r.Context())

	messages, cleanup, err := h.pubsub.Subscribe(ctx, h.channel)
	if err != nil {
		logger.Error().Err(err).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				logger.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}

// Publish encodes an event and sends it to every subscriber.
func (h *Hub) Publish(ctx context.Context, e domain.Event) error {
	payload, err := sonic.ConfigStd.Marshal(e)
	if err != nil {
		return fmt.Errorf("ws.Hub.Publish: encode: %w", err)
	}
	if err := h.pubsub.Publish(ctx, h.channel, payload); err != nil {
		return fmt.Errorf("ws.Hub.Publish: %w", err)
	}
	return nil
}
