package ws

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskboard/internal/domain"
)

const broadcastBuffer = 256

// Broadcaster forwards store events to the hub from a single goroutine so
// publish latency never reaches the mutating caller and order is kept.
type Broadcaster struct {
	hub     *Hub
	timeout time.Duration
	events  chan domain.Event
	logger  zerolog.Logger

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewBroadcaster starts the forwarding goroutine. Call Close to stop it.
func NewBroadcaster(hub *Hub, timeout time.Duration) *Broadcaster {
	b := &Broadcaster{
		hub:     hub,
		timeout: timeout,
		events:  make(chan domain.Event, broadcastBuffer),
		logger:  log.With().Str("component", "ws.broadcaster").Logger(),
		done:    make(chan struct{}),
	}
	go b.run()
	return b
}

// Observe queues an event for publishing. It never blocks; events are
// dropped with a warning when the buffer is full. Events observed after
// Close are ignored.
func (b *Broadcaster) Observe(e domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	select {
	case b.events <- e:
	default:
		b.logger.Warn().Str("type", string(e.Type)).Msg("event buffer full, dropping event")
	}
}

// Close stops accepting events and waits for queued ones to be published.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.events)
	}
	b.mu.Unlock()
	<-b.done
}

func (b *Broadcaster) run() {
	defer close(b.done)
	for e := range b.events {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		if err := b.hub.Publish(ctx, e); err != nil {
			b.logger.Warn().Err(err).Str("type", string(e.Type)).Msg("publish board event")
		}
		cancel()
	}
}
