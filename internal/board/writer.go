package board

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// writer saves snapshots in the background. Its queue holds at most one
// snapshot; a newer one replaces an unsaved older one, since only the
// latest state matters.
type writer struct {
	slot    Slot
	key     string
	timeout time.Duration
	logger  zerolog.Logger

	queue chan []byte
	done  chan struct{}
}

func newWriter(slot Slot, key string, timeout time.Duration, logger zerolog.Logger) *writer {
	return &writer{
		slot:    slot,
		key:     key,
		timeout: timeout,
		logger:  logger,
		queue:   make(chan []byte, 1),
		done:    make(chan struct{}),
	}
}

func (w *writer) run() {
	defer close(w.done)
	for data := range w.queue {
		w.save(data)
	}
}

func (w *writer) save(data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if err := w.slot.Save(ctx, w.key, data); err != nil {
		// The in-memory tree stays authoritative; the next mutation retries.
		w.logger.Error().Err(err).Str("key", w.key).Int("bytes", len(data)).Msg("snapshot save failed")
		return
	}
	w.logger.Debug().Str("key", w.key).Int("bytes", len(data)).Msg("snapshot saved")
}

// enqueue never blocks. Callers serialize on the store lock, so there is a
// single producer at a time.
func (w *writer) enqueue(data []byte) {
	for {
		select {
		case w.queue <- data:
			return
		default:
		}
		select {
		case <-w.queue:
		default:
		}
	}
}
