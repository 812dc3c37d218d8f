// Package worker moves audit writes off the request path.
package worker

import (
	"context"
	"log/slog"
	"time"

	audit "enrollment/pkg/platform/audit"
)

// Worker is an audit.Emitter that queues events and persists them from Run.
type Worker struct {
	sink   audit.Emitter
	inbox  chan audit.Event
	logger *slog.Logger
	done   chan struct{}
}

func New(sink audit.Emitter, buffer int, logger *slog.Logger) *Worker {
	if buffer <= 0 {
		buffer = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{sink: sink, inbox: make(chan audit.Event, buffer), logger: logger, done: make(chan struct{})}
}

// Emit queues event, waiting for room until ctx is done. Compliance events
// are written through synchronously so their failure reaches the caller.
func (w *Worker) Emit(ctx context.Context, event audit.Event) error {
	event = event.Normalize(time.Now())
	if event.Category == audit.CategoryCompliance {
		return w.sink.Emit(ctx, event)
	}
	select {
	case w.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run persists queued events until ctx is done, then drains what is left.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case event := <-w.inbox:
			w.persist(ctx, event)
		case <-ctx.Done():
			w.drain()
			return
		}
	}
}

// Wait blocks until Run has drained.
func (w *Worker) Wait(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case event := <-w.inbox:
			w.persist(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) persist(ctx context.Context, event audit.Event) {
	if err := w.sink.Emit(ctx, event); err != nil {
		w.logger.WarnContext(ctx, "failed to persist audit event",
			"action", event.Action, "session_id", event.SessionID, "error", err)
	}
}
