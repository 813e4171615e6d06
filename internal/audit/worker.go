package audit

import (
	"context"
	"log/slog"
	"time"
)

// Sink receives a copy of every event after it is stored. Used for the Kafka
// fan-out; optional.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// drainTimeout bounds how long shutdown waits for buffered events.
const drainTimeout = 5 * time.Second

// Worker consumes audit events from the recorder's inbox and persists them.
// Store and sink failures are logged and skipped: an audit outage never takes
// authentication down.
type Worker struct {
	store  Store
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

// NewWorker builds a worker. sink may be nil.
func NewWorker(store Store, sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, sink: sink, inbox: inbox, logger: logger}
}

// Run drains the inbox until ctx is cancelled, then flushes whatever is still
// buffered within a short grace period so shutdown does not lose the tail.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case event := <-w.inbox:
			w.handle(ctx, event)
		}
	}
}

func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		select {
		case event := <-w.inbox:
			w.handle(ctx, event)
		case <-ctx.Done():
			return
		default:
			return
		}
	}
}

func (w *Worker) handle(ctx context.Context, event Event) {
	if err := w.store.Append(ctx, event); err != nil {
		w.logger.ErrorContext(ctx, "audit store append failed",
			"action", event.Action,
			"event_id", event.ID,
			"error", err,
		)
	}
	if w.sink == nil {
		return
	}
	if err := w.sink.Publish(ctx, event); err != nil {
		w.logger.ErrorContext(ctx, "audit sink publish failed",
			"action", event.Action,
			"event_id", event.ID,
			"error", err,
		)
	}
}
