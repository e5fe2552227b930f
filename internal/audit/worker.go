package audit

import (
	"context"
	"log/slog"
)

// Worker drains audit events from a channel and appends them through the
// trail. Components on hot paths (replication sampling) enqueue instead of
// blocking on storage; fail-closed paths call Trail.Append directly.
type Worker struct {
	trail  *Trail
	inbox  chan Event
	logger *slog.Logger
}

func NewWorker(trail *Trail, buffer int, logger *slog.Logger) *Worker {
	if buffer <= 0 {
		buffer = 1024
	}
	return &Worker{
		trail:  trail,
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Enqueue hands an event to the worker without blocking. A full inbox drops
// the event and reports false; callers decide whether that is tolerable.
func (w *Worker) Enqueue(event Event) bool {
	select {
	case w.inbox <- event:
		return true
	default:
		w.logger.Warn("audit worker inbox full, event dropped",
			"action", event.Action,
			"subject", event.Subject,
		)
		return false
	}
}

// Run processes the inbox until the context is cancelled. Append failures are
// logged and the worker keeps going: each event is self-describing and the
// trail already exhausted its retry budget.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.trail.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit worker append failed",
					"action", event.Action,
					"subject", event.Subject,
					"error", err,
				)
			}
		}
	}
}
