package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	pkgerrors "replicare/pkg/errors"
	"replicare/pkg/platform/sentinel"
)

// Trail is the append path every component writes through. It wraps the store
// with a retry budget and a circuit breaker: transient storage failures are
// retried with the same event ID (at-most-once recording), and once the
// budget is exhausted the failure is surfaced to the caller, because an
// unauditable compliance decision is unsafe to act upon.
type Trail struct {
	store      Store
	logger     *slog.Logger
	breaker    *gobreaker.CircuitBreaker[struct{}]
	maxRetries uint64
	now        func() time.Time
}

// Option configures the Trail.
type Option func(*Trail)

// WithMaxRetries overrides the append retry budget.
func WithMaxRetries(n uint64) Option {
	return func(t *Trail) { t.maxRetries = n }
}

// WithClock overrides the timestamp source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(t *Trail) { t.now = now }
}

// NewTrail builds the trail over the given store.
func NewTrail(store Store, logger *slog.Logger, opts ...Option) *Trail {
	t := &Trail{
		store:      store,
		logger:     logger,
		maxRetries: 5,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "audit-append",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return t
}

// Append persists the event, assigning ID and timestamp when unset. Retries
// reuse the assigned ID so a replay after a transient failure cannot record
// the event twice.
func (t *Trail) Append(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = t.now()
	}
	if event.Severity == "" {
		event.Severity = SeverityInfo
	}

	op := func() error {
		_, err := t.breaker.Execute(func() (struct{}, error) {
			return struct{}{}, t.store.Append(ctx, event)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			// Breaker open: retrying inside this budget is pointless.
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(newAppendBackOff(), t.maxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		t.logger.ErrorContext(ctx, "CRITICAL: audit append failed after retries",
			"event_id", event.ID,
			"action", event.Action,
			"subject", event.Subject,
			"error", err,
		)
		return pkgerrors.Wrap(pkgerrors.CodeUnavailable, "audit trail unavailable", errors.Join(err, sentinel.ErrUnavailable))
	}
	return nil
}

// Query opens a lazy, restartable cursor over events matching the filter,
// ordered by timestamp.
func (t *Trail) Query(ctx context.Context, filter Filter) *Cursor {
	_ = ctx // position is established lazily on the first Next call
	return newCursor(t.store, filter, defaultPageSize)
}

// MarkCompactable runs a retention pass: events older than the cutoff become
// eligible for compaction unless the protection pins them.
func (t *Trail) MarkCompactable(ctx context.Context, before time.Time, protection Protection) (int, error) {
	n, err := t.store.MarkCompactable(ctx, before, protection)
	if err != nil {
		return 0, fmt.Errorf("retention pass: %w", err)
	}
	if n > 0 {
		t.logger.InfoContext(ctx, "retention pass marked events compactable",
			"count", n,
			"cutoff", before,
		)
	}
	return n, nil
}

func newAppendBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return b
}
