package audit

import (
	"context"
	"time"
)

// Store persists the append-only trail. Implementations must be safe under
// concurrent writers and must treat Append as at-most-once per event ID so
// callers can retry after a transient failure without duplicating history.
type Store interface {
	// Append writes the event. Re-appending an ID that is already present is
	// a no-op, never an error.
	Append(ctx context.Context, event Event) error

	// Page returns up to limit events matching the filter, ordered by
	// (timestamp, id), strictly after the given token. The returned token
	// resumes the scan; an empty slice means the trail is exhausted.
	Page(ctx context.Context, filter Filter, after Token, limit int) ([]Event, Token, error)

	// MarkCompactable flags events older than the cutoff as eligible for
	// compaction, skipping anything the protection pins. Returns the number
	// of events marked. Events are never deleted.
	MarkCompactable(ctx context.Context, before time.Time, protection Protection) (int, error)
}
