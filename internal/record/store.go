package record

import (
	"context"
	"time"
)

// Store persists ingested records. Implementations must treat records as
// immutable apart from the consent and disposal amendment paths.
type Store interface {
	Save(ctx context.Context, rec Record) error
	FindByID(ctx context.Context, id string) (Record, error)
	// AmendConsent updates only the consent fields of an existing record.
	AmendConsent(ctx context.Context, id string, amendment ConsentAmendment, at time.Time) (Record, error)
	// MarkDisposed records a disposal action against the record.
	MarkDisposed(ctx context.Context, id string, at time.Time) (Record, error)
}

// ConsentAmendment is the only permitted mutation of consent facts.
type ConsentAmendment struct {
	ConsentGiven               bool
	ConsentMethod              string
	ConsentScope               []string
	CrossBorderTransferConsent bool
}
