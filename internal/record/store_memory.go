package record

import (
	"context"
	"sync"
	"time"

	"replicare/pkg/platform/sentinel"
)

// InMemoryStore keeps records in process memory. It intentionally favors
// clarity over performance and backs unit tests and dev deployments.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]Record)}
}

func (s *InMemoryStore) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; ok {
		return sentinel.ErrConflict
	}
	s.records[rec.ID] = rec
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[id]; ok {
		return rec, nil
	}
	return Record{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) AmendConsent(_ context.Context, id string, amendment ConsentAmendment, at time.Time) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	if rec.Compliance == nil {
		rec.Compliance = &ComplianceInfo{}
	} else {
		clone := *rec.Compliance
		rec.Compliance = &clone
	}
	rec.Compliance.ConsentGiven = amendment.ConsentGiven
	rec.Compliance.ConsentMethod = amendment.ConsentMethod
	rec.Compliance.ConsentScope = amendment.ConsentScope
	rec.Compliance.CrossBorderTransferConsent = amendment.CrossBorderTransferConsent
	ts := at
	rec.Compliance.ConsentTimestamp = &ts
	rec.LastModified = at
	s.records[id] = rec
	return rec, nil
}

func (s *InMemoryStore) MarkDisposed(_ context.Context, id string, at time.Time) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	if rec.Compliance == nil {
		rec.Compliance = &ComplianceInfo{}
	} else {
		clone := *rec.Compliance
		rec.Compliance = &clone
	}
	rec.Compliance.Disposed = true
	ts := at
	rec.Compliance.DisposalDate = &ts
	rec.LastModified = at
	s.records[id] = rec
	return rec, nil
}
