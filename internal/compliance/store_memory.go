package compliance

import (
	"context"
	"sort"
	"sync"
	"time"

	"replicare/pkg/platform/sentinel"
)

// InMemoryVerdictStore keeps verdicts in process memory for tests and dev.
type InMemoryVerdictStore struct {
	mu       sync.RWMutex
	verdicts map[string]Verdict
}

func NewInMemoryVerdictStore() *InMemoryVerdictStore {
	return &InMemoryVerdictStore{verdicts: make(map[string]Verdict)}
}

func (s *InMemoryVerdictStore) Save(_ context.Context, v Verdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Deterministic IDs make replays natural no-ops.
	s.verdicts[v.ID.String()] = v
	return nil
}

func (s *InMemoryVerdictStore) ListByWindow(_ context.Context, region string, from, to time.Time) ([]Verdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Verdict
	for _, v := range s.verdicts {
		if region != "" && v.Region != region {
			continue
		}
		if v.EvaluatedAt.Before(from) || v.EvaluatedAt.After(to) {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EvaluatedAt.Equal(out[j].EvaluatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].EvaluatedAt.Before(out[j].EvaluatedAt)
	})
	return out, nil
}

// InMemoryReportStore keeps reports in process memory for tests and dev.
type InMemoryReportStore struct {
	mu      sync.RWMutex
	reports []Report
}

func NewInMemoryReportStore() *InMemoryReportStore {
	return &InMemoryReportStore{}
}

func (s *InMemoryReportStore) Save(_ context.Context, r Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	return nil
}

func (s *InMemoryReportStore) Latest(_ context.Context, region string) (Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.reports) - 1; i >= 0; i-- {
		if s.reports[i].Region == region {
			return s.reports[i], nil
		}
	}
	return Report{}, sentinel.ErrNotFound
}
