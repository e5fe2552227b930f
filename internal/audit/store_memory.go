package audit

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryStore keeps the trail in process memory. It favors clarity over
// performance and backs unit tests and single-node dev deployments.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
	byID   map[string]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byID: make(map[string]struct{})}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[event.ID.String()]; ok {
		return nil
	}
	s.byID[event.ID.String()] = struct{}{}

	// Insert keeping (timestamp, id) order so pages never re-sort.
	i := sort.Search(len(s.events), func(i int) bool {
		return !Less(s.events[i], event)
	})
	s.events = append(s.events, Event{})
	copy(s.events[i+1:], s.events[i:])
	s.events[i] = event
	return nil
}

func (s *InMemoryStore) Page(_ context.Context, filter Filter, after Token, limit int) ([]Event, Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	token := after
	for _, e := range s.events {
		if !after.IsZero() && !Less(Event{Timestamp: after.Timestamp, ID: after.ID}, e) {
			continue
		}
		if !filter.Matches(e) {
			continue
		}
		out = append(out, e)
		token = Token{Timestamp: e.Timestamp, ID: e.ID}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, token, nil
}

func (s *InMemoryStore) MarkCompactable(_ context.Context, before time.Time, protection Protection) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	marked := 0
	for i := range s.events {
		e := &s.events[i]
		if e.CompactionEligible || !e.Timestamp.Before(before) {
			continue
		}
		if protection.Covers(*e) {
			continue
		}
		e.CompactionEligible = true
		marked++
	}
	return marked, nil
}
