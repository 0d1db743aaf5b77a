package mcp

import (
	"sync"

	"sasquatch-backpack/src/service"
	"sasquatch-backpack/src/usgs"
)

// ResultStore keeps tool results so events can be looked up after the manifest is returned.
type ResultStore interface {
	// Store saves a result for a request.
	Store(requestID string, result service.Result)
	// Get retrieves a single event by its catalog ID.
	Get(requestID, eventID string) (usgs.Earthquake, bool)
}

// InMemoryStore is a thread-safe in-memory ResultStore.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string]map[string]usgs.Earthquake // request_id -> event id -> event
}

// NewInMemoryStore creates a new in-memory result store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		events: make(map[string]map[string]usgs.Earthquake),
	}
}

// Store saves a result, indexed by event ID for drill-down.
func (s *InMemoryStore) Store(requestID string, result service.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := make(map[string]usgs.Earthquake, len(result.Earthquakes))
	for _, q := range result.Earthquakes {
		index[q.ID] = q
	}
	s.events[requestID] = index
}

func (s *InMemoryStore) Get(requestID, eventID string) (usgs.Earthquake, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index, ok := s.events[requestID]; ok {
		q, found := index[eventID]
		return q, found
	}
	return usgs.Earthquake{}, false
}
