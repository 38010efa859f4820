package usecase

import (
	"sync"

	"github.com/spreadfi/spread/src/controller/domain"
)

var _ domain.SessionStore = (*MemoryStore)(nil)

// MemoryStore is the in-process SessionStore. Values go in and out by copy,
// so callers never hold a reference into the map.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]domain.SwapState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]domain.SwapState)}
}

func (s *MemoryStore) Get(sessionID string) (domain.SwapState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[sessionID]
	return st, ok
}

func (s *MemoryStore) Put(state domain.SwapState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.SessionID] = state
}

func (s *MemoryStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, sessionID)
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = make(map[string]domain.SwapState)
}
