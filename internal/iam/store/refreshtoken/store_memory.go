package refreshtoken

import (
	"context"
	"sync"

	"inkwell/pkg/platform/sentinel"
)

// MemoryStore keeps allow-lists in memory for tests and dev mode.
type MemoryStore struct {
	mu   sync.Mutex
	sets map[int64]map[string]struct{}
}

// NewMemoryStore constructs an empty in-memory allow-list store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[int64]map[string]struct{})}
}

func (s *MemoryStore) Add(_ context.Context, userID int64, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[userID]
	if !ok {
		set = make(map[string]struct{})
		s.sets[userID] = set
	}
	set[token] = struct{}{}
	return nil
}

func (s *MemoryStore) Contains(_ context.Context, userID int64, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sets[userID][token]
	return ok, nil
}

func (s *MemoryStore) Remove(_ context.Context, userID int64, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sets[userID], token)
	return nil
}

func (s *MemoryStore) Rotate(_ context.Context, userID int64, oldToken, newToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[userID]
	if !ok {
		return sentinel.ErrAlreadyUsed
	}
	if _, member := set[oldToken]; !member {
		return sentinel.ErrAlreadyUsed
	}
	delete(set, oldToken)
	set[newToken] = struct{}{}
	return nil
}
