package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"inkwell/internal/user/models"
	"inkwell/pkg/platform/sentinel"
)

// MemoryStore stores users in memory for tests/dev.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[int64]models.User
	nextID int64
}

// NewMemoryStore constructs an empty in-memory user store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[int64]models.User), nextID: 1}
}

func (s *MemoryStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return fmt.Errorf("username or email taken: %w", sentinel.ErrConflict)
		}
	}
	user.ID = s.nextID
	s.nextID++
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		out := u
		return &out, nil
	}
	return nil, fmt.Errorf("user %d: %w", id, sentinel.ErrNotFound)
}

func (s *MemoryStore) List(_ context.Context, limit, offset int) ([]models.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := len(all)
	if offset >= total {
		return []models.User{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (s *MemoryStore) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return fmt.Errorf("user %d: %w", user.ID, sentinel.ErrNotFound)
	}
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return fmt.Errorf("user %d: %w", id, sentinel.ErrNotFound)
	}
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) Credentials(_ context.Context, username string) (models.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return models.Credentials{ID: u.ID, Username: u.Username, PasswordHash: u.HashedPassword}, nil
		}
	}
	return models.Credentials{}, fmt.Errorf("user %q: %w", username, sentinel.ErrNotFound)
}

func (s *MemoryStore) Exists(_ context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[id]
	return ok, nil
}
