package store

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"inkwell/pkg/platform/sentinel"
)

type memoryObject struct {
	contentType string
	data        []byte
}

// MemoryStore keeps objects in memory for tests/dev.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

// NewMemoryStore constructs an empty in-memory object store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryObject)}
}

func (s *MemoryStore) Upload(_ context.Context, objectName, contentType string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read object body: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectName] = memoryObject{contentType: contentType, data: data}
	return nil
}

func (s *MemoryStore) URL(_ context.Context, objectName string, _ time.Duration) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.objects[objectName]; !ok {
		return "", fmt.Errorf("object %q: %w", objectName, sentinel.ErrNotFound)
	}
	return "memory://inkwell/" + objectName, nil
}

// Object returns the stored bytes and content type, for test assertions.
func (s *MemoryStore) Object(objectName string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[objectName]
	return obj.data, obj.contentType, ok
}
