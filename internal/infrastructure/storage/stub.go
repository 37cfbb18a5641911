package storage

import (
	"context"
	"errors"
	"sync"

	auditapp "github.com/gasflow/backend/internal/application/audit"
)

// StubObjectStorage is an in-memory archive sink for development and
// tests. Deployments without storage credentials fall back to it so
// retention still purges.
type StubObjectStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewStubObjectStorage creates a new StubObjectStorage
func NewStubObjectStorage() *StubObjectStorage {
	return &StubObjectStorage{
		objects: make(map[string][]byte),
	}
}

// Put stores the object in memory
func (s *StubObjectStorage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[key] = buf
	return nil
}

// Get returns a stored object, for tests
func (s *StubObjectStorage) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	return data, ok
}

// Len returns the number of stored objects, for tests
func (s *StubObjectStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// Ensure StubObjectStorage implements the archive sink
var _ auditapp.ObjectStorage = (*StubObjectStorage)(nil)
