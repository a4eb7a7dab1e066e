package artifact

import (
	"context"
	"fmt"
	"sync"

	"signet/pkg/platform/sentinel"
)

// InMemory is the test double for Store.
type InMemory struct {
	mu    sync.RWMutex
	blobs map[string][]byte

	// FailPut, when set, makes the next Put return this error.
	FailPut error
	// FailDelete, when set, makes every Delete return this error.
	FailDelete error
}

// NewInMemory constructs an empty in-memory artifact store.
func NewInMemory() *InMemory {
	return &InMemory{blobs: make(map[string][]byte)}
}

func (s *InMemory) Put(_ context.Context, handle string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPut != nil {
		err := s.FailPut
		s.FailPut = nil
		return err
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	s.blobs[handle] = copied
	return nil
}

func (s *InMemory) Get(_ context.Context, handle string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[handle]
	if !ok {
		return nil, fmt.Errorf("artifact %q: %w", handle, sentinel.ErrNotFound)
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	return copied, nil
}

func (s *InMemory) Exists(_ context.Context, handle string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[handle]
	return ok, nil
}

func (s *InMemory) Delete(_ context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDelete != nil {
		return s.FailDelete
	}
	delete(s.blobs, handle)
	return nil
}

// Len reports how many artifacts are stored; tests use it to assert the
// no-orphans invariant.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
