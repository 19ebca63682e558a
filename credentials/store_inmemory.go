package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

var _ Store = (*InMemoryStore)(nil)

// InMemoryStore keeps values for the lifetime of the process.
type InMemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		values: make(map[string][]byte),
	}
}

func (s *InMemoryStore) Get(_ context.Context, key string, value any) (bool, error) {
	s.mu.RLock()
	data, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, value); err != nil {
		return false, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

func (s *InMemoryStore) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = data
	return nil
}

func (s *InMemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
