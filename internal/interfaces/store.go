package interfaces

import (
	"sync"

	"unifimon/internal/checkapi"
)

// MemoryStore is a ValueStore that lives as long as the process. The daemon
// uses the bbolt backed store instead.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]checkapi.Counter
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]checkapi.Counter)}
}

func (s *MemoryStore) GetValue(key string) (checkapi.Counter, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.values[key]
	return c, ok
}

func (s *MemoryStore) SetValue(key string, c checkapi.Counter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = c
	return nil
}
