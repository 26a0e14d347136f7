package tasks

import (
	"context"
	"sync"
)

// InMemoryStore keeps the task list in process memory. It resets on restart.
type InMemoryStore struct {
	mu    sync.RWMutex
	tasks []Task
}

// NewInMemoryStore returns a store holding the seed tasks.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{tasks: seedCopy()}
}

// List returns a snapshot in insertion order. It never fails.
func (s *InMemoryStore) List(_ context.Context) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out, nil
}

func (s *InMemoryStore) Append(_ context.Context, text string) error {
	if err := validateText(text); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, text)
	return nil
}

func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

func (s *InMemoryStore) Mode() string { return "in-memory" }

func (s *InMemoryStore) Close() error { return nil }
