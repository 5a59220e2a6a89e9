package outbox

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a non-durable Store used in tests and when the gateway
// runs without a database.
type MemoryStore struct {
	mu    sync.Mutex
	tasks map[string]Task
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: map[string]Task{}}
}

func (s *MemoryStore) Enqueue(_ context.Context, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task
	return nil
}

func (s *MemoryStore) Due(_ context.Context, now time.Time, limit int) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []Task
	for _, t := range s.tasks {
		if !t.NextAttempt.After(now) {
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextAttempt.Before(due[j].NextAttempt) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *MemoryStore) MarkDone(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
	return nil
}

func (s *MemoryStore) Reschedule(_ context.Context, id string, attempts int, next time.Time, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok {
		t.Attempts = attempts
		t.NextAttempt = next
		s.tasks[id] = t
	}
	return nil
}

func (s *MemoryStore) Depth(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks), nil
}
