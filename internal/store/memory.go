package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// InMemoryRunStore implements RunStore for testing and for sessions
// without a project directory.
type InMemoryRunStore struct {
	mu   sync.RWMutex
	runs map[string]Run
}

// NewInMemoryRunStore creates a new in-memory store.
func NewInMemoryRunStore() *InMemoryRunStore {
	return &InMemoryRunStore{runs: make(map[string]Run)}
}

// AddRun adds a run to the store.
func (s *InMemoryRunStore) AddRun(ctx context.Context, run Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run = prepareRun(run)
	if _, exists := s.runs[run.ID]; exists {
		return "", fmt.Errorf("run already exists: %s", run.ID)
	}
	s.runs[run.ID] = copyRun(run)
	return run.ID, nil
}

// GetRun retrieves a run by ID.
func (s *InMemoryRunStore) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	out := copyRun(run)
	return &out, nil
}

// ListRuns returns runs newest first.
func (s *InMemoryRunStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]Run, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, copyRun(run))
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].ID > runs[j].ID
		}
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryRunStore) Close() error {
	return nil
}
