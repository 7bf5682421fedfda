package rulestore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/perimetra/fwapi/internal/rules"
)

// MemoryStore is an in-memory Store used by tests and throwaway dev runs.
// Query order is by insertion so that GC passes are reproducible.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]*rules.Rule
	order map[string]int
	next  int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:  make(map[string]*rules.Rule),
		order: make(map[string]int),
	}
}

func (s *MemoryStore) Query(ctx context.Context, f Filter) ([]*rules.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*rules.Rule
	for _, r := range s.byID {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return s.order[out[i].UUID] < s.order[out[j].UUID]
	})
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*rules.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) Add(ctx context.Context, r *rules.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.UUID == "" {
		r.UUID = uuid.NewString()
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if _, exists := s.byID[r.UUID]; !exists {
		s.order[r.UUID] = s.next
		s.next++
	}
	s.byID[r.UUID] = r
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.byID, id)
	delete(s.order, id)
	return nil
}

// Len returns the number of stored rules.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
