package report

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemory implements Store for tests and DSN-less development mode.
type InMemory struct {
	mu      sync.RWMutex
	reports map[string]*Report
}

var _ Store = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{reports: make(map[string]*Report)}
}

func (s *InMemory) Insert(ctx context.Context, r *Report) error {
	if r == nil || r.ID == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.reports[r.ID] = &cp
	return nil
}

func (s *InMemory) Find(ctx context.Context, id string) (*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *InMemory) SetStatus(ctx context.Context, id string, status Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return ErrNotFound
	}
	r.Status = status
	r.UpdatedAt = at
	return nil
}

func (s *InMemory) List(ctx context.Context, keys []string, limit int) ([]*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*Report
	for _, r := range s.reports {
		if keys != nil && !keyMatch(keys, r.CommuneID) {
			continue
		}
		cp := *r
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}
