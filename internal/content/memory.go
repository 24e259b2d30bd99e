package content

import (
	"context"
	"sort"
	"sync"

	"communeo.org/internal/scope"
)

// InMemory implements Store with in-process concurrency safety. It evaluates
// the same predicate tree the SQL adapter translates, so tests exercise the
// filter semantics end to end.
type InMemory struct {
	mu    sync.RWMutex
	items map[Kind]map[string]*Item
}

var _ Store = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{items: make(map[Kind]map[string]*Item)}
}

func (s *InMemory) Insert(ctx context.Context, it *Item) error {
	if it == nil || it.ID == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.items[it.Kind]
	if bucket == nil {
		bucket = make(map[string]*Item)
		s.items[it.Kind] = bucket
	}
	cp := clone(it)
	bucket[it.ID] = cp
	return nil
}

func (s *InMemory) Find(ctx context.Context, kind Kind, id string) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[kind][id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(it), nil
}

func (s *InMemory) Update(ctx context.Context, it *Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.items[it.Kind]
	if _, ok := bucket[it.ID]; !ok {
		return ErrNotFound
	}
	bucket[it.ID] = clone(it)
	return nil
}

func (s *InMemory) Delete(ctx context.Context, kind Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[kind][id]; !ok {
		return ErrNotFound
	}
	delete(s.items[kind], id)
	return nil
}

func (s *InMemory) Select(ctx context.Context, kind Kind, p scope.Pred, limit int) ([]*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*Item
	for _, it := range s.items[kind] {
		if scope.Eval(p, it) {
			res = append(res, clone(it))
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if ri, rj := res[i].Priority.rank(), res[j].Priority.rank(); ri != rj {
			return ri < rj
		}
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func clone(it *Item) *Item {
	cp := *it
	if it.Audience != nil {
		cp.Audience = append([]string(nil), it.Audience...)
	}
	if it.StartAt != nil {
		t := *it.StartAt
		cp.StartAt = &t
	}
	if it.EndAt != nil {
		t := *it.EndAt
		cp.EndAt = &t
	}
	return &cp
}
