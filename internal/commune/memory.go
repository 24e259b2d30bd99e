package commune

import (
	"context"
	"strings"
	"sync"
	"time"

	"communeo.org/internal/ids"
)

// InMemory implements Registry with in-process concurrency safety. Used by
// tests and DSN-less development mode.
type InMemory struct {
	mu       sync.RWMutex
	communes map[string]*Commune
}

var _ Registry = (*InMemory)(nil)

// NewInMemory creates an empty registry.
func NewInMemory() *InMemory {
	return &InMemory{communes: make(map[string]*Commune)}
}

func (s *InMemory) Create(ctx context.Context, c *Commune) error {
	if c == nil || strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Slug) == "" {
		return ErrInvalidInput
	}
	c.Slug = Normalize(c.Slug)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.communes {
		if existing.Slug == c.Slug {
			return ErrAlreadyExists
		}
	}
	if c.ID == "" {
		c.ID = ids.New()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	cp := *c
	s.communes[c.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, id string) (*Commune, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.communes[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemory) FindByReference(ctx context.Context, ref string) (*Commune, error) {
	ref = Normalize(ref)
	if ref == "" {
		return nil, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	// Fixed priority: slug, code, name, alternate names.
	match := func(pick func(*Commune) bool) *Commune {
		for _, c := range s.communes {
			if pick(c) {
				return c
			}
		}
		return nil
	}
	c := match(func(c *Commune) bool { return c.Slug == ref })
	if c == nil {
		c = match(func(c *Commune) bool { return c.Code != "" && strings.ToLower(c.Code) == ref })
	}
	if c == nil {
		c = match(func(c *Commune) bool { return strings.ToLower(c.Name) == ref })
	}
	if c == nil {
		c = match(func(c *Commune) bool {
			for _, alt := range c.AltNames {
				if strings.ToLower(alt) == ref {
					return true
				}
			}
			return false
		})
	}
	if c == nil {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemory) List(ctx context.Context) ([]*Commune, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]*Commune, 0, len(s.communes))
	for _, c := range s.communes {
		cp := *c
		res = append(res, &cp)
	}
	return res, nil
}

func (s *InMemory) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.communes[id]; !ok {
		return ErrNotFound
	}
	delete(s.communes, id)
	return nil
}
