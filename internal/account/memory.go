package account

import (
	"context"
	"sync"
	"time"

	"communeo.org/internal/ids"
)

// InMemory implements Store with two maps mirroring the primary and legacy
// collections. Used by tests and DSN-less development mode.
type InMemory struct {
	mu      sync.RWMutex
	primary map[string]*Account
	legacy  map[string]*Account
}

var _ Store = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{
		primary: make(map[string]*Account),
		legacy:  make(map[string]*Account),
	}
}

// AddLegacy seeds an account into the legacy collection.
func (s *InMemory) AddLegacy(a *Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = ids.New()
	}
	a.Email = NormalizeEmail(a.Email)
	a.Legacy = true
	cp := *a
	s.legacy[a.ID] = &cp
}

func (s *InMemory) Create(ctx context.Context, a *Account) error {
	if a == nil || NormalizeEmail(a.Email) == "" {
		return ErrInvalidInput
	}
	a.Email = NormalizeEmail(a.Email)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.primary {
		if existing.Email == a.Email {
			return ErrAlreadyExists
		}
	}
	if a.ID == "" {
		a.ID = ids.New()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	cp := *a
	s.primary[a.ID] = &cp
	return nil
}

func (s *InMemory) Find(ctx context.Context, id string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.primary[id]; ok {
		cp := *a
		return &cp, nil
	}
	if a, ok := s.legacy[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (s *InMemory) FindByEmail(ctx context.Context, email string) (*Account, error) {
	email = NormalizeEmail(email)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.primary {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	for _, a := range s.legacy {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemory) SetActive(ctx context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.locate(id)
	if a == nil {
		return ErrNotFound
	}
	a.Active = active
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemory) BumpSessionVersion(ctx context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.locate(id)
	if a == nil {
		return 0, ErrNotFound
	}
	a.SessionVersion++
	a.UpdatedAt = time.Now().UTC()
	return a.SessionVersion, nil
}

func (s *InMemory) locate(id string) *Account {
	if a, ok := s.primary[id]; ok {
		return a
	}
	if a, ok := s.legacy[id]; ok {
		return a
	}
	return nil
}
