package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"communeo.org/internal/auth"
	"communeo.org/internal/commune"
	"communeo.org/internal/ids"
	"communeo.org/internal/scope"
)

const defaultListLimit = 100

// Service handles incident report submission and triage. Submission is open
// to everyone; reading and triage are panel operations scoped to the admin's
// commune.
type Service struct {
	store    Store
	resolver *commune.Resolver
	now      func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

func NewService(store Store, resolver *commune.Resolver, opts ...ServiceOption) *Service {
	svc := &Service{store: store, resolver: resolver, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Draft is the submission payload.
type Draft struct {
	CommuneID   string `json:"communeId"`
	Category    string `json:"category"`
	Description string `json:"description"`
	MediaURL    string `json:"mediaUrl"`
}

// Submit records a new incident. The commune reference is required and is
// written in its canonical form.
func (s *Service) Submit(ctx context.Context, caller auth.Identity, d Draft) (*Report, error) {
	category := strings.TrimSpace(d.Category)
	if category == "" {
		return nil, fmt.Errorf("category is required: %w", ErrInvalidInput)
	}
	slug := s.resolver.PreferSlug(ctx, d.CommuneID)
	if slug == "" {
		return nil, fmt.Errorf("communeId is required: %w", ErrInvalidInput)
	}
	now := s.now().UTC()
	r := &Report{
		ID:            ids.New(),
		CommuneID:     slug,
		Category:      category,
		Description:   strings.TrimSpace(d.Description),
		MediaURL:      strings.TrimSpace(d.MediaURL),
		Status:        StatusOpen,
		ReporterID:    caller.ID,
		ReporterEmail: caller.Email,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Insert(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// List returns reports for the panel. Admins always see their own commune;
// superadmins see everything unless they pass a commune hint.
func (s *Service) List(ctx context.Context, caller auth.Identity, communeRef string, limit int) ([]*Report, error) {
	if !caller.Role.AtLeast(scope.RoleAdmin) {
		return nil, scope.ErrForbidden
	}
	if limit <= 0 || limit > 1000 {
		limit = defaultListLimit
	}
	var keys []string
	switch caller.Role {
	case scope.RoleSuperadmin:
		if ref := strings.TrimSpace(communeRef); ref != "" {
			keys = s.resolver.MatchKeys(ctx, ref)
		}
	default:
		if strings.TrimSpace(caller.CommuneID) == "" {
			return nil, scope.ErrScopeMissing
		}
		keys = s.resolver.MatchKeys(ctx, caller.CommuneID)
	}
	return s.store.List(ctx, keys, limit)
}

// UpdateStatus moves a report through triage. Admins may only touch reports
// of their own commune; a mismatch reports not-found.
func (s *Service) UpdateStatus(ctx context.Context, caller auth.Identity, id string, status Status) (*Report, error) {
	if !caller.Role.AtLeast(scope.RoleAdmin) {
		return nil, scope.ErrForbidden
	}
	r, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role != scope.RoleSuperadmin {
		keys := s.resolver.MatchKeys(ctx, caller.CommuneID)
		if !keyMatch(keys, r.CommuneID) {
			return nil, ErrNotFound
		}
	}
	now := s.now().UTC()
	if err := s.store.SetStatus(ctx, id, status, now); err != nil {
		return nil, err
	}
	r.Status = status
	r.UpdatedAt = now
	return r, nil
}

func keyMatch(keys []string, value string) bool {
	for _, k := range keys {
		if k == value {
			return true
		}
	}
	return false
}
