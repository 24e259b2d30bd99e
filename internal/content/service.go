package content

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

// Service implements the shared read/write semantics of every content kind:
// commune resolution, visibility filtering, window enforcement and write
// authorization are identical across articles, notifications, infos and
// projects; handlers differ only in the Kind they pass.
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

// Draft is the write payload shared by create and update.
type Draft struct {
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	MediaURL   string     `json:"mediaUrl"`
	Visibility string     `json:"visibility"`
	CommuneID  string     `json:"communeId"`
	Audience   []string   `json:"audienceCommunes"`
	Priority   string     `json:"priority"`
	StartAt    *time.Time `json:"startAt"`
	EndAt      *time.Time `json:"endAt"`
}

// List returns the items of one kind visible to the caller. communeRef is the
// request's commune hint; admins fall back to their assigned commune when the
// hint is absent. The display window applies to public and plain-user callers
// only — panel callers see inactive content for editing.
func (s *Service) List(ctx context.Context, caller auth.Identity, kind Kind, communeRef string, limit int) ([]*Item, error) {
	if limit <= 0 || limit > 1000 {
		limit = defaultListLimit
	}
	ref := strings.TrimSpace(communeRef)
	if ref == "" && caller.Role == scope.RoleAdmin {
		ref = caller.CommuneID
	}
	keys := s.resolver.MatchKeys(ctx, ref)
	enforceWindow := !caller.Role.AtLeast(scope.RoleAdmin)
	pred := scope.VisibilityFilter(keys, caller.Role, enforceWindow, s.now().UTC())
	return s.store.Select(ctx, kind, pred, limit)
}

// Get returns a single item if the caller's scope can see it. A scope mismatch
// reports not-found, never forbidden, so existence is not confirmed to
// unauthorized viewers.
func (s *Service) Get(ctx context.Context, caller auth.Identity, kind Kind, id, communeRef string) (*Item, error) {
	it, err := s.store.Find(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	ref := strings.TrimSpace(communeRef)
	if caller.Role.AtLeast(scope.RoleAdmin) {
		ref = caller.CommuneID
	}
	keys := s.resolver.MatchKeys(ctx, ref)
	enforceWindow := !caller.Role.AtLeast(scope.RoleAdmin)
	pred := scope.VisibilityFilter(keys, caller.Role, enforceWindow, s.now().UTC())
	if !scope.Eval(pred, it) {
		return nil, ErrNotFound
	}
	return it, nil
}

// Create validates and authorizes a draft, canonicalizes its commune
// references and persists a new item authored by the caller.
func (s *Service) Create(ctx context.Context, caller auth.Identity, kind Kind, d Draft) (*Item, error) {
	it, err := s.buildItem(ctx, caller, kind, d)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	it.ID = ids.New()
	it.AuthorID = caller.ID
	it.AuthorEmail = caller.Email
	it.CreatedAt = now
	it.UpdatedAt = now
	if err := s.store.Insert(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// Update authorizes the mutation against the existing record, then re-runs the
// create rules on the replacement scope fields so a caller can never elevate a
// record's visibility beyond what their role may create.
func (s *Service) Update(ctx context.Context, caller auth.Identity, kind Kind, id string, d Draft) (*Item, error) {
	existing, err := s.store.Find(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if err := scope.AuthorizeMutate(s.callerScope(ctx, caller), record(existing)); err != nil {
		return nil, err
	}
	it, err := s.buildItem(ctx, caller, kind, d)
	if err != nil {
		return nil, err
	}
	it.ID = existing.ID
	it.AuthorID = existing.AuthorID
	it.AuthorEmail = existing.AuthorEmail
	it.CreatedAt = existing.CreatedAt
	it.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// Delete removes an item permanently under the same ownership rules as Update.
func (s *Service) Delete(ctx context.Context, caller auth.Identity, kind Kind, id string) error {
	existing, err := s.store.Find(ctx, kind, id)
	if err != nil {
		return err
	}
	if err := scope.AuthorizeMutate(s.callerScope(ctx, caller), record(existing)); err != nil {
		return err
	}
	return s.store.Delete(ctx, kind, id)
}

// buildItem validates the draft and applies the create-side scope rules.
func (s *Service) buildItem(ctx context.Context, caller auth.Identity, kind Kind, d Draft) (*Item, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", ErrInvalidInput)
	}
	if d.StartAt != nil && d.EndAt != nil && d.EndAt.Before(*d.StartAt) {
		return nil, fmt.Errorf("endAt precedes startAt: %w", ErrInvalidInput)
	}
	visibility := scope.VisibilityLocal
	if strings.TrimSpace(d.Visibility) != "" {
		var err error
		visibility, err = scope.ParseVisibility(d.Visibility)
		if err != nil {
			return nil, err
		}
	}
	priority, err := ParsePriority(d.Priority)
	if err != nil {
		return nil, err
	}

	draft := scope.Draft{
		Visibility: visibility,
		CommuneID:  s.resolver.PreferSlug(ctx, d.CommuneID),
		Audience:   s.canonicalAudience(ctx, d.Audience),
	}
	if err := scope.AuthorizeCreate(s.callerScope(ctx, caller), &draft); err != nil {
		return nil, err
	}

	return &Item{
		Kind:       kind,
		Title:      title,
		Body:       d.Body,
		MediaURL:   strings.TrimSpace(d.MediaURL),
		Visibility: draft.Visibility,
		CommuneID:  draft.CommuneID,
		Audience:   draft.Audience,
		Priority:   priority,
		StartAt:    d.StartAt,
		EndAt:      d.EndAt,
	}, nil
}

// callerScope resolves the caller's assigned commune into the key set and
// canonical slug the enforcer compares against.
func (s *Service) callerScope(ctx context.Context, caller auth.Identity) scope.Caller {
	c := scope.Caller{ID: caller.ID, Role: caller.Role}
	if strings.TrimSpace(caller.CommuneID) != "" {
		c.CommuneKeys = s.resolver.MatchKeys(ctx, caller.CommuneID)
		c.CommuneSlug = s.resolver.PreferSlug(ctx, caller.CommuneID)
	}
	return c
}

func (s *Service) canonicalAudience(ctx context.Context, refs []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		slug := s.resolver.PreferSlug(ctx, ref)
		if slug == "" {
			continue
		}
		if _, ok := seen[slug]; ok {
			continue
		}
		seen[slug] = struct{}{}
		out = append(out, slug)
	}
	return out
}

func record(it *Item) scope.Record {
	return scope.Record{
		AuthorID:   it.AuthorID,
		Visibility: it.Visibility,
		CommuneID:  it.CommuneID,
		Audience:   it.Audience,
	}
}
