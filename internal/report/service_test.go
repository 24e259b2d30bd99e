package report

import (
	"context"
	"errors"
	"testing"

	"communeo.org/internal/auth"
	"communeo.org/internal/commune"
	"communeo.org/internal/scope"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	communes := commune.NewInMemory()
	for _, c := range []*commune.Commune{
		{Name: "Koungou", Slug: "koungou", Code: "97610", Active: true},
		{Name: "Dembéni", Slug: "dembeni", Code: "97660", Active: true},
	} {
		if err := communes.Create(context.Background(), c); err != nil {
			t.Fatalf("seed commune: %v", err)
		}
	}
	return NewService(NewInMemory(), commune.NewResolver(communes))
}

func koungouAdmin() auth.Identity {
	return auth.Identity{ID: "acc-admin", Role: scope.RoleAdmin, CommuneID: "koungou", Active: true}
}

func TestSubmitCanonicalizesCommune(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	r, err := svc.Submit(ctx, auth.Identity{}, Draft{CommuneID: "Dembéni", Category: "voirie"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if r.CommuneID != "dembeni" || r.Status != StatusOpen {
		t.Fatalf("unexpected report: %+v", r)
	}
	if r.ReporterID != "" {
		t.Fatalf("anonymous report must not carry a reporter, got %q", r.ReporterID)
	}

	if _, err := svc.Submit(ctx, auth.Identity{}, Draft{Category: "voirie"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without commune, got %v", err)
	}
	if _, err := svc.Submit(ctx, auth.Identity{}, Draft{CommuneID: "koungou"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without category, got %v", err)
	}
}

func TestListScopes(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, communeID := range []string{"koungou", "dembeni", "koungou"} {
		if _, err := svc.Submit(ctx, auth.Identity{}, Draft{CommuneID: communeID, Category: "voirie"}); err != nil {
			t.Fatalf("seed report: %v", err)
		}
	}

	// Plain callers cannot read the triage queue at all.
	if _, err := svc.List(ctx, auth.Identity{ID: "u", Role: scope.RoleUser}, "", 0); !errors.Is(err, scope.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// Admins are pinned to their own commune, whatever hint they pass.
	items, err := svc.List(ctx, koungouAdmin(), "dembeni", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 koungou reports, got %d", len(items))
	}
	for _, r := range items {
		if r.CommuneID != "koungou" {
			t.Fatalf("leaked report from %q", r.CommuneID)
		}
	}

	// An admin without an assigned commune is misconfigured.
	orphan := auth.Identity{ID: "acc-x", Role: scope.RoleAdmin}
	if _, err := svc.List(ctx, orphan, "", 0); !errors.Is(err, scope.ErrScopeMissing) {
		t.Fatalf("expected ErrScopeMissing, got %v", err)
	}

	// Superadmins see everything, or narrow by hint.
	root := auth.Identity{ID: "acc-root", Role: scope.RoleSuperadmin}
	items, err = svc.List(ctx, root, "", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected all reports, got %d", len(items))
	}
	items, err = svc.List(ctx, root, "Dembéni", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 dembeni report, got %d", len(items))
	}
}

func TestUpdateStatusCrossCommuneMasked(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	r, err := svc.Submit(ctx, auth.Identity{}, Draft{CommuneID: "dembeni", Category: "voirie"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, koungouAdmin(), r.ID, StatusResolved); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for cross-commune triage, got %v", err)
	}

	dembeniAdmin := auth.Identity{ID: "acc-d", Role: scope.RoleAdmin, CommuneID: "Dembéni", Active: true}
	updated, err := svc.UpdateStatus(ctx, dembeniAdmin, r.ID, StatusInProgress)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != StatusInProgress {
		t.Fatalf("unexpected status: %v", updated.Status)
	}
}

func TestParseStatus(t *testing.T) {
	if _, err := ParseStatus("closed"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	s, err := ParseStatus(" Resolved ")
	if err != nil {
		t.Fatalf("ParseStatus: %v", err)
	}
	if s != StatusResolved {
		t.Fatalf("expected resolved, got %v", s)
	}
}
