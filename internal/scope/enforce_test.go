package scope

import (
	"errors"
	"testing"
)

func adminCaller() Caller {
	return Caller{
		ID:          "acc-admin",
		Role:        RoleAdmin,
		CommuneKeys: []string{"koungou", "01HZXC00000000000000000004"},
		CommuneSlug: "koungou",
	}
}

func TestAuthorizeCreateSuperadmin(t *testing.T) {
	root := Caller{ID: "acc-root", Role: RoleSuperadmin}

	d := Draft{Visibility: VisibilityLocal, CommuneID: "sada", Audience: []string{"stale"}}
	if err := AuthorizeCreate(root, &d); err != nil {
		t.Fatalf("local create: %v", err)
	}
	if d.Audience != nil {
		t.Fatalf("expected audience cleared for local, got %v", d.Audience)
	}

	d = Draft{Visibility: VisibilityLocal}
	if err := AuthorizeCreate(root, &d); !errors.Is(err, ErrScopeMissing) {
		t.Fatalf("expected ErrScopeMissing for local without commune, got %v", err)
	}

	d = Draft{Visibility: VisibilityCustom}
	if err := AuthorizeCreate(root, &d); !errors.Is(err, ErrScopeMissing) {
		t.Fatalf("expected ErrScopeMissing for custom without audience, got %v", err)
	}

	d = Draft{Visibility: VisibilityGlobal, CommuneID: "koungou", Audience: []string{"sada"}}
	if err := AuthorizeCreate(root, &d); err != nil {
		t.Fatalf("global create: %v", err)
	}
	if d.CommuneID != "" || d.Audience != nil {
		t.Fatalf("expected scope fields cleared for global, got %+v", d)
	}
}

func TestAuthorizeCreateAdmin(t *testing.T) {
	c := adminCaller()

	// Omitted commune inherits the caller's own.
	d := Draft{Visibility: VisibilityLocal}
	if err := AuthorizeCreate(c, &d); err != nil {
		t.Fatalf("implicit commune: %v", err)
	}
	if d.CommuneID != "koungou" {
		t.Fatalf("expected caller commune, got %q", d.CommuneID)
	}

	// Explicit commune is accepted in any key form, written canonically.
	d = Draft{Visibility: VisibilityLocal, CommuneID: "01HZXC00000000000000000004"}
	if err := AuthorizeCreate(c, &d); err != nil {
		t.Fatalf("own commune by id: %v", err)
	}
	if d.CommuneID != "koungou" {
		t.Fatalf("expected canonical slug, got %q", d.CommuneID)
	}

	// Another commune, non-local visibility and audience sets are rejected.
	for name, d := range map[string]Draft{
		"other commune": {Visibility: VisibilityLocal, CommuneID: "dembeni"},
		"global":        {Visibility: VisibilityGlobal},
		"custom":        {Visibility: VisibilityCustom, Audience: []string{"koungou"}},
		"audience":      {Visibility: VisibilityLocal, Audience: []string{"koungou"}},
	} {
		draft := d
		if err := AuthorizeCreate(c, &draft); !errors.Is(err, ErrForbidden) {
			t.Fatalf("%s: expected ErrForbidden, got %v", name, err)
		}
	}

	// An admin with no assigned commune is misconfigured.
	unassigned := Caller{ID: "acc-x", Role: RoleAdmin}
	d = Draft{Visibility: VisibilityLocal}
	if err := AuthorizeCreate(unassigned, &d); !errors.Is(err, ErrScopeMissing) {
		t.Fatalf("expected ErrScopeMissing, got %v", err)
	}
}

func TestAuthorizeCreateLesserRoles(t *testing.T) {
	for _, role := range []Role{RolePublic, RoleUser} {
		d := Draft{Visibility: VisibilityLocal, CommuneID: "koungou"}
		err := AuthorizeCreate(Caller{ID: "acc-u", Role: role}, &d)
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("role %v: expected ErrForbidden, got %v", role, err)
		}
	}
}

func TestAuthorizeMutate(t *testing.T) {
	c := adminCaller()
	own := Record{AuthorID: "acc-admin", Visibility: VisibilityLocal, CommuneID: "koungou"}

	if err := AuthorizeMutate(c, own); err != nil {
		t.Fatalf("own in-scope record: %v", err)
	}

	cases := map[string]Record{
		"foreign author":  {AuthorID: "acc-other", Visibility: VisibilityLocal, CommuneID: "koungou"},
		"missing author":  {Visibility: VisibilityLocal, CommuneID: "koungou"},
		"out of scope":    {AuthorID: "acc-admin", Visibility: VisibilityLocal, CommuneID: "dembeni"},
		"custom no match": {AuthorID: "acc-admin", Visibility: VisibilityCustom, Audience: []string{"sada"}},
	}
	for name, rec := range cases {
		if err := AuthorizeMutate(c, rec); !errors.Is(err, ErrForbidden) {
			t.Fatalf("%s: expected ErrForbidden, got %v", name, err)
		}
	}

	// Legacy id in the record's audience still counts as the admin's scope.
	rec := Record{AuthorID: "acc-admin", Visibility: VisibilityCustom, Audience: []string{"01HZXC00000000000000000004"}}
	if err := AuthorizeMutate(c, rec); err != nil {
		t.Fatalf("legacy audience member: %v", err)
	}

	// Superadmin mutates anything; users mutate nothing.
	root := Caller{ID: "acc-root", Role: RoleSuperadmin}
	if err := AuthorizeMutate(root, cases["foreign author"]); err != nil {
		t.Fatalf("superadmin: %v", err)
	}
	user := Caller{ID: "acc-admin", Role: RoleUser}
	if err := AuthorizeMutate(user, own); !errors.Is(err, ErrForbidden) {
		t.Fatalf("user: expected ErrForbidden, got %v", err)
	}
}
