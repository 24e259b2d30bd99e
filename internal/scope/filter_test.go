package scope

import (
	"testing"
	"time"
)

// doc is a minimal Doc for evaluator tests.
type doc struct {
	strs     map[string]string
	sets     map[string][]string
	instants map[string]time.Time
}

func (d doc) Str(field string) string   { return d.strs[field] }
func (d doc) Set(field string) []string { return d.sets[field] }
func (d doc) Instant(field string) (time.Time, bool) {
	t, ok := d.instants[field]
	return t, ok
}

func localDoc(communeID string) doc {
	return doc{strs: map[string]string{
		FieldVisibility: string(VisibilityLocal),
		FieldCommuneID:  communeID,
	}}
}

func globalDoc() doc {
	return doc{strs: map[string]string{FieldVisibility: string(VisibilityGlobal)}}
}

func customDoc(audience ...string) doc {
	return doc{
		strs: map[string]string{FieldVisibility: string(VisibilityCustom)},
		sets: map[string][]string{FieldAudience: audience},
	}
}

func TestVisibilityFilterMatchesScopedContent(t *testing.T) {
	now := time.Now().UTC()
	keys := []string{"koungou", "01HZXC00000000000000000004"}
	pred := VisibilityFilter(keys, RoleUser, false, now)

	cases := []struct {
		name string
		d    Doc
		want bool
	}{
		{name: "global always visible", d: globalDoc(), want: true},
		{name: "local by slug", d: localDoc("koungou"), want: true},
		{name: "local by legacy id", d: localDoc("01HZXC00000000000000000004"), want: true},
		{name: "local other commune", d: localDoc("dembeni"), want: false},
		{name: "custom includes commune", d: customDoc("sada", "koungou"), want: true},
		{name: "custom excludes commune", d: customDoc("sada", "dembeni"), want: false},
		{name: "custom empty audience", d: customDoc(), want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Eval(pred, tc.d); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestVisibilityFilterWithoutCommuneContext(t *testing.T) {
	now := time.Now().UTC()

	// Ordinary callers without a selected commune see global content only.
	pred := VisibilityFilter(nil, RoleUser, false, now)
	if !Eval(pred, globalDoc()) {
		t.Fatal("expected global content visible")
	}
	if Eval(pred, localDoc("koungou")) {
		t.Fatal("expected local content hidden without commune context")
	}
	if Eval(pred, customDoc("koungou")) {
		t.Fatal("expected custom content hidden without commune context")
	}

	// A superadmin without commune context bypasses the commune clause.
	pred = VisibilityFilter(nil, RoleSuperadmin, false, now)
	if pred != nil {
		t.Fatalf("expected nil predicate for superadmin, got %#v", pred)
	}
	if !Eval(pred, localDoc("koungou")) || !Eval(pred, customDoc("x")) {
		t.Fatal("expected nil predicate to match everything")
	}

	// A superadmin with a hint narrows like everyone else.
	pred = VisibilityFilter([]string{"dembeni"}, RoleSuperadmin, false, now)
	if Eval(pred, localDoc("koungou")) {
		t.Fatal("expected hint to narrow superadmin reads")
	}
	if !Eval(pred, localDoc("dembeni")) {
		t.Fatal("expected hinted commune visible")
	}
}

func TestVisibilityFilterEnforcesWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	scheduled := doc{
		strs:     map[string]string{FieldVisibility: string(VisibilityGlobal)},
		instants: map[string]time.Time{FieldStartAt: future},
	}
	expired := doc{
		strs:     map[string]string{FieldVisibility: string(VisibilityGlobal)},
		instants: map[string]time.Time{FieldEndAt: past},
	}
	running := doc{
		strs:     map[string]string{FieldVisibility: string(VisibilityGlobal)},
		instants: map[string]time.Time{FieldStartAt: past, FieldEndAt: future},
	}

	enforced := VisibilityFilter(nil, RolePublic, true, now)
	if Eval(enforced, scheduled) {
		t.Fatal("scheduled content should be hidden")
	}
	if Eval(enforced, expired) {
		t.Fatal("expired content should be hidden")
	}
	if !Eval(enforced, running) {
		t.Fatal("running content should be visible")
	}

	// Window disabled: the panel sees everything in scope.
	panel := VisibilityFilter(nil, RolePublic, false, now)
	if !Eval(panel, scheduled) || !Eval(panel, expired) {
		t.Fatal("expected window ignored when not enforced")
	}

	// Superadmin without context still gets the window when enforced.
	rootPublicFeed := VisibilityFilter(nil, RoleSuperadmin, true, now)
	if Eval(rootPublicFeed, scheduled) {
		t.Fatal("expected window applied to superadmin feed")
	}
}

func TestEvalEmptyAndUnknownNodes(t *testing.T) {
	d := globalDoc()
	if !Eval(And{}, d) {
		t.Fatal("empty And must match")
	}
	if Eval(Or{}, d) {
		t.Fatal("empty Or must not match")
	}
	if Eval(In{Field: FieldCommuneID}, d) {
		t.Fatal("empty In must not match")
	}
	if !Eval(nil, d) {
		t.Fatal("nil predicate must match")
	}
}
