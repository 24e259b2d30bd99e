package commune

import (
	"context"
	"strings"

	"communeo.org/internal/ids"
)

// Resolver maps any human-supplied commune reference (store id, slug, name,
// code) onto the canonical key set used to match stored records. Legacy
// records wrote whichever form the operator typed, so reads must match both
// the slug and the store id, and unknown references fall back to their
// normalized form instead of failing.
type Resolver struct {
	reg Registry
}

func NewResolver(reg Registry) *Resolver {
	return &Resolver{reg: reg}
}

// MatchKeys resolves ref to its candidate match keys: {slug, id} for a known
// commune, a single normalized fallback key otherwise. Empty input yields an
// empty set. Absence is a valid, silent outcome — MatchKeys never errors.
func (r *Resolver) MatchKeys(ctx context.Context, ref string) []string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	if c := r.lookup(ctx, ref); c != nil {
		if c.Slug == c.ID {
			return []string{c.Slug}
		}
		return []string{c.Slug, c.ID}
	}
	return []string{Normalize(ref)}
}

// PreferSlug returns the single canonical value to write into a record: the
// commune's slug when ref is resolvable, the normalized input otherwise.
// Writes converge toward the slug over time while reads keep matching legacy
// forms through MatchKeys.
func (r *Resolver) PreferSlug(ctx context.Context, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if c := r.lookup(ctx, ref); c != nil {
		return c.Slug
	}
	return Normalize(ref)
}

func (r *Resolver) lookup(ctx context.Context, ref string) *Commune {
	if r == nil || r.reg == nil {
		return nil
	}
	if ids.Valid(ref) {
		if c, err := r.reg.FindByID(ctx, ref); err == nil {
			return c
		}
	}
	if c, err := r.reg.FindByReference(ctx, Normalize(ref)); err == nil {
		return c
	}
	return nil
}
