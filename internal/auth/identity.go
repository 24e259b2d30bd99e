package auth

import (
	"context"

	"communeo.org/internal/scope"
)

// Identity is the authoritative caller identity for one request, populated
// from the stored account (not the token's cached claims). The zero value is
// an unauthenticated public caller.
type Identity struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	Role           scope.Role `json:"role"`
	CommuneID      string     `json:"communeId,omitempty"`
	CommuneName    string     `json:"communeName,omitempty"`
	Active         bool       `json:"active"`
	SessionVersion int64      `json:"-"`
	Impersonated   bool       `json:"impersonated,omitempty"`
	OriginalUserID string     `json:"originalUserId,omitempty"`
}

// Authenticated reports whether the identity belongs to a resolved account.
func (id Identity) Authenticated() bool {
	return id.ID != ""
}

type identityContextKey struct{}

// ContextWithIdentity attaches the resolved caller identity to the context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, &id)
}

// IdentityFromContext extracts the caller identity from the context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	v, ok := ctx.Value(identityContextKey{}).(*Identity)
	if !ok || v == nil {
		return Identity{}, false
	}
	return *v, true
}
