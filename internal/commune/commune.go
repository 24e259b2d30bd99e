package commune

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("commune: not found")
	ErrAlreadyExists = errors.New("commune: already exists")
	ErrInvalidInput  = errors.New("commune: invalid input")
)

// Commune is a municipal tenant. The slug is unique, lowercase and the
// canonical key written into scoped content; legacy content may still
// reference a commune by store id, name or code.
type Commune struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Code      string    `json:"code,omitempty"`
	Region    string    `json:"region,omitempty"`
	AltNames  []string  `json:"altNames,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Registry is the persistence surface for the commune catalog.
type Registry interface {
	Create(ctx context.Context, c *Commune) error
	// FindByID looks a commune up by its store identifier.
	FindByID(ctx context.Context, id string) (*Commune, error)
	// FindByReference resolves a normalized (trimmed, lowercased) human
	// reference, matching slug, then code, then name, then alternate names.
	FindByReference(ctx context.Context, ref string) (*Commune, error)
	List(ctx context.Context) ([]*Commune, error)
	Delete(ctx context.Context, id string) error
}

// Normalize trims and lowercases a human-supplied commune reference.
func Normalize(ref string) string {
	return strings.ToLower(strings.TrimSpace(ref))
}
