package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"communeo.org/internal/scope"
)

var (
	ErrNotFound      = errors.New("account: not found")
	ErrAlreadyExists = errors.New("account: already exists")
	ErrInvalidInput  = errors.New("account: invalid input")
)

// Account is a persisted user or admin identity. SessionVersion increments on
// forced logout; every token minted before the bump becomes invalid because
// authentication re-reads the stored version on each request. Legacy marks
// rows that still live in the old admin collection.
type Account struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	Role           scope.Role `json:"role"`
	CommuneID      string     `json:"communeId,omitempty"`
	CommuneName    string     `json:"communeName,omitempty"`
	Active         bool       `json:"active"`
	SessionVersion int64      `json:"-"`
	Legacy         bool       `json:"-"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Store is the persistence surface for accounts. Lookups search the primary
// collection first and fall back to the legacy admin collection, so callers
// see one logical namespace.
type Store interface {
	Create(ctx context.Context, a *Account) error
	Find(ctx context.Context, id string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	SetActive(ctx context.Context, id string, active bool) error
	// BumpSessionVersion increments and returns the stored session version,
	// invalidating all previously issued tokens at once.
	BumpSessionVersion(ctx context.Context, id string) (int64, error)
}

// NormalizeEmail trims and lowercases an email for lookup and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
