package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"communeo.org/internal/account"
	"communeo.org/internal/ids"
)

const defaultAccessTTL = 12 * time.Hour

// Service turns bearer credentials into caller identities and issues tokens.
// The store is re-read on every authentication so that disabling an account or
// bumping its session version takes effect immediately; nothing is cached
// across requests.
type Service struct {
	store     account.Store
	secret    []byte
	issuer    string
	accessTTL time.Duration
	now       func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithSecret sets the HS256 signing secret.
func WithSecret(secret string) ServiceOption {
	return func(s *Service) {
		if secret = strings.TrimSpace(secret); secret != "" {
			s.secret = []byte(secret)
		}
	}
}

// WithIssuer overrides the token issuer claim.
func WithIssuer(issuer string) ServiceOption {
	return func(s *Service) { s.issuer = strings.TrimSpace(issuer) }
}

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.accessTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the session identity service.
func NewService(store account.Store, opts ...ServiceOption) *Service {
	svc := &Service{
		store:     store,
		issuer:    "communeo",
		accessTTL: defaultAccessTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Login authenticates credentials and issues a token embedding the account's
// current session version. Credential failures are indistinguishable from an
// unknown email.
func (s *Service) Login(ctx context.Context, email, password string) (string, time.Time, Identity, error) {
	email = account.NormalizeEmail(email)
	if email == "" || password == "" {
		return "", time.Time{}, Identity{}, ErrInvalidCredentials
	}
	acc, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return "", time.Time{}, Identity{}, ErrInvalidCredentials
		}
		return "", time.Time{}, Identity{}, err
	}
	if !acc.Active {
		return "", time.Time{}, Identity{}, ErrAccountDisabled
	}
	if err := account.VerifyPassword(acc.PasswordHash, password); err != nil {
		return "", time.Time{}, Identity{}, ErrInvalidCredentials
	}

	version := acc.SessionVersion
	claims := Claims{
		Email:          acc.Email,
		Role:           acc.Role.String(),
		Commune:        acc.CommuneID,
		SessionVersion: &version,
	}
	token, exp, err := s.mintToken(acc.ID, claims, s.now().UTC())
	if err != nil {
		return "", time.Time{}, Identity{}, err
	}
	return token, exp, identityFromAccount(acc, nil), nil
}

// Authenticate resolves a bearer token into an authoritative Identity:
// verify the token, resolve the underlying account (by id when the subject is
// id-shaped, by normalized email otherwise, searching the legacy collection
// through the store), then gate on the active flag and session version. The
// account, not the token, supplies role, commune and email.
func (s *Service) Authenticate(ctx context.Context, token string) (Identity, error) {
	claims, err := s.verifyToken(token)
	if err != nil {
		return Identity{}, err
	}

	acc, err := s.resolveAccount(ctx, claims)
	if err != nil {
		return Identity{}, err
	}
	if !acc.Active {
		return Identity{}, ErrAccountDisabled
	}
	if v, ok := claims.Version(); ok && v != acc.SessionVersion {
		return Identity{}, ErrSessionInvalidated
	}
	return identityFromAccount(acc, claims), nil
}

// RevokeSessions bumps the account's session version, invalidating every
// previously issued token on the next request.
func (s *Service) RevokeSessions(ctx context.Context, accountID string) error {
	_, err := s.store.BumpSessionVersion(ctx, accountID)
	if errors.Is(err, account.ErrNotFound) {
		return ErrAccountNotFound
	}
	return err
}

func (s *Service) resolveAccount(ctx context.Context, claims *Claims) (*account.Account, error) {
	subject := strings.TrimSpace(claims.Subject)
	if ids.Valid(subject) {
		if acc, err := s.store.Find(ctx, subject); err == nil {
			return acc, nil
		} else if !errors.Is(err, account.ErrNotFound) {
			return nil, err
		}
	}
	email := account.NormalizeEmail(claims.Email)
	if email == "" && strings.Contains(subject, "@") {
		email = account.NormalizeEmail(subject)
	}
	if email == "" {
		return nil, ErrAccountNotFound
	}
	acc, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return acc, nil
}

func identityFromAccount(acc *account.Account, claims *Claims) Identity {
	id := Identity{
		ID:             acc.ID,
		Email:          acc.Email,
		Role:           acc.Role,
		CommuneID:      acc.CommuneID,
		CommuneName:    acc.CommuneName,
		Active:         acc.Active,
		SessionVersion: acc.SessionVersion,
	}
	if claims != nil {
		id.Impersonated = claims.Impersonated
		id.OriginalUserID = claims.OriginalUserID
	}
	return id
}
