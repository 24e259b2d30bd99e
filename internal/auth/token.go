package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the token payload. Role, commune and email are informational
// caches only — authentication always re-reads the account. SessionVersion is
// the forced-logout counter; tokenVersion is the name older deployments wrote
// the same claim under, and both are honored on verification.
type Claims struct {
	jwt.RegisteredClaims
	Email          string `json:"email,omitempty"`
	Role           string `json:"role,omitempty"`
	Commune        string `json:"communeId,omitempty"`
	SessionVersion *int64 `json:"sessionVersion,omitempty"`
	TokenVersion   *int64 `json:"tokenVersion,omitempty"`
	Impersonated   bool   `json:"impersonated,omitempty"`
	OriginalUserID string `json:"originalUserId,omitempty"`
}

// Version returns the session version claim under either name. The modern
// name wins when both are present.
func (c *Claims) Version() (int64, bool) {
	if c.SessionVersion != nil {
		return *c.SessionVersion, true
	}
	if c.TokenVersion != nil {
		return *c.TokenVersion, true
	}
	return 0, false
}

func (s *Service) mintToken(subject string, claims Claims, now time.Time) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, ErrMissingSecret
	}
	expiresAt := now.Add(s.accessTTL)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (s *Service) verifyToken(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}
	if len(s.secret) == 0 {
		return nil, ErrMissingSecret
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return s.secret, nil
		},
		jwt.WithTimeFunc(s.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
