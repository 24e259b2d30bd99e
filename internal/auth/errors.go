package auth

import "errors"

// Every rejection path of authentication has its own sentinel so handlers can
// surface a stable reason code (force re-login vs. generic error).
var (
	ErrMissingToken       = errors.New("auth: missing token")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrExpiredToken       = errors.New("auth: token expired")
	ErrAccountNotFound    = errors.New("auth: account not found")
	ErrAccountDisabled    = errors.New("auth: account disabled")
	ErrSessionInvalidated = errors.New("auth: session invalidated")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrMissingSecret      = errors.New("auth: signing secret is not configured")
)
