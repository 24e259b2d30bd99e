package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"communeo.org/internal/auth"
	"communeo.org/internal/scope"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// withAuth resolves the bearer token into the caller identity. Authentication
// is optional: a request without a token proceeds as a public caller, but a
// request that presents a token must present a valid one — each rejection path
// keeps its own reason code so clients can distinguish "log in again" from
// "account disabled".
func (a *API) withAuth(next http.Handler) http.Handler {
	if a == nil || a.deps.Auth == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		header := strings.TrimSpace(r.Header.Get(authHeader))
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(header)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "missing_token", err.Error())
			return
		}

		identity, err := a.deps.Auth.Authenticate(r.Context(), token)
		if err != nil {
			writeAuthError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.ContextWithIdentity(r.Context(), identity)))
	})
}

func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		writeError(w, r, http.StatusUnauthorized, "missing_token", "missing bearer token")
	case errors.Is(err, auth.ErrExpiredToken):
		writeError(w, r, http.StatusUnauthorized, "token_expired", "token expired")
	case errors.Is(err, auth.ErrInvalidToken):
		writeError(w, r, http.StatusUnauthorized, "invalid_token", "invalid token")
	case errors.Is(err, auth.ErrAccountNotFound):
		writeError(w, r, http.StatusUnauthorized, "account_not_found", "account no longer exists")
	case errors.Is(err, auth.ErrAccountDisabled):
		writeError(w, r, http.StatusForbidden, "account_disabled", "account is disabled")
	case errors.Is(err, auth.ErrSessionInvalidated):
		writeError(w, r, http.StatusUnauthorized, "session_revoked", "session has been revoked, log in again")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal", "authentication error")
	}
}

// requireIdentity returns the caller identity or writes a 401.
func (a *API) requireIdentity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok || !id.Authenticated() {
		writeError(w, r, http.StatusUnauthorized, "missing_token", "authentication required")
		return auth.Identity{}, false
	}
	return id, true
}

// requireRole returns the caller identity when it holds at least min.
func (a *API) requireRole(w http.ResponseWriter, r *http.Request, min scope.Role) (auth.Identity, bool) {
	id, ok := a.requireIdentity(w, r)
	if !ok {
		return auth.Identity{}, false
	}
	if !id.Role.AtLeast(min) {
		writeError(w, r, http.StatusForbidden, "forbidden", "insufficient role")
		return auth.Identity{}, false
	}
	return id, true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
