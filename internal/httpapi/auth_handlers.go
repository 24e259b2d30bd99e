package httpapi

import (
	"net/http"
	"time"

	"communeo.org/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	Account   auth.Identity `json:"account"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	token, expiresAt, identity, err := a.deps.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}

	a.audit(r.Context(), "auth.login", "account", identity.ID, map[string]string{
		"role": identity.Role.String(),
	})
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Account:   identity,
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	identity, ok := a.requireIdentity(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, identity)
}
