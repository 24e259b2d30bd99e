package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"communeo.org/internal/account"
	"communeo.org/internal/scope"
)

type createAccountRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	CommuneID string `json:"communeId"`
}

type setStatusRequest struct {
	Active bool `json:"active"`
}

func (a *API) handleAccountsCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	caller, ok := a.requireRole(w, r, scope.RoleSuperadmin)
	if !ok {
		return
	}
	var req createAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	role, err := scope.ParseRole(req.Role)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	if len(req.Password) < 8 {
		writeError(w, r, http.StatusBadRequest, "invalid_input", "password must be at least 8 characters")
		return
	}
	communeID := ""
	communeName := ""
	if role == scope.RoleAdmin {
		slug := a.deps.Resolver.PreferSlug(r.Context(), req.CommuneID)
		if slug == "" {
			writeError(w, r, http.StatusBadRequest, "scope_missing", "admin accounts require a communeId")
			return
		}
		communeID = slug
		if c, err := a.deps.Communes.FindByReference(r.Context(), slug); err == nil {
			communeName = c.Name
		}
	}

	hash, err := account.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	acc := &account.Account{
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		CommuneID:    communeID,
		CommuneName:  communeName,
		Active:       true,
	}
	if err := a.deps.Accounts.Create(r.Context(), acc); err != nil {
		handleDomainError(w, r, err)
		return
	}

	a.audit(r.Context(), "account.create", "account", acc.ID, map[string]string{
		"role":       role.String(),
		"communeId":  communeID,
		"created_by": caller.ID,
	})
	w.Header().Set("Location", "/v1/accounts/"+acc.ID)
	writeJSON(w, http.StatusCreated, acc)
}

func (a *API) handleAccountResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/accounts/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "not_found", "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 2 && parts[1] == "revoke-sessions":
		a.revokeSessions(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "status":
		a.setAccountStatus(w, r, parts[0])
	default:
		writeError(w, r, http.StatusNotFound, "not_found", "resource not found")
	}
}

// revokeSessions force-logs-out every session of the account. Callers may
// revoke their own sessions; revoking someone else's requires superadmin.
func (a *API) revokeSessions(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	caller, ok := a.requireIdentity(w, r)
	if !ok {
		return
	}
	if caller.ID != id && caller.Role != scope.RoleSuperadmin {
		writeError(w, r, http.StatusForbidden, "forbidden", "operation not allowed")
		return
	}
	if err := a.deps.Auth.RevokeSessions(r.Context(), id); err != nil {
		writeAuthError(w, r, err)
		return
	}
	a.audit(r.Context(), "account.revoke_sessions", "account", id, nil)
	writeJSON(w, http.StatusOK, map[string]any{"status": "revoked"})
}

func (a *API) setAccountStatus(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, r, http.MethodPatch)
		return
	}
	if _, ok := a.requireRole(w, r, scope.RoleSuperadmin); !ok {
		return
	}
	var req setStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	if err := a.deps.Accounts.SetActive(r.Context(), id, req.Active); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "account.set_status", "account", id, map[string]string{
		"active": strconv.FormatBool(req.Active),
	})
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "active": req.Active})
}
