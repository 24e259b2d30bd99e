package httpapi

import (
	"net/http"
	"strings"

	"communeo.org/internal/auth"
	"communeo.org/internal/commune"
	"communeo.org/internal/scope"
)

type createCommuneRequest struct {
	Name     string   `json:"name"`
	Slug     string   `json:"slug"`
	Code     string   `json:"code"`
	Region   string   `json:"region"`
	AltNames []string `json:"altNames"`
}

func (a *API) handleCommunesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listCommunes(w, r)
	case http.MethodPost:
		a.createCommune(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleCommuneResource(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/communes/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "not_found", "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getCommune(w, r, id)
	case http.MethodDelete:
		a.deleteCommune(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
	}
}

// listCommunes is public: the catalog backs the commune picker on the app's
// onboarding screen. Inactive communes stay hidden from anonymous callers.
func (a *API) listCommunes(w http.ResponseWriter, r *http.Request) {
	all, err := a.deps.Communes.List(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	res := make([]*commune.Commune, 0, len(all))
	for _, c := range all {
		if !c.Active && !identity.Role.AtLeast(scope.RoleSuperadmin) {
			continue
		}
		res = append(res, c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": res})
}

func (a *API) getCommune(w http.ResponseWriter, r *http.Request, ref string) {
	c, err := a.deps.Communes.FindByReference(r.Context(), ref)
	if err != nil {
		c, err = a.deps.Communes.FindByID(r.Context(), ref)
	}
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	if !c.Active && !identity.Role.AtLeast(scope.RoleSuperadmin) {
		writeError(w, r, http.StatusNotFound, "not_found", "resource not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) createCommune(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.requireRole(w, r, scope.RoleSuperadmin)
	if !ok {
		return
	}
	var req createCommuneRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	c := &commune.Commune{
		Name:     strings.TrimSpace(req.Name),
		Slug:     req.Slug,
		Code:     strings.TrimSpace(req.Code),
		Region:   strings.TrimSpace(req.Region),
		AltNames: req.AltNames,
		Active:   true,
	}
	if err := a.deps.Communes.Create(r.Context(), c); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "commune.create", "commune", c.ID, map[string]string{
		"slug":       c.Slug,
		"created_by": caller.ID,
	})
	w.Header().Set("Location", "/v1/communes/"+c.ID)
	writeJSON(w, http.StatusCreated, c)
}

func (a *API) deleteCommune(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.requireRole(w, r, scope.RoleSuperadmin); !ok {
		return
	}
	if err := a.deps.Communes.Delete(r.Context(), id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "commune.delete", "commune", id, nil)
	w.WriteHeader(http.StatusNoContent)
}
