package httpapi

import (
	"net/http"
	"strings"
	"time"

	"communeo.org/internal/auth"
	"communeo.org/internal/content"
	"communeo.org/internal/scope"
)

type listItemsResponse struct {
	Items []*content.Item `json:"items"`
	AsOf  time.Time       `json:"asOf"`
}

func (a *API) handleContentCollection(w http.ResponseWriter, r *http.Request, kind content.Kind) {
	switch r.Method {
	case http.MethodGet:
		a.listContent(w, r, kind)
	case http.MethodPost:
		a.createContent(w, r, kind)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleContentResource(w http.ResponseWriter, r *http.Request, prefix string, kind content.Kind) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "not_found", "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getContent(w, r, kind, id)
	case http.MethodPut:
		a.updateContent(w, r, kind, id)
	case http.MethodDelete:
		a.deleteContent(w, r, kind, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) listContent(w http.ResponseWriter, r *http.Request, kind content.Kind) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	items, err := a.deps.Content.List(r.Context(), identity, kind, communeHint(r), limit)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if items == nil {
		items = []*content.Item{}
	}
	writeJSON(w, http.StatusOK, listItemsResponse{Items: items, AsOf: time.Now().UTC()})
}

func (a *API) getContent(w http.ResponseWriter, r *http.Request, kind content.Kind, id string) {
	identity, _ := auth.IdentityFromContext(r.Context())
	it, err := a.deps.Content.Get(r.Context(), identity, kind, id, communeHint(r))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (a *API) createContent(w http.ResponseWriter, r *http.Request, kind content.Kind) {
	identity, ok := a.requireRole(w, r, scope.RoleAdmin)
	if !ok {
		return
	}
	var draft content.Draft
	if err := decodeJSON(w, r, &draft); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	it, err := a.deps.Content.Create(r.Context(), identity, kind, draft)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "content.create", string(kind), it.ID, map[string]string{
		"visibility": string(it.Visibility),
		"communeId":  it.CommuneID,
	})
	w.Header().Set("Location", "/v1/"+string(kind)+"s/"+it.ID)
	writeJSON(w, http.StatusCreated, it)
}

func (a *API) updateContent(w http.ResponseWriter, r *http.Request, kind content.Kind, id string) {
	identity, ok := a.requireRole(w, r, scope.RoleAdmin)
	if !ok {
		return
	}
	var draft content.Draft
	if err := decodeJSON(w, r, &draft); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	it, err := a.deps.Content.Update(r.Context(), identity, kind, id, draft)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "content.update", string(kind), it.ID, map[string]string{
		"visibility": string(it.Visibility),
		"communeId":  it.CommuneID,
	})
	writeJSON(w, http.StatusOK, it)
}

func (a *API) deleteContent(w http.ResponseWriter, r *http.Request, kind content.Kind, id string) {
	identity, ok := a.requireRole(w, r, scope.RoleAdmin)
	if !ok {
		return
	}
	if err := a.deps.Content.Delete(r.Context(), identity, kind, id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "content.delete", string(kind), id, nil)
	w.WriteHeader(http.StatusNoContent)
}
