package httpapi

import (
	"net/http"
	"strings"
	"time"

	"communeo.org/internal/auth"
	"communeo.org/internal/report"
)

type setReportStatusRequest struct {
	Status string `json:"status"`
}

type listReportsResponse struct {
	Items []*report.Report `json:"items"`
	AsOf  time.Time        `json:"asOf"`
}

func (a *API) handleReportsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listReports(w, r)
	case http.MethodPost:
		a.submitReport(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleReportResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/reports/"), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[1] != "status" {
		writeError(w, r, http.StatusNotFound, "not_found", "resource not found")
		return
	}
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, r, http.MethodPatch)
		return
	}
	a.setReportStatus(w, r, parts[0])
}

// submitReport is open to everyone, including anonymous callers: citizens
// report potholes without an account. The reporter identity is attached when
// present.
func (a *API) submitReport(w http.ResponseWriter, r *http.Request) {
	var draft report.Draft
	if err := decodeJSON(w, r, &draft); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	rep, err := a.deps.Reports.Submit(r.Context(), identity, draft)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "report.submit", "report", rep.ID, map[string]string{
		"communeId": rep.CommuneID,
		"category":  rep.Category,
	})
	w.Header().Set("Location", "/v1/reports/"+rep.ID)
	writeJSON(w, http.StatusCreated, rep)
}

func (a *API) listReports(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireIdentity(w, r)
	if !ok {
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	items, err := a.deps.Reports.List(r.Context(), identity, communeHint(r), limit)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if items == nil {
		items = []*report.Report{}
	}
	writeJSON(w, http.StatusOK, listReportsResponse{Items: items, AsOf: time.Now().UTC()})
}

func (a *API) setReportStatus(w http.ResponseWriter, r *http.Request, id string) {
	identity, ok := a.requireIdentity(w, r)
	if !ok {
		return
	}
	var req setReportStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	status, err := report.ParseStatus(req.Status)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	rep, err := a.deps.Reports.UpdateStatus(r.Context(), identity, id, status)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "report.set_status", "report", id, map[string]string{
		"status": string(status),
	})
	writeJSON(w, http.StatusOK, rep)
}
