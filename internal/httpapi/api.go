package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"communeo.org/internal/account"
	"communeo.org/internal/audit"
	"communeo.org/internal/auth"
	"communeo.org/internal/commune"
	"communeo.org/internal/content"
	"communeo.org/internal/obs"
	"communeo.org/internal/report"
	"communeo.org/internal/scope"
)

// ReadyProbe reports whether the service can serve traffic (e.g. DB ping).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Deps bundles the services the HTTP layer dispatches into.
type Deps struct {
	Auth     *auth.Service
	Content  *content.Service
	Reports  *report.Service
	Communes commune.Registry
	Accounts account.Store
	Resolver *commune.Resolver
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	deps       Deps
	readyProbe ReadyProbe
	version    string

	rateBurst  int
	ratePerSec int
	maxBody    int64
}

// Option tunes the API construction.
type Option func(*API)

// WithRateLimit overrides the per-IP token bucket parameters.
func WithRateLimit(burst, perSecond int) Option {
	return func(a *API) {
		if burst > 0 && perSecond > 0 {
			a.rateBurst = burst
			a.ratePerSec = perSecond
		}
	}
}

func New(deps Deps, rp ReadyProbe, version string, opts ...Option) *API {
	a := &API{
		mux:        http.NewServeMux(),
		deps:       deps,
		readyProbe: rp,
		version:    version,
		rateBurst:  50,
		ratePerSec: 25,
		maxBody:    1 << 20,
	}
	for _, opt := range opts {
		opt(a)
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// auth
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/auth/me", a.handleMe)

	// scoped content kinds share one handler pair
	a.registerKind("/v1/articles", content.KindArticle)
	a.registerKind("/v1/notifications", content.KindNotification)
	a.registerKind("/v1/infos", content.KindInfo)
	a.registerKind("/v1/projects", content.KindProject)

	// commune catalog
	a.mux.HandleFunc("/v1/communes", a.handleCommunesCollection)
	a.mux.HandleFunc("/v1/communes/", a.handleCommuneResource)

	// accounts
	a.mux.HandleFunc("/v1/accounts", a.handleAccountsCollection)
	a.mux.HandleFunc("/v1/accounts/", a.handleAccountResource)

	// incident reports
	a.mux.HandleFunc("/v1/reports", a.handleReportsCollection)
	a.mux.HandleFunc("/v1/reports/", a.handleReportResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

func (a *API) registerKind(path string, kind content.Kind) {
	a.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		a.handleContentCollection(w, r, kind)
	})
	a.mux.HandleFunc(path+"/", func(w http.ResponseWriter, r *http.Request) {
		a.handleContentResource(w, r, path+"/", kind)
	})
}

// Handler composes the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, a.maxBody)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "communeo-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "communeo-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// communeHint extracts the request's commune reference: header first, query
// parameter second. An unknown reference is not an error, it simply resolves
// to its normalized fallback key downstream.
func communeHint(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("X-Commune-Id")); v != "" {
		return v
	}
	return strings.TrimSpace(r.URL.Query().Get("communeId"))
}

func (a *API) audit(ctx context.Context, event, entity, id string, meta map[string]string) {
	fields := map[string]any{
		"entity":    entity,
		"entity_id": id,
	}
	for k, v := range meta {
		fields[k] = v
	}
	_ = audit.LogEvent(ctx, event, fields)
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError emits the error envelope: a human message, a stable machine code
// and the request id for correlation.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	payload := map[string]any{
		"error": msg,
		"code":  code,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, status, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func parseLimit(raw string) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("limit must be an integer")
	}
	if val < 1 || val > 1000 {
		return 0, errors.New("limit must be between 1 and 1000")
	}
	return val, nil
}

// handleDomainError maps sentinel errors from the service layer onto the HTTP
// envelope. Scope mismatches on single reads already arrive as not-found, so
// existence is never confirmed across commune boundaries.
func handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, scope.ErrScopeMissing):
		writeError(w, r, http.StatusBadRequest, "scope_missing", err.Error())
	case errors.Is(err, scope.ErrInvalidInput),
		errors.Is(err, content.ErrInvalidInput),
		errors.Is(err, commune.ErrInvalidInput),
		errors.Is(err, report.ErrInvalidInput),
		errors.Is(err, account.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, scope.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "forbidden", "operation not allowed")
	case errors.Is(err, content.ErrNotFound),
		errors.Is(err, commune.ErrNotFound),
		errors.Is(err, report.ErrNotFound),
		errors.Is(err, account.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, account.ErrAlreadyExists),
		errors.Is(err, commune.ErrAlreadyExists):
		writeError(w, r, http.StatusConflict, "already_exists", err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal", "internal error")
	}
}
