package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"projectguard.org/api/spec"
	"projectguard.org/internal/account"
	"projectguard.org/internal/obs"
	"projectguard.org/internal/session"
	"projectguard.org/internal/telegram"
)

// ReadyProbe — простая проверка готовности (ping БД, если она есть).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API — HTTP слой.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	verifier *telegram.Verifier
	resolver *account.Resolver
	accounts *account.Service
	sessions *session.Issuer

	// /api/users wrapped in the admin gate; shared with the
	// trailing-slash route
	listUsers http.Handler

	rateBurst    int
	ratePerSec   int
	maxBodyBytes int64
}

// Option настраивает API при сборке.
type Option func(*API)

// WithRateLimit sets the per-client token bucket (burst size and refill
// per second) used by the rate limiter.
func WithRateLimit(burst, perSecond int) Option {
	return func(a *API) {
		if burst > 0 {
			a.rateBurst = burst
		}
		if perSecond > 0 {
			a.ratePerSec = perSecond
		}
	}
}

// WithMaxBodyBytes caps the request body size accepted by any endpoint.
func WithMaxBodyBytes(n int64) Option {
	return func(a *API) {
		if n > 0 {
			a.maxBodyBytes = n
		}
	}
}

func New(rp ReadyProbe, version string, verifier *telegram.Verifier, resolver *account.Resolver, accounts *account.Service, sessions *session.Issuer, opts ...Option) *API {
	a := &API{
		mux:          http.NewServeMux(),
		readyProbe:   rp,
		version:      version,
		verifier:     verifier,
		resolver:     resolver,
		accounts:     accounts,
		sessions:     sessions,
		rateBurst:    20,
		ratePerSec:   10,
		maxBodyBytes: 1 << 16,
	}
	for _, opt := range opts {
		opt(a)
	}

	// identity exchange
	a.mux.HandleFunc("/api/auth/telegram", a.handleTelegramAuth)

	// account management
	a.listUsers = RequireRole("admin")(http.HandlerFunc(a.handleUsers))
	a.mux.Handle("/api/users", a.listUsers)
	a.mux.HandleFunc("/api/users/", a.handleUsersScoped)

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// OpenAPI YAML
	a.mux.HandleFunc("/openapi.yaml", a.OpenAPISpec)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler собирает полный middleware-стек вокруг mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, a.maxBodyBytes)
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
		"service": "projectguard-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "projectguard-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

func (a *API) OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	_, _ = w.Write(spec.OpenAPI)
}
