package api

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/qubicdash/qubicdash/pkg/types"
	"github.com/qubicdash/qubicdash/server/internal/alerts"
	"github.com/qubicdash/qubicdash/server/internal/auth"
	"github.com/qubicdash/qubicdash/server/internal/i18n"
	"github.com/qubicdash/qubicdash/server/internal/metrics"
	"github.com/qubicdash/qubicdash/server/internal/projection"
	"github.com/qubicdash/qubicdash/server/internal/store"
	"github.com/qubicdash/qubicdash/server/internal/upstream"
)

// ScoreProxy forwards calls to the score service unchanged.
type ScoreProxy interface {
	ForwardLogin(ctx context.Context, body []byte) (*upstream.Response, error)
	ForwardScores(ctx context.Context, token string) (*upstream.Response, error)
}

// HistorySource serves the historical network series.
type HistorySource interface {
	Forward(ctx context.Context, k upstream.SeriesKind, token string, body []byte) (*upstream.Response, error)
	Series(ctx context.Context, k upstream.SeriesKind, token string) ([]types.SeriesPoint, error)
}

// TokenSource supplies the server's own session token for the chart routes.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// Deps are the collaborators a Handler reads from. Alerts and Metrics may be nil.
type Deps struct {
	Store   *store.Store
	Scores  ScoreProxy
	History HistorySource
	Tokens  TokenSource
	Alerts  *alerts.Engine
	Metrics *metrics.Registry
}

// AuthOptions configures the API key check on /api/v1.
type AuthOptions struct {
	Mode   string
	Header string
	Key    string
}

// Options configures a Handler.
type Options struct {
	Asset       string
	Currency    string
	Anchor      projection.Anchor
	Params      projection.Params
	Language    i18n.Lang      // fallback when a request states no preference
	Location    *time.Location // zone for displayed dates; UTC when nil
	Auth        AuthOptions
	CORSOrigins []string         // empty allows every origin
	Now         func() time.Time // defaults to time.Now
}

// Handler is the HTTP handler for the proxy, dashboard and metrics routes.
type Handler struct {
	deps   Deps
	opts   Options
	params atomic.Pointer[projection.Params]
	now    func() time.Time

	router  *mux.Router
	handler http.Handler // router wrapped in middleware
}

// New creates a Handler and registers all routes.
func New(deps Deps, opts Options) *Handler {
	if opts.Language == "" {
		opts.Language = i18n.English
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	h := &Handler{deps: deps, opts: opts, now: opts.Now, router: mux.NewRouter()}
	if h.now == nil {
		h.now = time.Now
	}
	h.SetParams(opts.Params)

	r := h.router
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.Use(auth.APIKeyMiddleware(opts.Auth.Mode, opts.Auth.Header, opts.Auth.Key))
	v1.Use(handlers.CompressHandler)
	v1.HandleFunc("/health", h.health).Methods(http.MethodGet)
	v1.HandleFunc("/network", h.network).Methods(http.MethodGet)
	v1.HandleFunc("/epoch", h.epoch).Methods(http.MethodGet)
	v1.HandleFunc("/price", h.price).Methods(http.MethodGet)
	v1.HandleFunc("/income", h.income).Methods(http.MethodGet)
	v1.HandleFunc("/charts/scores", h.scoreChart).Methods(http.MethodGet)
	v1.HandleFunc("/charts/{series:its|sols|totals}", h.seriesChart).Methods(http.MethodGet)
	v1.HandleFunc("/translations", h.translations).Methods(http.MethodGet)
	v1.HandleFunc("/diagnostics", h.diagnostics).Methods(http.MethodGet)
	v1.HandleFunc("/alerts", h.alerts).Methods(http.MethodGet)
	v1.HandleFunc("/snapshot", h.snapshot).Methods(http.MethodGet)

	r.HandleFunc("/api/qubic", h.proxyLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/qubic", h.proxyScores).Methods(http.MethodGet)
	r.HandleFunc("/api/graph/{series}", h.proxyGraph).Methods(http.MethodGet, http.MethodPost)

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler()).Methods(http.MethodGet)
	}

	h.handler = h.middleware(r)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

// Mount registers an extra GET handler at path, behind the same middleware
// as every other route. Used for the WebSocket stream.
func (h *Handler) Mount(path string, handler http.Handler) {
	h.router.Handle(path, handler).Methods(http.MethodGet)
}

// SetParams swaps the income constants used by later requests.
func (h *Handler) SetParams(p projection.Params) {
	h.params.Store(&p)
}

// Params returns the income constants currently in use.
func (h *Handler) Params() projection.Params {
	return *h.params.Load()
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	sonic.ConfigStd.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// observe counts one upstream call when metrics are wired.
func (h *Handler) observe(name string, err error) {
	if h.deps.Metrics != nil {
		h.deps.Metrics.ObserveUpstream(name, err)
	}
}
