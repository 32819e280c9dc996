// Package api serves the chat pipeline over HTTP next to the MCP and OAuth
// handlers and the Prometheus metrics.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hal9000y/mcp-chat/internal/chain"
	"github.com/hal9000y/mcp-chat/internal/router"
)

const (
	Name    = "mcp-chat"
	Version = "1.0.0"

	defaultTimeout = 2 * time.Minute
	maxBodyBytes   = 1 << 20
)

type chatSvc interface {
	Chat(ctx context.Context, req chain.Request) chain.Response
	Plan(message string) router.Plan
	Connected() bool
}

type config struct {
	mcp      http.Handler
	oauth    http.Handler
	gatherer prometheus.Gatherer
	origins  []string
	timeout  time.Duration
}

type Option func(*config)

// WithMCP mounts the MCP streamable HTTP handler at /mcp.
func WithMCP(h http.Handler) Option {
	return func(c *config) { c.mcp = h }
}

// WithOAuth mounts the OAuth flow handler at /oauth.
func WithOAuth(h http.Handler) Option {
	return func(c *config) { c.oauth = h }
}

// WithMetrics exposes g at /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(c *config) { c.gatherer = g }
}

func WithAllowedOrigins(origins ...string) Option {
	return func(c *config) {
		if len(origins) > 0 {
			c.origins = origins
		}
	}
}

// WithTimeout bounds the time one /api request may take.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// NewRouter builds the HTTP handler.
func NewRouter(svc chatSvc, opts ...Option) http.Handler {
	cfg := config{
		origins: []string{"*"},
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	h := &handlers{svc: svc, cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization", "Mcp-Session-Id"},
		ExposedHeaders: []string{requestIDHeader, "Mcp-Session-Id"},
		MaxAge:         300,
	}))

	r.Get("/", h.info)
	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.timeout))
		r.Use(middleware.AllowContentType("application/json"))
		r.Post("/chat", h.chat)
		r.Post("/route", h.route)
	})

	if cfg.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.gatherer, promhttp.HandlerOpts{}))
	}
	if cfg.mcp != nil {
		r.Handle("/mcp", cfg.mcp)
		r.Handle("/mcp/*", cfg.mcp)
	}
	if cfg.oauth != nil {
		r.Handle("/oauth", cfg.oauth)
	}

	return r
}
