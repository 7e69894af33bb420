// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tomtom215/phishstream/internal/metrics"
)

// Router assembles the Chi handler tree.
type Router struct {
	handler    *Handler
	middleware *ChiMiddleware
	metrics    *metrics.Metrics
	staticDir  string
}

// NewRouter creates a router over the given handler and middleware
// factory. staticDir is optional; when set, the directory is served at /.
func NewRouter(handler *Handler, mw *ChiMiddleware, m *metrics.Metrics, staticDir string) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{
		handler:    handler,
		middleware: mw,
		metrics:    m,
		staticDir:  staticDir,
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order. CORS must be
	// global to handle OPTIONS preflight.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())

	// Health gets a permissive rate limit so monitors can poll freely.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.middleware.RateLimitHealth())
		r.Get("/", router.handler.Health)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		if router.metrics != nil {
			r.Use(PrometheusMetrics(router.metrics))
		}

		r.Post("/predict", router.handler.Predict)
		r.Get("/ws", router.handler.WebSocket)
	})

	if router.metrics != nil {
		r.Method(http.MethodGet, "/metrics", router.metrics.Handler())
	}

	if router.staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(router.staticDir)))
	}

	return r
}
