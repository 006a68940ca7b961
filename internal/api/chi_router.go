// Parcelario - Forest Parcel Mapping and Species Distribution Backend
// Copyright 2026 A. Morales (agroforestal)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agroforestal/parcelario

// Package api provides HTTP routing using Chi router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agroforestal/parcelario/internal/auth"
	"github.com/agroforestal/parcelario/internal/middleware"
)

// chiMiddleware adapts http.HandlerFunc middleware to Chi's func(http.Handler) http.Handler.
// This allows RequestID, PrometheusMetrics, and Authenticate to work with Chi's r.Use().
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Router sets up HTTP routes using Chi router.
type Router struct {
	handler       *Handler
	authGate      *auth.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router from its handler and middleware components.
func NewRouter(handler *Handler, authGate *auth.Middleware, chiMw *ChiMiddleware) *Router {
	return &Router{
		handler:       handler,
		authGate:      authGate,
		chiMiddleware: chiMw,
	}
}

// SetupChi configures all HTTP routes and returns the root handler.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware stack, applied to all routes in order.
	// CORS must be global to handle OPTIONS preflight.
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	// Health endpoints. Permissive rate limiting so monitoring can poll
	// frequently.
	r.Route("/api/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Authentication endpoints. Strict rate limiting for brute force
	// prevention; login is strictest.
	r.Route("/api/auth", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitAuth())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Post("/register", router.handler.Register)
		r.With(router.chiMiddleware.RateLimitLogin()).Post("/login", router.handler.Login)
	})

	// Parcel endpoints. Owner-scoped data, so every route requires a
	// valid token.
	r.Route("/api/parcelas", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(router.authGate.Authenticate))

		r.With(router.chiMiddleware.RateLimitWrite()).Post("/guardar", router.handler.SaveParcel)
		r.Get("/listar", router.handler.ListParcels)
	})

	// WMS layer endpoints. Saving requires a token; the catalog listing
	// is deliberately public so unauthenticated map clients can load
	// the shared layers.
	r.Route("/api/wms-layers", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Get("/listar", router.handler.ListWMSLayers)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware(router.authGate.Authenticate))
			r.With(router.chiMiddleware.RateLimitWrite()).Post("/guardar", router.handler.SaveWMSLayer)
		})
	})

	// Species distribution proxy. Public, but conservatively rate
	// limited since each request fans out to GBIF.
	r.Route("/api/maxent", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitProxy())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Post("/distribution", router.handler.SpeciesDistribution)
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}
