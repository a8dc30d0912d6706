// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/hearth/internal/middleware"
)

// Router owns the HTTP handler and middleware factories.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router over deps. A nil mw uses DefaultChiMiddlewareConfig,
// or the security section of deps.Config when present.
func NewRouter(deps Deps, mw *ChiMiddleware) *Router {
	if mw == nil {
		if deps.Config != nil {
			mw = NewChiMiddleware(ChiMiddlewareConfigFrom(&deps.Config.Security))
		} else {
			mw = NewChiMiddleware(nil)
		}
	}
	return &Router{
		handler:       NewHandler(deps),
		chiMiddleware: mw,
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Applied to ALL routes in order
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight
	r.Use(middleware.PrometheusMetrics)

	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Get("/health/live", router.handler.HealthLive)
		r.Get("/redis/health", router.handler.StoreHealth)
		r.Get("/queue/stats", router.handler.QueueStats)
		r.Handle("/metrics", promhttp.Handler())
	})

	r.With(router.chiMiddleware.RateLimitWebSocket()).Get("/ws", router.handler.WebSocket)

	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())

		r.Post("/notify/queue", router.handler.SubmitNotification)

		r.Get("/notifications/{id}", router.handler.GetNotification)
		r.Delete("/notifications/{id}", router.handler.DeleteNotification)

		r.Route("/users/{userId}", func(r chi.Router) {
			r.Get("/notifications", router.handler.ListUserNotifications)
			r.Get("/notifications/unread-count", router.handler.UnreadCount)
			r.Post("/notifications/read-all", router.handler.MarkAllRead)
			r.Post("/notifications/{id}/read", router.handler.MarkRead)
			r.Get("/notification-settings", router.handler.GetSettings)
			r.Put("/notification-settings", router.handler.PutSettings)
		})
	})

	return r
}
