// Package routes provides HTTP route registration for the API server.
package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/oar-cd/shipyard/auth"
	"github.com/oar-cd/shipyard/web/handlers"
)

// NewRouter builds the full API router. limiter may be nil to disable rate limiting.
func NewRouter(h *handlers.Handlers, tokens *auth.TokenService, limiter handlers.Limiter) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(handlers.RequestMeta)

	RegisterHealthRoutes(r, h)

	r.Route("/api", func(r chi.Router) {
		r.Use(tokens.Middleware(handlers.Unauthorized))

		r.Get("/providers", h.Providers())
		RegisterProjectRoutes(r, h, limiter)
		RegisterAdminRoutes(r, h)
	})
	return r
}

// RegisterHealthRoutes registers the unauthenticated health check
func RegisterHealthRoutes(r chi.Router, h *handlers.Handlers) {
	r.Get("/health", h.Health())
}

// RegisterProjectRoutes registers all project-related routes
func RegisterProjectRoutes(r chi.Router, h *handlers.Handlers, limiter handlers.Limiter) {
	r.Route("/projects", func(r chi.Router) {
		r.Get("/", h.ListProjects())
		r.Post("/", h.CreateProject())

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetProject())
			r.Patch("/", h.UpdateProject())
			r.Delete("/", h.DeleteProject())

			r.Get("/generations", h.ListGenerations())
			r.Get("/deployments", h.ListDeployments())

			// LLM and deploy calls are the expensive ones
			r.Group(func(r chi.Router) {
				r.Use(handlers.RateLimit(limiter))
				r.Post("/generate", h.GenerateProject())
				r.Post("/deploy", h.DeployProject())
			})
		})
	})
}

// RegisterAdminRoutes registers the audit log routes for administrators
func RegisterAdminRoutes(r chi.Router, h *handlers.Handlers) {
	r.Group(func(r chi.Router) {
		r.Use(handlers.RequireAdmin)
		r.Get("/audit", h.ListAudit())
		r.Delete("/users/{id}/audit", h.AnonymizeAudit())
	})
}
