/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request for tracing
  2. RequestLogger: zap line per request (method, path, status, duration)
  3. Recoverer:     Panic recovery (500 instead of crash)
  4. CORS:          Cross-origin requests for the case form frontend

ROUTE GROUPS:
  /api/recompute   Stateless engine call
  /api/cases/*     Case documents and edits
  /api/posts/*     Post table
  /api/perdiem     Per-diem rates
  /healthz         Liveness

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Healthz)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/recompute", h.Recompute)

		// Case routes
		r.Route("/cases", func(r chi.Router) {
			r.Get("/", h.ListCases)
			r.Post("/", h.CreateCase)
			r.Get("/export", h.ExportCases)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetCase)
				r.Put("/", h.UpdateCase)
				r.Delete("/", h.DeleteCase)
				r.Get("/revisions", h.GetRevisions)
				r.Post("/extensions", h.AddExtension)
				r.Put("/extensions/{number}", h.UpdateExtension)
				r.Delete("/extensions/{number}", h.RemoveExtension)
				r.Post("/perdiems", h.AddPerDiem)
				r.Delete("/perdiems/{line}", h.RemovePerDiem)
				r.Put("/amendment", h.SetAmendment)
				r.Delete("/amendment", h.RemoveAmendment)
			})
		})

		// Post routes
		r.Route("/posts", func(r chi.Router) {
			r.Get("/", h.ListPosts)
			r.Post("/refresh", h.RefreshPosts)
			r.Get("/{post}", h.GetPost)
		})

		r.Get("/perdiem", h.GetPerDiem)
	})

	return r
}
