/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the dashboard frontend

ROUTE GROUPS:
  /api/profile        Salary profile
  /api/cycles/*       Financial-month windows + recorded cycles
  /api/paydays/*      Payday sequences
  /api/payments       Scheduled payments
  /api/occurrences/*  Occurrence generation and status

SECURITY NOTE:
  No authentication middleware; the server is meant to sit behind the
  household's reverse proxy.

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
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/profile", func(r chi.Router) {
			r.Get("/", h.GetProfile)
			r.Put("/", h.SaveProfile)
		})

		r.Route("/cycles", func(r chi.Router) {
			r.Get("/current", h.CurrentCycle)
			r.Get("/next", h.NextCycle)
			r.Post("/", h.RecordCycle)
		})

		r.Route("/paydays", func(r chi.Router) {
			r.Get("/next", h.NextPaydays)
			r.Get("/past", h.PastPaydays)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", h.ListPayments)
			r.Post("/", h.CreatePayment)
		})

		r.Route("/occurrences", func(r chi.Router) {
			r.Get("/", h.ListOccurrences)
			r.Post("/generate", h.GenerateOccurrences)
			r.Post("/{id}/pay", h.PayOccurrence)
			r.Post("/{id}/unpay", h.UnpayOccurrence)
		})
	})

	return r
}
