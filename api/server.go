/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/cards/*            Card configuration management
  /api/buckets/*          Cap bucket removal
  /api/expenses/*         Spend logging and history edits
  /api/rewards/*          Stateless calculation preview
  /api/recommendations    Cross-card ranking

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

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
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Card routes
		r.Route("/cards", func(r chi.Router) {
			r.Get("/", h.ListCards)
			r.Post("/", h.CreateCard)
			r.Get("/{id}", h.GetCard)
			r.Delete("/{id}", h.DeleteCard)
			r.Post("/{id}/rules", h.AddRule)
			r.Post("/{id}/buckets", h.AddBucket)
			r.Post("/{id}/partners", h.AddPartner)
			r.Get("/{id}/expenses", h.ListCardExpenses)
			r.Get("/{id}/usage", h.CardUsage)
		})

		// Bucket routes
		r.Route("/buckets", func(r chi.Router) {
			r.Delete("/{id}", h.DeleteBucket)
		})

		// Expense routes
		r.Route("/expenses", func(r chi.Router) {
			r.Post("/", h.LogExpense)
			r.Patch("/{id}", h.PatchExpense)
			r.Delete("/{id}", h.DeleteExpense)
		})

		// Calculation routes
		r.Post("/rewards/calculate", h.CalculateReward)
		r.Post("/recommendations", h.Recommend)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
