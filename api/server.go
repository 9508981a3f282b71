/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from proxy headers
  3. Logger:     Structured request log (zap)
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /health               Public liveness check
  /api/auth/*           Public login
  /api/*                Bearer token required
  /api/users, /api/audit, location writes
                        admin or super_admin

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Authentication and role checks
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/inventory-engine/domain"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)

			r.Get("/me", h.Me)

			// Category routes
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.ListCategories)
				r.Post("/", h.CreateCategory)
			})

			// Product routes
			r.Route("/products", func(r chi.Router) {
				r.Get("/", h.ListProducts)
				r.Post("/", h.CreateProduct)
				r.Get("/{id}", h.GetProduct)
				r.Put("/{id}", h.UpdateProduct)
				r.Delete("/{id}", h.DeleteProduct)
			})

			// Location routes
			r.Route("/locations", func(r chi.Router) {
				r.Get("/", h.ListLocations)
				r.With(h.requireRole(domain.RoleAdmin)).Post("/", h.CreateLocation)
				r.With(h.requireRole(domain.RoleAdmin)).Put("/{id}/default", h.SetDefaultLocation)
			})

			// Batch routes
			r.Route("/batches", func(r chi.Router) {
				r.Get("/", h.ListBatches)
				r.Post("/", h.CreateBatch)
			})

			// Inventory routes
			r.Route("/inventory", func(r chi.Router) {
				r.Get("/", h.ListInventory)
				r.Post("/transfer", h.TransferInventory)
			})

			// Sale routes
			r.Route("/sales", func(r chi.Router) {
				r.Get("/", h.ListSales)
				r.Post("/", h.CreateSale)
				r.Get("/{id}", h.GetSale)
				r.Delete("/{id}", h.DeleteSale)
				r.Patch("/{id}/status", h.UpdateSaleStatus)
				r.Get("/{id}/invoice", h.GetInvoice)
			})

			// Admin routes
			r.Group(func(r chi.Router) {
				r.Use(h.requireRole(domain.RoleAdmin))
				r.Get("/users", h.ListUsers)
				r.Post("/users", h.CreateUser)
				r.Get("/audit", h.ListAudit)
			})
		})
	})

	return r
}
