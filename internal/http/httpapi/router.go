// Package httpapi assembles the chi router for the operational API.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"cardpro/internal/http/handlers"
	"cardpro/internal/middleware"
)

// NewRouter builds the full route tree. adminToken guards /v1/admin; an
// empty token closes the group.
func NewRouter(app *handlers.App, adminToken string) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/admin", func(r chi.Router) {
		r.Use(middleware.BearerToken(adminToken))
		r.Use(middleware.RateLimit(60, time.Minute))
		r.Get("/stats", app.AdminStats)
		r.Get("/users/{id}", app.AdminUserInfo)
		r.Post("/users/{id}/plan", app.AdminSetPlan)
		r.Post("/broadcast", app.AdminBroadcast)
	})

	return r
}
