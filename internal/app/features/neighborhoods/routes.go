// internal/app/features/neighborhoods/routes.go
package neighborhoods

import (
	"github.com/dalemusser/mohallahub/internal/app/system/auth"
	"github.com/dalemusser/mohallahub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes serves /neighborhoods. Every route needs a verified phone.
func Routes(h *Handler, guard *auth.Guard) chi.Router {
	r := chi.NewRouter()
	r.Use(guard.RequireAuth)

	r.Post("/verify-address", h.HandleVerifyAddress)
	r.Get("/nearby", h.ServeNearby)
	r.Get("/slug/{slug}", h.ServeBySlug)
	r.With(guard.RequireAddressVerified).Get("/mine", h.ServeMine)
	r.Get("/{id}", h.ServeByID)
	r.With(guard.RequireRole(models.RoleModerator, models.RoleAdmin)).
		Post("/{id}/stats/refresh", h.HandleRefreshStats)
	return r
}
