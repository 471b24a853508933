// internal/app/features/profile/routes.go
package profile

import (
	"github.com/dalemusser/mohallahub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes serves /profile. Signed-in users may edit their profile before
// verifying their phone.
func Routes(h *Handler, guard *auth.Guard) chi.Router {
	r := chi.NewRouter()
	r.Use(guard.RequireSignedIn)
	r.Get("/", h.ServeProfile)
	r.Patch("/", h.HandleUpdate)
	r.Get("/activity", h.ServeActivity)
	return r
}
