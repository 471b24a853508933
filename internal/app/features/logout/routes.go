// internal/app/features/logout/routes.go
package logout

import (
	"github.com/dalemusser/mohallahub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers POST /auth/logout. OptionalAuth attaches the user
// when present so the logout is audited.
func MountRoutes(r chi.Router, h *Handler, guard *auth.Guard) {
	r.With(guard.OptionalAuth).Post("/auth/logout", h.ServeLogout)
}
