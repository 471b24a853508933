// internal/app/features/userinfo/routes.go
package userinfo

import (
	"github.com/dalemusser/mohallahub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers GET /auth/me on the supplied router. The handler
// never rejects; OptionalAuth attaches the caller when a token is present.
func MountRoutes(r chi.Router, h *Handler, guard *auth.Guard) {
	r.With(guard.OptionalAuth).Get("/auth/me", h.ServeUserInfo)
}
