// internal/app/features/userinfo/handler.go
package userinfo

import (
	"net/http"

	"github.com/dalemusser/mohallahub/internal/app/system/apierror"
	"github.com/dalemusser/mohallahub/internal/app/system/auth"
	"github.com/dalemusser/mohallahub/internal/domain/models"
)

// Handler reports who the caller is.
type Handler struct{}

// NewHandler creates a new userinfo handler.
func NewHandler() *Handler {
	return &Handler{}
}

type meResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *models.User `json:"user,omitempty"`
}

// ServeUserInfo handles GET /auth/me.
//
//	{ "authenticated": false }
//	{ "authenticated": true, "user": {...} }
func (h *Handler) ServeUserInfo(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		apierror.JSON(w, http.StatusOK, meResponse{Authenticated: false})
		return
	}
	apierror.JSON(w, http.StatusOK, meResponse{Authenticated: true, User: user})
}
