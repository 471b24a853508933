// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/mohallahub/internal/app/system/apierror"
	"github.com/dalemusser/mohallahub/internal/app/system/auditlog"
	"github.com/dalemusser/mohallahub/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	Log      *zap.Logger
	Cookies  *auth.CookieTokens
	AuditLog *auditlog.Logger
}

func NewHandler(cookies *auth.CookieTokens, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:      logger,
		Cookies:  cookies,
		AuditLog: auditLog,
	}
}

// ServeLogout handles POST /auth/logout. It always succeeds; bearer-token
// clients simply discard their token.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.AuditLog.Logout(r.Context(), r, u.ID.Hex())
	}

	if h.Cookies != nil {
		if err := h.Cookies.Clear(w, r); err != nil {
			h.Log.Error("logout: clear session cookie", zap.Error(err))
		}
	}

	apierror.JSON(w, http.StatusOK, map[string]any{"success": true})
}
