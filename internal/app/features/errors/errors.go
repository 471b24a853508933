// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/mohallahub/internal/app/system/apierror"
	"go.uber.org/zap"
)

// Handler answers requests the router cannot match with the same JSON error
// body every other endpoint uses.
type Handler struct {
	Errors *apierror.Writer
	Log    *zap.Logger
}

// NewHandler constructs an errors Handler.
func NewHandler(errs *apierror.Writer, logger *zap.Logger) *Handler {
	return &Handler{Errors: errs, Log: logger}
}

// NotFound handles unknown paths.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.Log.Debug("no route", zap.String("method", r.Method), zap.String("path", r.URL.Path))
	h.Errors.Write(w, r, apierror.NotFound(""))
}

// MethodNotAllowed handles a known path requested with an unsupported method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.Errors.Write(w, r, apierror.MethodNotAllowed())
}
