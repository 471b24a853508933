// internal/app/features/profile/profile.go
package profile

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/mohallahub/internal/app/store/audit"
	userstore "github.com/dalemusser/mohallahub/internal/app/store/users"
	"github.com/dalemusser/mohallahub/internal/app/system/apierror"
	"github.com/dalemusser/mohallahub/internal/app/system/auth"
	"github.com/dalemusser/mohallahub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/mohallahub/internal/app/system/i18n"
	"github.com/dalemusser/mohallahub/internal/app/system/inputval"
	"github.com/dalemusser/mohallahub/internal/app/system/normalize"
	"github.com/dalemusser/mohallahub/internal/app/system/timeouts"
	"github.com/dalemusser/mohallahub/internal/domain/models"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
)

type profileResponse struct {
	Success bool         `json:"success"`
	User    *models.User `json:"user"`
}

type updateRequest struct {
	Name *string `json:"name"`
	Bio  *string `json:"bio"`
}

// ServeProfile handles GET /profile with a fresh read of the caller.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	cur, ok := auth.CurrentUser(r)
	if !ok {
		h.Errors.Write(w, r, apierror.Unauthorized("", nil))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get profile")
	defer cancel()

	u, err := h.Users.GetByID(ctx, cur.ID)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			h.Errors.Write(w, r, apierror.NotFound(i18n.KeyUserNotFound))
			return
		}
		h.Errors.Write(w, r, apierror.Internal(err))
		return
	}
	apierror.JSON(w, http.StatusOK, profileResponse{Success: true, User: u})
}

// HandleUpdate handles PATCH /profile {name?, bio?}. Markup is stripped from
// both fields before length checks.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	cur, ok := auth.CurrentUser(r)
	if !ok {
		h.Errors.Write(w, r, apierror.Unauthorized("", nil))
		return
	}

	var req updateRequest
	if err := apierror.DecodeJSON(r, &req); err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	var (
		upd     userstore.ProfileUpdate
		changed []string
		errs    = inputval.Errors{}
	)
	if req.Name != nil {
		name := normalize.Name(htmlsanitize.PlainText(*req.Name))
		if errs.Required("name", name) {
			errs.MaxLen("name", name, inputval.MaxNameLen)
		}
		upd.Name = &name
		changed = append(changed, "name")
	}
	if req.Bio != nil {
		bio := htmlsanitize.PlainText(*req.Bio)
		errs.MaxLen("bio", bio, inputval.MaxBioLen)
		upd.Bio = &bio
		changed = append(changed, "bio")
	}
	if len(changed) == 0 {
		errs.Add("body", "provide name or bio")
	}
	if errs.Any() {
		h.Errors.Write(w, r, apierror.Validation("", errs))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update profile")
	defer cancel()

	u, err := h.Users.UpdateProfile(ctx, cur.ID, upd)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			h.Errors.Write(w, r, apierror.NotFound(i18n.KeyUserNotFound))
			return
		}
		h.Errors.Write(w, r, apierror.Internal(err))
		return
	}
	h.AuditLog.ProfileUpdated(ctx, r, u.ID, strings.Join(changed, ","))

	apierror.JSON(w, http.StatusOK, profileResponse{Success: true, User: u})
}

type activityResponse struct {
	Success bool          `json:"success"`
	Events  []audit.Event `json:"events"`
}

// ServeActivity handles GET /profile/activity?limit=N, the caller's own
// audit trail, newest first.
func (h *Handler) ServeActivity(w http.ResponseWriter, r *http.Request) {
	cur, ok := auth.CurrentUser(r)
	if !ok {
		h.Errors.Write(w, r, apierror.Unauthorized("", nil))
		return
	}

	limit := int64(defaultActivityLimit)
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			h.Errors.Write(w, r, apierror.Validation("", map[string]string{"limit": "must be a positive integer"}))
			return
		}
		if n > maxActivityLimit {
			n = maxActivityLimit
		}
		limit = int64(n)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list activity")
	defer cancel()

	evs, err := h.Activity.GetByUser(ctx, cur.ID, limit)
	if err != nil {
		h.Errors.Write(w, r, apierror.Internal(err))
		return
	}
	if evs == nil {
		evs = []audit.Event{}
	}
	apierror.JSON(w, http.StatusOK, activityResponse{Success: true, Events: evs})
}
