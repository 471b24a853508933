// internal/app/features/login/otp.go
package login

import (
	"errors"
	"net/http"

	userstore "github.com/dalemusser/mohallahub/internal/app/store/users"
	"github.com/dalemusser/mohallahub/internal/app/system/apierror"
	"github.com/dalemusser/mohallahub/internal/app/system/i18n"
	"github.com/dalemusser/mohallahub/internal/app/system/notify"
	"github.com/dalemusser/mohallahub/internal/app/system/otp"
	"github.com/dalemusser/mohallahub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleRegister handles POST /auth/register.
//
// Creates the account and issues its first code: 201 on success, 409 when
// the phone is already registered.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	phone, err := readPhone(r)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "register")
	defer cancel()

	if err := h.checkLimit(ctx, r, h.IssueLimiter, "issue", phone); err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	u, err := h.Users.Create(ctx, phone)
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicatePhone) {
			h.Errors.Write(w, r, apierror.Conflict(i18n.KeyPhoneTaken, err))
			return
		}
		h.Errors.Write(w, r, apierror.Internal(err))
		return
	}
	h.AuditLog.Registered(ctx, r, u.ID, phone)

	ch, err := h.OTP.IssueFor(ctx, u.ID)
	if err != nil {
		h.Errors.Write(w, r, mapOTPError(err))
		return
	}
	h.AuditLog.OTPIssued(ctx, r, u.ID, phone, false)

	resp, err := h.dispatch(ctx, r, ch, phone, notify.PurposeRegister)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	apierror.JSON(w, http.StatusCreated, resp)
}

// HandleLogin handles POST /auth/login: issues a code for an existing
// account, 404 when the phone is unknown.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	h.issue(w, r, notify.PurposeLogin)
}

// HandleResend handles POST /auth/otp/resend: replaces the outstanding
// challenge with a fresh one.
func (h *Handler) HandleResend(w http.ResponseWriter, r *http.Request) {
	h.issue(w, r, notify.PurposeResend)
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request, purpose string) {
	phone, err := readPhone(r)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "issue otp")
	defer cancel()

	if err := h.checkLimit(ctx, r, h.IssueLimiter, "issue", phone); err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	ch, err := h.OTP.Issue(ctx, phone)
	if err != nil {
		h.Errors.Write(w, r, mapOTPError(err))
		return
	}
	h.AuditLog.OTPIssued(ctx, r, ch.UserID, phone, purpose == notify.PurposeResend)

	resp, err := h.dispatch(ctx, r, ch, phone, purpose)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	h.Log.Debug("otp issued", zap.String("user_id", ch.UserID.Hex()), zap.String("purpose", purpose))
	apierror.JSON(w, http.StatusOK, resp)
}

// mapOTPError translates otp service errors into API errors.
func mapOTPError(err error) error {
	switch {
	case errors.Is(err, otp.ErrUserNotFound):
		return apierror.NotFound(i18n.KeyUserNotFound)
	case errors.Is(err, otp.ErrAccountNotActive):
		return apierror.Unauthorized(i18n.KeyAccountInactive, err)
	case errors.Is(err, otp.ErrNoChallenge):
		return apierror.Validation(i18n.KeyOTPNoChallenge, nil)
	case errors.Is(err, otp.ErrInvalidCode):
		return apierror.Unauthorized(i18n.KeyOTPInvalidCode, err)
	case errors.Is(err, otp.ErrExpired):
		return apierror.Unauthorized(i18n.KeyOTPExpired, err)
	case errors.Is(err, otp.ErrAttemptsExceeded):
		e := apierror.RateLimited(0)
		e.Code = i18n.KeyOTPAttemptsExceeded
		e.Err = err
		return e
	default:
		return apierror.Internal(err)
	}
}
