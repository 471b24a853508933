// internal/app/features/login/verify.go
package login

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/mohallahub/internal/app/system/apierror"
	"github.com/dalemusser/mohallahub/internal/app/system/events"
	"github.com/dalemusser/mohallahub/internal/app/system/i18n"
	"github.com/dalemusser/mohallahub/internal/app/system/inputval"
	"github.com/dalemusser/mohallahub/internal/app/system/normalize"
	"github.com/dalemusser/mohallahub/internal/app/system/otp"
	"github.com/dalemusser/mohallahub/internal/app/system/timeouts"
	"github.com/dalemusser/mohallahub/internal/domain/models"
	"go.uber.org/zap"
)

type verifyRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type verifyResponse struct {
	Success   bool         `json:"success"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// HandleVerify handles POST /auth/otp/verify.
//
// On success the phone is marked verified, a session token is returned in
// the body and stored in the session cookie.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := apierror.DecodeJSON(r, &req); err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	phone := normalize.Phone(req.Phone)
	if !inputval.IsValidPhone(phone) {
		h.Errors.Write(w, r, apierror.Validation(i18n.KeyInvalidPhone, map[string]string{
			"phone": "must be a 10-digit mobile number starting with 6-9",
		}))
		return
	}
	if !inputval.IsValidOTP(req.Code) {
		h.Errors.Write(w, r, apierror.Validation(i18n.KeyInvalidOTPFormat, map[string]string{
			"code": "must be 6 digits",
		}))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "verify otp")
	defer cancel()

	if err := h.checkLimit(ctx, r, h.VerifyLimiter, "verify", phone); err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	u, err := h.OTP.Verify(ctx, phone, req.Code)
	if err != nil {
		h.recordFailure(ctx, r, phone, err)
		h.Errors.Write(w, r, mapOTPError(err))
		return
	}
	if !u.IsActive() {
		h.recordFailure(ctx, r, phone, otp.ErrAccountNotActive)
		h.Errors.Write(w, r, apierror.Unauthorized(i18n.KeyAccountInactive, nil))
		return
	}

	tok, err := h.Tokens.Issue(u)
	if err != nil {
		h.Errors.Write(w, r, apierror.Internal(err))
		return
	}
	if h.Cookies != nil {
		if err := h.Cookies.Save(w, r, tok.Value); err != nil {
			h.Log.Warn("save session cookie", zap.Error(err))
		}
	}

	h.AuditLog.OTPVerified(ctx, r, u.ID)
	if h.Metrics != nil {
		h.Metrics.OTPVerify.WithLabelValues("success").Inc()
	}
	if h.VerifyLimiter != nil {
		if err := h.VerifyLimiter.ResetPhone(ctx, phone); err != nil {
			h.Log.Warn("reset verify limiter", zap.Error(err))
		}
	}
	h.publish(ctx, events.Event{
		Type:       events.UserPhoneVerified,
		OccurredAt: time.Now().UTC(),
		UserID:     u.ID.Hex(),
		Data:       map[string]string{"verification_level": u.VerificationLevel},
	})

	apierror.JSON(w, http.StatusOK, verifyResponse{
		Success:   true,
		Token:     tok.Value,
		ExpiresAt: tok.ExpiresAt,
		User:      u,
	})
}

func (h *Handler) recordFailure(ctx context.Context, r *http.Request, phone string, err error) {
	reason := "error"
	switch {
	case errors.Is(err, otp.ErrUserNotFound):
		reason = "user_not_found"
	case errors.Is(err, otp.ErrNoChallenge):
		reason = "no_challenge"
	case errors.Is(err, otp.ErrInvalidCode):
		reason = "invalid_code"
	case errors.Is(err, otp.ErrExpired):
		reason = "expired"
	case errors.Is(err, otp.ErrAttemptsExceeded):
		reason = "attempts_exceeded"
	case errors.Is(err, otp.ErrAccountNotActive):
		reason = "account_inactive"
	}
	h.AuditLog.OTPFailed(ctx, r, nil, phone, reason)
	if h.Metrics != nil {
		h.Metrics.OTPVerify.WithLabelValues(reason).Inc()
	}
}
