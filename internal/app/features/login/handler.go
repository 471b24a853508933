// internal/app/features/login/handler.go
package login

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/mohallahub/internal/app/system/apierror"
	"github.com/dalemusser/mohallahub/internal/app/system/auditlog"
	"github.com/dalemusser/mohallahub/internal/app/system/auth"
	"github.com/dalemusser/mohallahub/internal/app/system/events"
	"github.com/dalemusser/mohallahub/internal/app/system/i18n"
	"github.com/dalemusser/mohallahub/internal/app/system/inputval"
	"github.com/dalemusser/mohallahub/internal/app/system/metrics"
	"github.com/dalemusser/mohallahub/internal/app/system/normalize"
	"github.com/dalemusser/mohallahub/internal/app/system/notify"
	"github.com/dalemusser/mohallahub/internal/app/system/otp"
	"github.com/dalemusser/mohallahub/internal/app/system/ratelimit"
	"github.com/dalemusser/mohallahub/internal/app/system/session"
	"github.com/dalemusser/mohallahub/internal/domain/models"
	"go.uber.org/zap"
)

// Users is the credential store surface registration needs.
type Users interface {
	Create(ctx context.Context, phone string) (models.User, error)
}

// Handler owns the phone + OTP sign-in endpoints.
type Handler struct {
	Users         Users
	OTP           *otp.Service
	Tokens        *session.Issuer
	Cookies       *auth.CookieTokens
	Sender        notify.Sender
	Events        events.Publisher
	IssueLimiter  *ratelimit.OTPLimiter
	VerifyLimiter *ratelimit.OTPLimiter
	AuditLog      *auditlog.Logger
	Metrics       *metrics.Metrics
	Errors        *apierror.Writer
	DevOTP        bool // echo the plaintext code in responses (dev only)
	Log           *zap.Logger
}

// otpSentResponse is returned by register, login and resend.
type otpSentResponse struct {
	Success   bool      `json:"success"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	DevOTP    string    `json:"dev_otp,omitempty"`
}

type phoneRequest struct {
	Phone string `json:"phone"`
}

// readPhone decodes {phone} and returns it normalized and validated.
func readPhone(r *http.Request) (string, error) {
	var req phoneRequest
	if err := apierror.DecodeJSON(r, &req); err != nil {
		return "", err
	}
	phone := normalize.Phone(req.Phone)
	if !inputval.IsValidPhone(phone) {
		return "", apierror.Validation(i18n.KeyInvalidPhone, map[string]string{
			"phone": "must be a 10-digit mobile number starting with 6-9",
		})
	}
	return phone, nil
}

// checkLimit applies limiter to r and phone. Limiter backend failures are
// logged and the request is let through.
func (h *Handler) checkLimit(ctx context.Context, r *http.Request, limiter *ratelimit.OTPLimiter, operation, phone string) error {
	if limiter == nil {
		return nil
	}
	d, err := limiter.Check(ctx, r, phone)
	if err != nil {
		h.Log.Warn("rate limiter unavailable; allowing request",
			zap.String("operation", operation),
			zap.Error(err))
		return nil
	}
	if d.Allowed {
		return nil
	}
	h.AuditLog.OTPRateLimited(ctx, r, phone, operation+":"+d.Scope)
	if h.Metrics != nil {
		h.Metrics.RateLimited.WithLabelValues(operation, d.Scope).Inc()
	}
	return apierror.RateLimited(d.RetryAfter)
}

// dispatch hands the code to the SMS channel and builds the response.
func (h *Handler) dispatch(ctx context.Context, r *http.Request, ch otp.Challenge, phone, purpose string) (otpSentResponse, error) {
	msg := notify.OTPMessage{
		ChallengeID: ch.ID,
		Phone:       phone,
		Code:        ch.Code,
		Purpose:     purpose,
		Locale:      i18n.ResolveTag(r).String(),
		ExpiresAt:   ch.ExpiresAt,
	}
	if err := h.Sender.SendOTP(ctx, msg); err != nil {
		return otpSentResponse{}, apierror.Internal(err)
	}
	if h.Metrics != nil {
		h.Metrics.OTPIssued.WithLabelValues(purpose).Inc()
	}

	resp := otpSentResponse{
		Success:   true,
		UserID:    ch.UserID.Hex(),
		ExpiresAt: ch.ExpiresAt,
	}
	if h.DevOTP {
		resp.DevOTP = ch.Code
	}
	return resp, nil
}

func (h *Handler) publish(ctx context.Context, e events.Event) {
	if h.Events == nil {
		return
	}
	if err := h.Events.Publish(ctx, e); err != nil {
		h.Log.Warn("event publish failed", zap.String("type", e.Type), zap.Error(err))
	}
}
