// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/mohallahub/internal/app/store/audit"
	"github.com/dalemusser/mohallahub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (register, OTP, logout).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Neighborhood controls logging for address verification and neighborhood events.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Neighborhood string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// getClientIP returns the connection address. Behind a trusted proxy the
// router's RealIP middleware has already rewritten it.
func getClientIP(r *http.Request) string {
	return ratelimit.ClientIP(r)
}

// MaskPhone keeps the first two and last two digits: 98******10.
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return strings.Repeat("*", len(phone))
	}
	return phone[:2] + strings.Repeat("*", len(phone)-4) + phone[len(phone)-2:]
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.NeighborhoodID != nil {
		fields = append(fields, zap.String("neighborhood_id", event.NeighborhoodID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryNeighborhood:
		setting = l.config.Neighborhood
	default:
		setting = "all"
	}

	if setting == "off" {
		return
	}
	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}
	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func (l *Logger) authEvent(r *http.Request, eventType string, userID *primitive.ObjectID, success bool, reason string, details map[string]string) audit.Event {
	return audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		UserID:        userID,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       success,
		FailureReason: reason,
		Details:       details,
	}
}

// --- Authentication Events ---

// Registered logs a new account.
func (l *Logger) Registered(ctx context.Context, r *http.Request, userID primitive.ObjectID, phone string) {
	l.Log(ctx, l.authEvent(r, audit.EventRegistered, &userID, true, "", map[string]string{
		"phone": MaskPhone(phone),
	}))
}

// OTPIssued logs a code being issued, or reissued when resend is true.
func (l *Logger) OTPIssued(ctx context.Context, r *http.Request, userID primitive.ObjectID, phone string, resend bool) {
	eventType := audit.EventOTPIssued
	if resend {
		eventType = audit.EventOTPResent
	}
	l.Log(ctx, l.authEvent(r, eventType, &userID, true, "", map[string]string{
		"phone": MaskPhone(phone),
	}))
}

// OTPVerified logs a successful verification (a sign-in).
func (l *Logger) OTPVerified(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, l.authEvent(r, audit.EventOTPVerified, &userID, true, "", nil))
}

// OTPFailed logs a rejected verification. userID is nil when the phone is
// unknown.
func (l *Logger) OTPFailed(ctx context.Context, r *http.Request, userID *primitive.ObjectID, phone, reason string) {
	l.Log(ctx, l.authEvent(r, audit.EventOTPFailed, userID, false, reason, map[string]string{
		"phone": MaskPhone(phone),
	}))
}

// OTPRateLimited logs an issue or verify refused by the limiter.
func (l *Logger) OTPRateLimited(ctx context.Context, r *http.Request, phone, limitType string) {
	l.Log(ctx, l.authEvent(r, audit.EventOTPRateLimited, nil, false, "rate limit exceeded", map[string]string{
		"phone":      MaskPhone(phone),
		"limit_type": limitType,
	}))
}

// Logout logs a user logout. userIDStr may be empty for anonymous logouts.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDStr string) {
	var userID *primitive.ObjectID
	if oid, err := primitive.ObjectIDFromHex(userIDStr); err == nil {
		userID = &oid
	}
	l.Log(ctx, l.authEvent(r, audit.EventLogout, userID, true, "", nil))
}

// ProfileUpdated logs a profile edit.
func (l *Logger) ProfileUpdated(ctx context.Context, r *http.Request, userID primitive.ObjectID, fieldsChanged string) {
	l.Log(ctx, l.authEvent(r, audit.EventProfileUpdated, &userID, true, "", map[string]string{
		"fields_changed": fieldsChanged,
	}))
}

// --- Neighborhood Events ---

// AddressVerified logs a user joining a neighborhood.
func (l *Logger) AddressVerified(ctx context.Context, r *http.Request, userID, neighborhoodID primitive.ObjectID, postalCode string) {
	l.Log(ctx, audit.Event{
		Category:       audit.CategoryNeighborhood,
		EventType:      audit.EventAddressVerified,
		UserID:         &userID,
		NeighborhoodID: &neighborhoodID,
		IP:             getClientIP(r),
		UserAgent:      r.UserAgent(),
		Success:        true,
		Details: map[string]string{
			"postal_code": postalCode,
		},
	})
}

// NeighborhoodCreated logs a neighborhood created during address verification.
func (l *Logger) NeighborhoodCreated(ctx context.Context, r *http.Request, userID, neighborhoodID primitive.ObjectID, name, geohash string) {
	l.Log(ctx, audit.Event{
		Category:       audit.CategoryNeighborhood,
		EventType:      audit.EventNeighborhoodCreated,
		UserID:         &userID,
		NeighborhoodID: &neighborhoodID,
		IP:             getClientIP(r),
		UserAgent:      r.UserAgent(),
		Success:        true,
		Details: map[string]string{
			"name":    name,
			"geohash": geohash,
		},
	})
}

// StatsRefreshed logs a moderator-triggered stats recomputation.
func (l *Logger) StatsRefreshed(ctx context.Context, r *http.Request, actorID, neighborhoodID primitive.ObjectID, actorRole string) {
	l.Log(ctx, audit.Event{
		Category:       audit.CategoryNeighborhood,
		EventType:      audit.EventStatsRefreshed,
		ActorID:        &actorID,
		NeighborhoodID: &neighborhoodID,
		IP:             getClientIP(r),
		UserAgent:      r.UserAgent(),
		Success:        true,
		Details: map[string]string{
			"actor_role": actorRole,
		},
	})
}
