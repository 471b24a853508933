package ratelimit

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// Scopes reported in a Decision.
const (
	ScopeIP    = "ip"
	ScopePhone = "phone"
)

// Config sets the per-IP and per-phone windows for one OTP operation.
type Config struct {
	IPLimit     int
	IPWindow    time.Duration
	PhoneLimit  int
	PhoneWindow time.Duration
}

// DefaultIssueConfig limits code requests (register, login, resend).
var DefaultIssueConfig = Config{
	IPLimit:     10,
	IPWindow:    time.Minute,
	PhoneLimit:  5,
	PhoneWindow: 15 * time.Minute,
}

// DefaultVerifyConfig limits code submissions.
var DefaultVerifyConfig = Config{
	IPLimit:     20,
	IPWindow:    time.Minute,
	PhoneLimit:  10,
	PhoneWindow: 10 * time.Minute,
}

// Decision is the outcome of an OTPLimiter check.
type Decision struct {
	Allowed    bool
	Scope      string
	RetryAfter time.Duration
}

// OTPLimiter tracks both IP-based and phone-based limits to prevent:
// - Distributed attacks from multiple IPs
// - Targeted attacks on specific numbers
type OTPLimiter struct {
	ip    Counter
	phone Counter
}

// NewOTPLimiter combines two counters.
func NewOTPLimiter(ip, phone Counter) *OTPLimiter {
	return &OTPLimiter{ip: ip, phone: phone}
}

// NewMemoryOTPLimiter builds an in-process OTPLimiter.
func NewMemoryOTPLimiter(cfg Config) *OTPLimiter {
	return NewOTPLimiter(New(cfg.IPLimit, cfg.IPWindow), New(cfg.PhoneLimit, cfg.PhoneWindow))
}

// NewRedisOTPLimiter builds an OTPLimiter shared through Redis. name keeps
// the keys of different operations apart.
func NewRedisOTPLimiter(rdb redis.UniversalClient, name string, cfg Config) *OTPLimiter {
	return NewOTPLimiter(
		NewRedisLimiter(rdb, "rl:"+name+":ip", cfg.IPLimit, cfg.IPWindow),
		NewRedisLimiter(rdb, "rl:"+name+":phone", cfg.PhoneLimit, cfg.PhoneWindow),
	)
}

// Check counts one attempt from r for phone. The IP limit is checked first;
// the phone limit only when phone is non-empty.
func (l *OTPLimiter) Check(ctx context.Context, r *http.Request, phone string) (Decision, error) {
	ok, retry, err := l.ip.Hit(ctx, ClientIP(r))
	if err != nil {
		return Decision{Allowed: true}, err
	}
	if !ok {
		return Decision{Scope: ScopeIP, RetryAfter: retry}, nil
	}

	if phone != "" {
		ok, retry, err = l.phone.Hit(ctx, phone)
		if err != nil {
			return Decision{Allowed: true}, err
		}
		if !ok {
			return Decision{Scope: ScopePhone, RetryAfter: retry}, nil
		}
	}
	return Decision{Allowed: true}, nil
}

// ResetPhone clears the phone window after a successful verification.
func (l *OTPLimiter) ResetPhone(ctx context.Context, phone string) error {
	if phone == "" {
		return nil
	}
	return l.phone.Reset(ctx, phone)
}

// Stop releases in-process counters.
func (l *OTPLimiter) Stop() {
	for _, c := range []Counter{l.ip, l.phone} {
		if s, ok := c.(interface{ Stop() }); ok {
			s.Stop()
		}
	}
}
