package login_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/mohallahub/internal/app/features/login"
	"github.com/dalemusser/mohallahub/internal/app/system/apierror"
	"github.com/dalemusser/mohallahub/internal/app/system/auth"
	"github.com/dalemusser/mohallahub/internal/app/system/events"
	"github.com/dalemusser/mohallahub/internal/app/system/i18n"
	"github.com/dalemusser/mohallahub/internal/app/system/metrics"
	"github.com/dalemusser/mohallahub/internal/app/system/notify"
	"github.com/dalemusser/mohallahub/internal/app/system/otp"
	"github.com/dalemusser/mohallahub/internal/app/system/ratelimit"
	"github.com/dalemusser/mohallahub/internal/app/system/session"
	"github.com/dalemusser/mohallahub/internal/domain/models"
	"github.com/dalemusser/mohallahub/internal/testutil"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type recordingSender struct {
	mu   sync.Mutex
	msgs []notify.OTPMessage
	err  error
}

func (s *recordingSender) SendOTP(_ context.Context, msg notify.OTPMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *recordingSender) last() notify.OTPMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msgs[len(s.msgs)-1]
}

type fixture struct {
	h      *login.Handler
	users  *testutil.MemUsers
	sender *recordingSender
	events *events.Recorder
	issuer *session.Issuer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	users := testutil.NewMemUsers()
	issuer, err := session.NewIssuer("test-signing-secret-at-least-32-bytes")
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	cookies, err := auth.NewCookieTokens("test-session-key-must-be-32-chars-long", "", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewCookieTokens: %v", err)
	}
	issueLimiter := ratelimit.NewMemoryOTPLimiter(ratelimit.Config{IPLimit: 100, IPWindow: time.Minute, PhoneLimit: 100, PhoneWindow: time.Minute})
	verifyLimiter := ratelimit.NewMemoryOTPLimiter(ratelimit.Config{IPLimit: 100, IPWindow: time.Minute, PhoneLimit: 100, PhoneWindow: time.Minute})
	t.Cleanup(issueLimiter.Stop)
	t.Cleanup(verifyLimiter.Stop)

	f := fixture{
		users:  users,
		sender: &recordingSender{},
		events: &events.Recorder{},
		issuer: issuer,
	}
	f.h = &login.Handler{
		Users:         users,
		OTP:           otp.New(users, otp.WithBcryptCost(bcrypt.MinCost)),
		Tokens:        issuer,
		Cookies:       cookies,
		Sender:        f.sender,
		Events:        f.events,
		IssueLimiter:  issueLimiter,
		VerifyLimiter: verifyLimiter,
		Metrics:       metrics.New(nil),
		Errors:        apierror.NewWriter(false, zap.NewNop()),
		DevOTP:        true,
		Log:           zap.NewNop(),
	}
	return f
}

func (f fixture) serve(h http.HandlerFunc, path string, body any) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	h(rec, testutil.NewJSONRequest(http.MethodPost, path, body))
	return rec
}

type otpSent struct {
	Success   bool      `json:"success"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	DevOTP    string    `json:"dev_otp"`
}

type verified struct {
	Success   bool        `json:"success"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

func TestRegister_IssuesCode(t *testing.T) {
	f := newFixture(t)

	rec := f.serve(f.h.HandleRegister, "/auth/register", map[string]string{"phone": "+91 98765 43210"})
	rec.AssertStatus(t, http.StatusCreated)

	var resp otpSent
	rec.DecodeJSON(t, &resp)
	if !resp.Success || resp.UserID == "" {
		t.Errorf("unexpected response %+v", resp)
	}
	if len(resp.DevOTP) != 6 {
		t.Errorf("expected 6-digit dev_otp, got %q", resp.DevOTP)
	}

	msg := f.sender.last()
	if msg.Phone != "9876543210" || msg.Purpose != notify.PurposeRegister || msg.Code != resp.DevOTP {
		t.Errorf("unexpected dispatch %+v", msg)
	}

	u, err := f.users.GetByPhone(context.Background(), "9876543210")
	if err != nil {
		t.Fatalf("user not created: %v", err)
	}
	if u.IsPhoneVerified || u.VerificationLevel != models.LevelBasic {
		t.Errorf("new user should be unverified, got %+v", u)
	}
}

func TestRegister_DuplicatePhone(t *testing.T) {
	f := newFixture(t)
	f.users.Put(testutil.NewUser("9876543210", true, false))

	rec := f.serve(f.h.HandleRegister, "/auth/register", map[string]string{"phone": "9876543210"})
	rec.AssertStatus(t, http.StatusConflict)
	if got := rec.ErrorCode(t); got != i18n.KeyPhoneTaken {
		t.Errorf("code: got %q", got)
	}
}

func TestRegister_InvalidPhone(t *testing.T) {
	f := newFixture(t)

	for _, body := range []any{
		map[string]string{"phone": "12345"},
		map[string]string{"phone": "5876543210"},
		"not json",
	} {
		rec := f.serve(f.h.HandleRegister, "/auth/register", body)
		rec.AssertStatus(t, http.StatusBadRequest)
	}
}

func TestRegister_HidesCodeOutsideDev(t *testing.T) {
	f := newFixture(t)
	f.h.DevOTP = false

	rec := f.serve(f.h.HandleRegister, "/auth/register", map[string]string{"phone": "9876543210"})
	rec.AssertStatus(t, http.StatusCreated)
	var resp otpSent
	rec.DecodeJSON(t, &resp)
	if resp.DevOTP != "" {
		t.Error("dev_otp must be empty outside dev")
	}
}

func TestLogin_UnknownPhone(t *testing.T) {
	f := newFixture(t)

	rec := f.serve(f.h.HandleLogin, "/auth/login", map[string]string{"phone": "9876543210"})
	rec.AssertStatus(t, http.StatusNotFound)
	if got := rec.ErrorCode(t); got != i18n.KeyUserNotFound {
		t.Errorf("code: got %q", got)
	}
}

func TestLogin_SuspendedAccount(t *testing.T) {
	f := newFixture(t)
	u := testutil.NewUser("9876543210", true, false)
	u.Status = models.StatusSuspended
	f.users.Put(u)

	rec := f.serve(f.h.HandleLogin, "/auth/login", map[string]string{"phone": "9876543210"})
	rec.AssertStatus(t, http.StatusUnauthorized)
	if got := rec.ErrorCode(t); got != i18n.KeyAccountInactive {
		t.Errorf("code: got %q", got)
	}
}

func TestLogin_DispatchFailure(t *testing.T) {
	f := newFixture(t)
	f.users.Put(testutil.NewUser("9876543210", true, false))
	f.sender.err = errors.New("gateway down")

	rec := f.serve(f.h.HandleLogin, "/auth/login", map[string]string{"phone": "9876543210"})
	rec.AssertStatus(t, http.StatusInternalServerError)
}

func TestVerify_IssuesSession(t *testing.T) {
	f := newFixture(t)
	f.users.Put(testutil.NewUser("9876543210", false, false))

	rec := f.serve(f.h.HandleLogin, "/auth/login", map[string]string{"phone": "9876543210"})
	rec.AssertStatus(t, http.StatusOK)
	code := f.sender.last().Code

	rec = f.serve(f.h.HandleVerify, "/auth/otp/verify", map[string]string{"phone": "9876543210", "code": code})
	rec.AssertStatus(t, http.StatusOK)

	var resp verified
	rec.DecodeJSON(t, &resp)
	if resp.Token == "" {
		t.Fatal("expected a token")
	}
	if !resp.User.IsPhoneVerified || resp.User.VerificationLevel != models.LevelPhone {
		t.Errorf("expected phone-verified user, got %+v", resp.User)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected session cookie")
	}

	claims, err := f.issuer.Parse(resp.Token)
	if err != nil {
		t.Fatalf("token does not parse: %v", err)
	}
	if claims.UserID() != resp.User.ID.Hex() {
		t.Errorf("token subject %q, want %q", claims.UserID(), resp.User.ID.Hex())
	}

	if got := f.events.Types(); len(got) != 1 || got[0] != events.UserPhoneVerified {
		t.Errorf("expected phone_verified event, got %v", got)
	}

	// The challenge is consumed.
	rec = f.serve(f.h.HandleVerify, "/auth/otp/verify", map[string]string{"phone": "9876543210", "code": code})
	rec.AssertStatus(t, http.StatusBadRequest)
	if got := rec.ErrorCode(t); got != i18n.KeyOTPNoChallenge {
		t.Errorf("code: got %q", got)
	}
}

func TestVerify_WrongCodesExhaustChallenge(t *testing.T) {
	f := newFixture(t)
	f.users.Put(testutil.NewUser("9876543210", false, false))

	f.serve(f.h.HandleLogin, "/auth/login", map[string]string{"phone": "9876543210"})
	code := f.sender.last().Code
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 0; i < otp.MaxAttempts; i++ {
		rec := f.serve(f.h.HandleVerify, "/auth/otp/verify", map[string]string{"phone": "9876543210", "code": wrong})
		rec.AssertStatus(t, http.StatusUnauthorized)
		if got := rec.ErrorCode(t); got != i18n.KeyOTPInvalidCode {
			t.Errorf("attempt %d code: got %q", i+1, got)
		}
	}

	rec := f.serve(f.h.HandleVerify, "/auth/otp/verify", map[string]string{"phone": "9876543210", "code": code})
	rec.AssertStatus(t, http.StatusTooManyRequests)
	if got := rec.ErrorCode(t); got != i18n.KeyOTPAttemptsExceeded {
		t.Errorf("code: got %q", got)
	}

	// Resend issues a fresh challenge that verifies.
	rec = f.serve(f.h.HandleResend, "/auth/otp/resend", map[string]string{"phone": "9876543210"})
	rec.AssertStatus(t, http.StatusOK)
	if f.sender.last().Purpose != notify.PurposeResend {
		t.Errorf("expected resend purpose, got %q", f.sender.last().Purpose)
	}
	rec = f.serve(f.h.HandleVerify, "/auth/otp/verify", map[string]string{"phone": "9876543210", "code": f.sender.last().Code})
	rec.AssertStatus(t, http.StatusOK)
}

func TestVerify_BadFormat(t *testing.T) {
	f := newFixture(t)

	rec := f.serve(f.h.HandleVerify, "/auth/otp/verify", map[string]string{"phone": "9876543210", "code": "12ab56"})
	rec.AssertStatus(t, http.StatusBadRequest)
	if got := rec.ErrorCode(t); got != i18n.KeyInvalidOTPFormat {
		t.Errorf("code: got %q", got)
	}
}

func TestIssue_RateLimited(t *testing.T) {
	f := newFixture(t)
	f.users.Put(testutil.NewUser("9876543210", true, false))
	limiter := ratelimit.NewMemoryOTPLimiter(ratelimit.Config{IPLimit: 100, IPWindow: time.Minute, PhoneLimit: 1, PhoneWindow: time.Minute})
	defer limiter.Stop()
	f.h.IssueLimiter = limiter

	rec := f.serve(f.h.HandleLogin, "/auth/login", map[string]string{"phone": "9876543210"})
	rec.AssertStatus(t, http.StatusOK)

	rec = f.serve(f.h.HandleResend, "/auth/otp/resend", map[string]string{"phone": "9876543210"})
	rec.AssertStatus(t, http.StatusTooManyRequests)
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if got := rec.ErrorCode(t); got != i18n.KeyRateLimited {
		t.Errorf("code: got %q", got)
	}
}
