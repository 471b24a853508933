package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/mohallahub/internal/app/system/auth"
	"github.com/dalemusser/mohallahub/internal/app/system/i18n"
	"github.com/dalemusser/mohallahub/internal/app/system/session"
	"github.com/dalemusser/mohallahub/internal/domain/models"
	"github.com/dalemusser/mohallahub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const testSecret = "test-signing-secret-at-least-32-bytes"

type env struct {
	guard   *auth.Guard
	issuer  *session.Issuer
	users   *testutil.MemUsers
	cookies *auth.CookieTokens
}

func newEnv(t *testing.T) env {
	t.Helper()
	iss, err := session.NewIssuer(testSecret)
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}
	cookies, err := auth.NewCookieTokens("test-session-key-must-be-32-chars-long", "", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewCookieTokens failed: %v", err)
	}
	users := testutil.NewMemUsers()
	return env{
		guard:   auth.NewGuard(iss, users, cookies, nil, zap.NewNop()),
		issuer:  iss,
		users:   users,
		cookies: cookies,
	}
}

func (e env) token(t *testing.T, u models.User) string {
	t.Helper()
	tok, err := e.issuer.Issue(&u)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	return tok.Value
}

// okHandler records the user the guard attached.
func okHandler(seen **models.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := auth.CurrentUser(r); ok {
			*seen = u
		}
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Success {
		t.Error("expected success=false")
	}
	return body.Code
}

func TestRequireAuth_States(t *testing.T) {
	e := newEnv(t)

	verified := e.users.Put(testutil.NewUser("9876543210", true, false))
	unverified := e.users.Put(testutil.NewUser("9876543211", false, false))
	suspended := testutil.NewUser("9876543212", true, false)
	suspended.Status = models.StatusSuspended
	suspended = e.users.Put(suspended)
	ghost := testutil.NewUser("9876543213", true, false)

	expiredIssuer, _ := session.NewIssuer(testSecret, session.WithClock(func() time.Time {
		return time.Now().Add(-2 * session.DefaultTTL)
	}))
	expired, _ := expiredIssuer.Issue(&verified)

	tests := []struct {
		name     string
		token    string
		wantCode int
		wantKey  string
	}{
		{"no token", "", http.StatusUnauthorized, i18n.KeyTokenMissing},
		{"invalid token", "garbage", http.StatusUnauthorized, i18n.KeyTokenInvalid},
		{"expired token", expired.Value, http.StatusUnauthorized, i18n.KeyTokenExpired},
		{"user missing", e.token(t, ghost), http.StatusUnauthorized, i18n.KeyUnauthorized},
		{"suspended", e.token(t, suspended), http.StatusUnauthorized, i18n.KeyAccountInactive},
		{"phone not verified", e.token(t, unverified), http.StatusForbidden, i18n.KeyPhoneNotVerified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *models.User
			rec := serve(e.guard.RequireAuth(okHandler(&seen)), tt.token)
			if rec.Code != tt.wantCode {
				t.Fatalf("status: got %d, want %d", rec.Code, tt.wantCode)
			}
			if got := errorCode(t, rec); got != tt.wantKey {
				t.Errorf("code: got %q, want %q", got, tt.wantKey)
			}
			if seen != nil {
				t.Error("handler should not run")
			}
		})
	}

	t.Run("admitted", func(t *testing.T) {
		var seen *models.User
		rec := serve(e.guard.RequireAuth(okHandler(&seen)), e.token(t, verified))
		if rec.Code != http.StatusOK {
			t.Fatalf("status: got %d, want 200", rec.Code)
		}
		if seen == nil || seen.ID != verified.ID {
			t.Errorf("expected user %v in context, got %+v", verified.ID, seen)
		}
	})
}

func TestRequireSignedIn_ExemptFromPhoneCheck(t *testing.T) {
	e := newEnv(t)
	u := e.users.Put(testutil.NewUser("9876543210", false, false))

	var seen *models.User
	rec := serve(e.guard.RequireSignedIn(okHandler(&seen)), e.token(t, u))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if seen == nil || seen.ID != u.ID {
		t.Error("expected user in context")
	}

	rec = serve(e.guard.RequireSignedIn(okHandler(&seen)), "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status without token: got %d, want 401", rec.Code)
	}
}

func TestRequireAddressVerified(t *testing.T) {
	e := newEnv(t)

	phoneOnly := e.users.Put(testutil.NewUser("9876543210", true, false))
	resident := testutil.NewUser("9876543211", true, true)
	nb := primitive.NewObjectID()
	resident.NeighborhoodID = &nb
	resident = e.users.Put(resident)

	var seen *models.User
	rec := serve(e.guard.RequireAddressVerified(okHandler(&seen)), e.token(t, phoneOnly))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want 403", rec.Code)
	}
	if got := errorCode(t, rec); got != i18n.KeyAddressNotVerified {
		t.Errorf("code: got %q", got)
	}

	rec = serve(e.guard.RequireAddressVerified(okHandler(&seen)), e.token(t, resident))
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	e := newEnv(t)

	member := e.users.Put(testutil.NewUser("9876543210", true, false))
	mod := testutil.NewUser("9876543211", true, false)
	mod.Role = models.RoleModerator
	mod = e.users.Put(mod)

	mw := e.guard.RequireRole(models.RoleModerator, models.RoleAdmin)
	var seen *models.User

	rec := serve(mw(okHandler(&seen)), e.token(t, member))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("member: got %d, want 403", rec.Code)
	}
	if got := errorCode(t, rec); got != i18n.KeyInsufficientRole {
		t.Errorf("code: got %q", got)
	}

	rec = serve(mw(okHandler(&seen)), e.token(t, mod))
	if rec.Code != http.StatusOK {
		t.Errorf("moderator: got %d, want 200", rec.Code)
	}

	rec = serve(mw(okHandler(&seen)), "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: got %d, want 401", rec.Code)
	}
}

func TestOptionalAuth(t *testing.T) {
	e := newEnv(t)
	u := e.users.Put(testutil.NewUser("9876543210", false, false))

	tests := []struct {
		name     string
		token    string
		wantUser bool
	}{
		{"anonymous", "", false},
		{"bad token", "garbage", false},
		{"signed in", e.token(t, u), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *models.User
			rec := serve(e.guard.OptionalAuth(okHandler(&seen)), tt.token)
			if rec.Code != http.StatusOK {
				t.Fatalf("status: got %d, want 200", rec.Code)
			}
			if (seen != nil) != tt.wantUser {
				t.Errorf("user attached: got %v, want %v", seen != nil, tt.wantUser)
			}
		})
	}
}

func TestCookieToken(t *testing.T) {
	e := newEnv(t)
	u := e.users.Put(testutil.NewUser("9876543210", true, false))

	// Save the token the way the verify endpoint does.
	saveRec := httptest.NewRecorder()
	saveReq := httptest.NewRequest(http.MethodPost, "/auth/otp/verify", nil)
	if err := e.cookies.Save(saveRec, saveReq, e.token(t, u)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	cookies := saveRec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}
	if !cookies[0].HttpOnly {
		t.Error("expected HttpOnly cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	var seen *models.User
	rec := httptest.NewRecorder()
	e.guard.RequireAuth(okHandler(&seen)).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("cookie auth: got %d, want 200", rec.Code)
	}

	clearRec := httptest.NewRecorder()
	if err := e.cookies.Clear(clearRec, req); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	cleared := clearRec.Result().Cookies()
	if len(cleared) == 0 || cleared[0].MaxAge >= 0 {
		t.Errorf("expected expiring cookie, got %+v", cleared)
	}
}

func TestTokenFrom_PrefersBearer(t *testing.T) {
	e := newEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer abc")
	if got := e.guard.TokenFrom(req); got != "abc" {
		t.Errorf("got %q, want abc", got)
	}

	req.Header.Set("Authorization", "Basic abc")
	if got := e.guard.TokenFrom(req); got != "" {
		t.Errorf("non-bearer scheme: got %q, want empty", got)
	}
}

func TestCookieTokens_SameSiteLaxInProduction(t *testing.T) {
	for _, secure := range []bool{false, true} {
		cookies, err := auth.NewCookieTokens("test-session-key-must-be-32-chars-long", "", "", time.Hour, secure, zap.NewNop())
		if err != nil {
			t.Fatalf("NewCookieTokens failed: %v", err)
		}
		rec := httptest.NewRecorder()
		if err := cookies.Save(rec, httptest.NewRequest(http.MethodPost, "/auth/otp/verify", nil), "tok"); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		got := rec.Result().Cookies()
		if len(got) == 0 {
			t.Fatal("expected a session cookie")
		}
		if got[0].SameSite != http.SameSiteLaxMode {
			t.Errorf("secure=%v: SameSite = %v, want Lax", secure, got[0].SameSite)
		}
		if got[0].Secure != secure {
			t.Errorf("secure=%v: Secure flag = %v", secure, got[0].Secure)
		}
	}
}
