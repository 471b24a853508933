// Package auth is the access guard. It resolves the caller from a session
// token, checks account status and verification flags, and attaches the
// user to the request context.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	userstore "github.com/dalemusser/mohallahub/internal/app/store/users"
	"github.com/dalemusser/mohallahub/internal/app/system/apierror"
	"github.com/dalemusser/mohallahub/internal/app/system/i18n"
	"github.com/dalemusser/mohallahub/internal/app/system/session"
	"github.com/dalemusser/mohallahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Users loads the caller's current record.
type Users interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Tokens verifies session tokens.
type Tokens interface {
	Parse(token string) (*session.Claims, error)
}

// Guard builds the authentication middlewares.
type Guard struct {
	tokens  Tokens
	users   Users
	cookies *CookieTokens
	errs    *apierror.Writer
	log     *zap.Logger
}

// NewGuard constructs a Guard. cookies may be nil for bearer-only use.
func NewGuard(tokens Tokens, users Users, cookies *CookieTokens, errs *apierror.Writer, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	if errs == nil {
		errs = apierror.NewWriter(false, logger)
	}
	return &Guard{
		tokens:  tokens,
		users:   users,
		cookies: cookies,
		errs:    errs,
		log:     logger,
	}
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user attached by the guard.
func CurrentUser(r *http.Request) (*models.User, bool) {
	u, ok := r.Context().Value(currentUserKey).(*models.User)
	return u, ok && u != nil
}

// WithTestUser attaches u directly, bypassing token checks.
func WithTestUser(r *http.Request, u *models.User) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// TokenFrom returns the bearer token, falling back to the session cookie.
func (g *Guard) TokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return g.cookies.Load(r)
}

// authenticate runs the guard checks in order: token present, token valid,
// user exists, account active, and (unless exempt) phone verified.
func (g *Guard) authenticate(r *http.Request, requirePhone bool) (*models.User, error) {
	token := g.TokenFrom(r)
	if token == "" {
		return nil, apierror.Unauthorized(i18n.KeyTokenMissing, nil)
	}

	claims, err := g.tokens.Parse(token)
	if err != nil {
		if errors.Is(err, session.ErrTokenExpired) {
			return nil, apierror.Unauthorized(i18n.KeyTokenExpired, err)
		}
		return nil, apierror.Unauthorized(i18n.KeyTokenInvalid, err)
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID())
	if err != nil {
		return nil, apierror.Unauthorized(i18n.KeyTokenInvalid, err)
	}

	u, err := g.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return nil, apierror.Unauthorized(i18n.KeyUnauthorized, err)
		}
		return nil, apierror.Internal(err)
	}

	if !u.IsActive() {
		return nil, apierror.Unauthorized(i18n.KeyAccountInactive, nil)
	}
	if requirePhone && !u.IsPhoneVerified {
		return nil, apierror.Forbidden(i18n.KeyPhoneNotVerified)
	}
	return u, nil
}

func (g *Guard) require(requirePhone bool, check func(*models.User) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := g.authenticate(r, requirePhone)
			if err == nil && check != nil {
				err = check(u)
			}
			if err != nil {
				var ae *apierror.Error
				if errors.As(err, &ae) && ae.Kind != apierror.KindInternal {
					g.log.Debug("access denied",
						zap.String("path", r.URL.Path),
						zap.String("code", ae.Code))
				}
				g.errs.Write(w, r, err)
				return
			}
			next.ServeHTTP(w, withUser(r, u))
		})
	}
}

// RequireAuth admits active users with a verified phone.
func (g *Guard) RequireAuth(next http.Handler) http.Handler {
	return g.require(true, nil)(next)
}

// RequireSignedIn admits any active user holding a valid token, whether or
// not the phone is verified.
func (g *Guard) RequireSignedIn(next http.Handler) http.Handler {
	return g.require(false, nil)(next)
}

// RequireAddressVerified admits users who have also joined a neighborhood.
func (g *Guard) RequireAddressVerified(next http.Handler) http.Handler {
	return g.require(true, func(u *models.User) error {
		if !u.IsAddressVerified || u.NeighborhoodID == nil {
			return apierror.Forbidden(i18n.KeyAddressNotVerified)
		}
		return nil
	})(next)
}

// RequireRole admits users whose role is one of allowed.
func (g *Guard) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}
	return g.require(true, func(u *models.User) error {
		if _, ok := set[strings.ToLower(u.Role)]; !ok {
			return apierror.Forbidden(i18n.KeyInsufficientRole)
		}
		return nil
	})
}

// OptionalAuth attaches the user when the request carries a usable token and
// continues anonymously otherwise. It never rejects.
func (g *Guard) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, err := g.authenticate(r, false); err == nil {
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}
