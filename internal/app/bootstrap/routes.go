// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	errorsfeature "github.com/dalemusser/mohallahub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/mohallahub/internal/app/features/health"
	loginfeature "github.com/dalemusser/mohallahub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/mohallahub/internal/app/features/logout"
	neighborhoodsfeature "github.com/dalemusser/mohallahub/internal/app/features/neighborhoods"
	profilefeature "github.com/dalemusser/mohallahub/internal/app/features/profile"
	userinfofeature "github.com/dalemusser/mohallahub/internal/app/features/userinfo"
	"github.com/dalemusser/mohallahub/internal/app/store/audit"
	neighborhoodstore "github.com/dalemusser/mohallahub/internal/app/store/neighborhoods"
	userstore "github.com/dalemusser/mohallahub/internal/app/store/users"
	"github.com/dalemusser/mohallahub/internal/app/system/apierror"
	"github.com/dalemusser/mohallahub/internal/app/system/auditlog"
	"github.com/dalemusser/mohallahub/internal/app/system/auth"
	"github.com/dalemusser/mohallahub/internal/app/system/otp"
	"github.com/dalemusser/mohallahub/internal/app/system/ratelimit"
	"github.com/dalemusser/mohallahub/internal/app/system/session"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. MohallaHub builds the token issuer, the
// access guard and the rate limiters here, then mounts the JSON feature
// routers: auth, profile, neighborhoods, health and metrics.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	dev := coreCfg.Env != "prod"
	db := deps.MongoDatabase

	issuer, err := session.NewIssuer(appCfg.JWTSecret, session.WithTTL(appCfg.SessionTTL))
	if err != nil {
		logger.Error("session issuer init failed", zap.Error(err))
		return nil, err
	}

	// Secure cookies are enabled in production mode.
	cookies, err := auth.NewCookieTokens(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionTTL, !dev, logger)
	if err != nil {
		logger.Error("session cookie init failed", zap.Error(err))
		return nil, err
	}

	users := userstore.New(db)
	neighborhoods := neighborhoodstore.New(db)
	auditStore := audit.New(db)
	auditLog := auditlog.New(auditStore, logger, auditlog.Config{
		Auth:         appCfg.AuditLogAuth,
		Neighborhood: appCfg.AuditLogNeighborhood,
	})
	errs := apierror.NewWriter(dev, logger)
	guard := auth.NewGuard(issuer, users, cookies, errs, logger)

	trusted, err := ratelimit.ParseTrustedProxies(appCfg.TrustedProxies)
	if err != nil {
		return nil, err
	}

	issueLimiter, verifyLimiter := buildLimiters(deps)
	deps.bg.limiters = append(deps.bg.limiters, issueLimiter, verifyLimiter)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(ratelimit.RealIP(trusted))
	r.Use(errs.Recover)

	errorsHandler := errorsfeature.NewHandler(errs, logger)
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Redis, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", deps.Metrics.Handler())

	// Phone + OTP sign-in
	loginHandler := &loginfeature.Handler{
		Users:         users,
		OTP:           otp.New(users, otp.WithExpiry(appCfg.OTPExpiry)),
		Tokens:        issuer,
		Cookies:       cookies,
		Sender:        deps.Sender,
		Events:        deps.Events,
		IssueLimiter:  issueLimiter,
		VerifyLimiter: verifyLimiter,
		AuditLog:      auditLog,
		Metrics:       deps.Metrics,
		Errors:        errs,
		DevOTP:        appCfg.OTPDevEcho,
		Log:           logger,
	}
	r.Mount("/auth", loginfeature.Routes(loginHandler))

	// Static routes under /auth take precedence over the mount above.
	logoutfeature.MountRoutes(r, logoutfeature.NewHandler(cookies, auditLog, logger), guard)
	userinfofeature.MountRoutes(r, userinfofeature.NewHandler(), guard)

	profileHandler := profilefeature.NewHandler(users, auditStore, auditLog, errs, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler, guard))

	nbHandler := neighborhoodsfeature.NewHandler(neighborhoods, newResolver(deps, logger), deps.Events, auditLog, deps.Metrics, errs, logger)
	r.Mount("/neighborhoods", neighborhoodsfeature.Routes(nbHandler, guard))

	return r, nil
}

// buildLimiters returns the issue and verify limiters, shared through Redis
// when it is configured.
func buildLimiters(deps DBDeps) (issue, verify *ratelimit.OTPLimiter) {
	if deps.Redis != nil {
		return ratelimit.NewRedisOTPLimiter(deps.Redis, "otp-issue", ratelimit.DefaultIssueConfig),
			ratelimit.NewRedisOTPLimiter(deps.Redis, "otp-verify", ratelimit.DefaultVerifyConfig)
	}
	return ratelimit.NewMemoryOTPLimiter(ratelimit.DefaultIssueConfig),
		ratelimit.NewMemoryOTPLimiter(ratelimit.DefaultVerifyConfig)
}
