// internal/app/bootstrap/config.go
package bootstrap

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/mohallahub/internal/app/system/notify"
	"github.com/dalemusser/mohallahub/internal/app/system/otp"
	"github.com/dalemusser/mohallahub/internal/app/system/ratelimit"
	"github.com/dalemusser/mohallahub/internal/app/system/session"
	"github.com/dalemusser/mohallahub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

// Development defaults. ValidateConfig refuses them in prod.
const (
	devJWTSecret = "dev-only-jwt-secret-change-me-0123456789"
)

// appConfigKeys defines the configuration keys for MohallaHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: MOHALLAHUB_MONGO_URI, MOHALLAHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "mohallahub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "", Desc: "Session cookie signing key, 32+ chars (generated per process in dev when blank)"},
	{Name: "session_name", Default: "mohallahub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Session tokens
	{Name: "jwt_secret", Default: devJWTSecret, Desc: "HS256 signing secret for session tokens (32+ bytes)"},
	{Name: "session_ttl", Default: "720h", Desc: "Session token lifetime (e.g., 720h)"},

	// One-time codes
	{Name: "otp_expiry", Default: "10m", Desc: "One-time code expiry (e.g., 10m, 90s)"},
	{Name: "otp_dev_echo", Default: false, Desc: "Return the plaintext code in API responses (ignored in prod)"},

	// Redis
	{Name: "redis_addr", Default: "", Desc: "Redis address for shared rate limits (blank: in-process limits)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},

	// Kafka
	{Name: "kafka_brokers", Default: []string{}, Desc: "Kafka brokers for SMS dispatch (empty: log codes)"},
	{Name: "kafka_topic", Default: notify.DefaultTopic, Desc: "Kafka topic consumed by the SMS gateway"},

	// RabbitMQ
	{Name: "amqp_url", Default: "", Desc: "RabbitMQ URL for domain events (blank: events dropped)"},
	{Name: "amqp_exchange", Default: "mohallahub.events", Desc: "Topic exchange for domain events"},

	// Client addresses
	{Name: "trusted_proxies", Default: []string{}, Desc: "CIDRs of reverse proxies allowed to set X-Forwarded-For (empty: use the connection address)"},

	// Timeouts
	{Name: "timeout_ping", Default: "2s", Desc: "Health check timeout"},
	{Name: "timeout_short", Default: "5s", Desc: "Single read/update timeout"},
	{Name: "timeout_medium", Default: "10s", Desc: "Address verification and stats refresh timeout"},
	{Name: "timeout_long", Default: "30s", Desc: "Background sweep timeout"},

	// Workers
	{Name: "stats_refresh_interval", Default: "15m", Desc: "Neighborhood stats refresh interval (0 disables)"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_neighborhood", Default: "all", Desc: "Neighborhood event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, MOHALLAHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "MOHALLAHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),

		JWTSecret:  appValues.String("jwt_secret"),
		SessionTTL: appValues.Duration("session_ttl", session.DefaultTTL),

		OTPExpiry:  appValues.Duration("otp_expiry", otp.DefaultExpiry),
		OTPDevEcho: appValues.Bool("otp_dev_echo") && coreCfg.Env != "prod",

		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),

		KafkaBrokers: stringList(appValues, "kafka_brokers"),
		KafkaTopic:   appValues.String("kafka_topic"),

		AMQPURL:      appValues.String("amqp_url"),
		AMQPExchange: appValues.String("amqp_exchange"),

		TrustedProxies: stringList(appValues, "trusted_proxies"),

		Timeouts: timeouts.Config{
			Ping:   appValues.Duration("timeout_ping", timeouts.DefaultPing),
			Short:  appValues.Duration("timeout_short", timeouts.DefaultShort),
			Medium: appValues.Duration("timeout_medium", timeouts.DefaultMedium),
			Long:   appValues.Duration("timeout_long", timeouts.DefaultLong),
		},

		StatsRefreshInterval: appValues.Duration("stats_refresh_interval", 15*time.Minute),

		AuditLogAuth:         appValues.String("audit_log_auth"),
		AuditLogNeighborhood: appValues.String("audit_log_neighborhood"),
	}

	// Outside prod a missing cookie key is replaced by a random one; sessions
	// then last until the process restarts.
	if appCfg.SessionKey == "" && coreCfg.Env != "prod" {
		appCfg.SessionKey = base64.RawURLEncoding.EncodeToString(securecookie.GenerateRandomKey(32))
		logger.Warn("session_key not set; generated an ephemeral key for this process")
	}

	return coreCfg, appCfg, nil
}

// stringList reads a list key. Defaults arrive as a []string, YAML lists as
// []any and environment variables as one comma-separated string.
func stringList(values config.AppConfigValues, key string) []string {
	raw := values.StringSlice(key)
	if raw == nil {
		switch v := values[key].(type) {
		case []any:
			for _, item := range v {
				raw = append(raw, fmt.Sprint(item))
			}
		default:
			raw = strings.Split(values.String(key), ",")
		}
	}
	var out []string
	for _, part := range raw {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// MohallaHub validates the MongoDB URI format and the signing secrets before
// attempting to connect anywhere.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if err := validateSecrets(coreCfg.Env, appCfg); err != nil {
		logger.Error("invalid secrets", zap.Error(err))
		return err
	}
	if appCfg.SessionTTL <= 0 {
		return errors.New("session_ttl must be positive")
	}
	if appCfg.OTPExpiry <= 0 {
		return errors.New("otp_expiry must be positive")
	}
	if _, err := ratelimit.ParseTrustedProxies(appCfg.TrustedProxies); err != nil {
		return err
	}
	for _, mode := range []string{appCfg.AuditLogAuth, appCfg.AuditLogNeighborhood} {
		switch mode {
		case "all", "db", "log", "off":
		default:
			return fmt.Errorf("invalid audit log mode %q (want all, db, log or off)", mode)
		}
	}
	return nil
}

func validateSecrets(env string, appCfg AppConfig) error {
	if len(appCfg.JWTSecret) < session.MinSecretLen {
		return fmt.Errorf("jwt_secret must be at least %d bytes", session.MinSecretLen)
	}
	if len(appCfg.SessionKey) < 32 {
		return errors.New("session_key must be at least 32 characters")
	}
	if env == "prod" && appCfg.JWTSecret == devJWTSecret {
		return errors.New("jwt_secret is the development default; set MOHALLAHUB_JWT_SECRET")
	}
	return nil
}
