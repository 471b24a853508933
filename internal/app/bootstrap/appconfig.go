// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/mohallahub/internal/app/system/timeouts"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration (ports, TLS, logging level).
//
// The struct is passed to most lifecycle hooks, so any configuration needed
// during startup, request handling, or shutdown should live here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session cookie configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: mohallahub-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Session tokens
	JWTSecret  string        // HS256 signing secret, at least 32 bytes
	SessionTTL time.Duration // Token and cookie lifetime

	// One-time codes
	OTPExpiry  time.Duration // How long an issued code stays valid
	OTPDevEcho bool          // Echo plaintext codes in API responses (dev only)

	// Redis (rate limiting). Blank address keeps limits in-process.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Kafka (SMS dispatch). Blank brokers log codes instead of sending them.
	KafkaBrokers []string
	KafkaTopic   string

	// RabbitMQ (domain events). Blank URL drops events.
	AMQPURL      string
	AMQPExchange string

	// Proxies (CIDRs) whose X-Forwarded-For / X-Real-IP headers are trusted.
	// Empty means the connection address is always the client address.
	TrustedProxies []string

	// Handler timeouts; zero values keep the package defaults.
	Timeouts timeouts.Config

	// Background stats refresh; zero disables the worker.
	StatsRefreshInterval time.Duration

	// Audit logging: "all" (db+log), "db", "log", or "off"
	AuditLogAuth         string
	AuditLogNeighborhood string
}
