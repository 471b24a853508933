// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/mohallahub/internal/app/system/events"
	"github.com/dalemusser/mohallahub/internal/app/system/metrics"
	"github.com/dalemusser/mohallahub/internal/app/system/notify"
	"github.com/dalemusser/mohallahub/internal/app/system/ratelimit"
	"github.com/dalemusser/mohallahub/internal/app/system/workers"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Redis is nil when redis_addr is blank.
	Redis redis.UniversalClient

	// Sender delivers one-time codes. It is the Kafka sender behind a
	// circuit breaker, or a log-only sender in development.
	Sender notify.Sender
	Kafka  *notify.KafkaSender

	// Events publishes domain events; events.Nop when AMQP is not configured.
	Events events.Publisher
	AMQP   *events.AMQPPublisher

	Metrics *metrics.Metrics

	// bg carries workers started in Startup and BuildHandler through to
	// Shutdown.
	bg *background
}

type background struct {
	statsRefresher *workers.StatsRefresher
	limiters       []*ratelimit.OTPLimiter
}
