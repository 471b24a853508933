// internal/app/bootstrap/connect.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dalemusser/mohallahub/internal/app/system/events"
	"github.com/dalemusser/mohallahub/internal/app/system/metrics"
	"github.com/dalemusser/mohallahub/internal/app/system/notify"
	"github.com/dalemusser/waffle/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// connectRetryWindow bounds how long startup waits for a backend to come up.
const connectRetryWindow = 30 * time.Second

// ConnectDB connects MongoDB and the optional Redis, Kafka and RabbitMQ
// backends. Only MongoDB is required; the others degrade to in-process or
// log-only stand-ins when unset.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	client, err := connectMongo(ctx, appCfg, logger)
	if err != nil {
		return DBDeps{}, err
	}

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
		Metrics:       metrics.New(prometheus.NewRegistry()),
		bg:            &background{},
	}

	if appCfg.RedisAddr != "" {
		deps.Redis = connectRedis(ctx, appCfg, logger)
	}

	var sender notify.Sender
	if len(appCfg.KafkaBrokers) > 0 {
		deps.Kafka = notify.NewKafkaSender(appCfg.KafkaBrokers, appCfg.KafkaTopic)
		sender = deps.Kafka
		logger.Info("SMS dispatch via Kafka",
			zap.Strings("brokers", appCfg.KafkaBrokers),
			zap.String("topic", appCfg.KafkaTopic))
	} else {
		if coreCfg.Env == "prod" {
			logger.Warn("kafka_brokers not set; one-time codes will only be logged")
		}
		sender = notify.NewLogSender(logger)
	}
	deps.Sender = notify.NewBreaker(sender, notify.DefaultBreakerConfig, logger)

	deps.Events = events.Nop{}
	if appCfg.AMQPURL != "" {
		pub, err := events.NewAMQPPublisher(appCfg.AMQPURL, appCfg.AMQPExchange)
		if err != nil {
			logger.Warn("AMQP unavailable; domain events will be dropped", zap.Error(err))
		} else {
			deps.AMQP = pub
			deps.Events = pub
			logger.Info("domain events via AMQP", zap.String("exchange", appCfg.AMQPExchange))
		}
	}

	return deps, nil
}

// connectMongo dials MongoDB and retries the first ping with exponential
// backoff so the app can start alongside its database.
func connectMongo(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = connectRetryWindow
	ping := func() error {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return client.Ping(pctx, readpref.Primary())
	}
	notifyRetry := func(err error, wait time.Duration) {
		logger.Warn("MongoDB not reachable yet; retrying", zap.Duration("wait", wait), zap.Error(err))
	}
	if err := backoff.RetryNotify(ping, backoff.WithContext(b, ctx), notifyRetry); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))
	return client, nil
}

// connectRedis builds the client and checks it once. An unreachable Redis is
// not fatal: the rate limiter fails open until it recovers.
func connectRedis(ctx context.Context, appCfg AppConfig, logger *zap.Logger) redis.UniversalClient {
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{appCfg.RedisAddr},
		Password: appCfg.RedisPassword,
		DB:       appCfg.RedisDB,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		logger.Warn("Redis not reachable; rate limits will fail open", zap.String("addr", appCfg.RedisAddr), zap.Error(err))
	} else {
		logger.Info("connected to Redis", zap.String("addr", appCfg.RedisAddr))
	}
	return rdb
}
