// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background workers, then closes producers and DB
// connections. Close errors after the first are logged, not returned.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.bg != nil {
		if deps.bg.statsRefresher != nil {
			deps.bg.statsRefresher.Stop()
		}
		for _, l := range deps.bg.limiters {
			l.Stop()
		}
	}

	if deps.Kafka != nil {
		if err := deps.Kafka.Close(); err != nil {
			logger.Warn("Kafka writer close failed", zap.Error(err))
		}
	}
	if deps.AMQP != nil {
		if err := deps.AMQP.Close(); err != nil {
			logger.Warn("AMQP close failed", zap.Error(err))
		}
	}
	if deps.Redis != nil {
		if err := deps.Redis.Close(); err != nil {
			logger.Warn("Redis close failed", zap.Error(err))
		}
	}

	if deps.MongoClient != nil {
		logger.Info("disconnecting MohallaHub MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
