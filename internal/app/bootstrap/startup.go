// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	neighborhoodstore "github.com/dalemusser/mohallahub/internal/app/store/neighborhoods"
	poststore "github.com/dalemusser/mohallahub/internal/app/store/posts"
	userstore "github.com/dalemusser/mohallahub/internal/app/store/users"
	"github.com/dalemusser/mohallahub/internal/app/system/neighborhood"
	"github.com/dalemusser/mohallahub/internal/app/system/timeouts"
	"github.com/dalemusser/mohallahub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// newResolver builds the neighborhood resolver over the Mongo stores.
func newResolver(deps DBDeps, logger *zap.Logger) *neighborhood.Resolver {
	return neighborhood.NewResolver(
		neighborhoodstore.New(deps.MongoDatabase),
		userstore.New(deps.MongoDatabase),
		poststore.New(deps.MongoDatabase),
		logger,
	)
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It applies
// the configured timeouts and starts the background stats refresher.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(appCfg.Timeouts)
	cur := timeouts.Current()
	logger.Info("handler timeouts",
		zap.Duration("ping", cur.Ping),
		zap.Duration("short", cur.Short),
		zap.Duration("medium", cur.Medium),
		zap.Duration("long", cur.Long))

	if appCfg.StatsRefreshInterval <= 0 {
		logger.Info("stats refresher disabled")
		return nil
	}

	refreshed := deps.Metrics.StatsRefreshed.WithLabelValues("scheduled")
	w := workers.NewStatsRefresher(
		neighborhoodstore.New(deps.MongoDatabase),
		newResolver(deps, logger),
		logger,
		appCfg.StatsRefreshInterval,
		refreshed.Inc,
	)
	w.Start()
	deps.bg.statsRefresher = w
	return nil
}
