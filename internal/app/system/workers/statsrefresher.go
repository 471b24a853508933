// internal/app/system/workers/statsrefresher.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/mohallahub/internal/app/system/timeouts"
	"github.com/dalemusser/mohallahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// NeighborhoodLister enumerates neighborhoods to refresh.
type NeighborhoodLister interface {
	ListIDs(ctx context.Context) ([]primitive.ObjectID, error)
}

// StatsComputer recomputes and persists one neighborhood's stats.
type StatsComputer interface {
	RecomputeStats(ctx context.Context, id primitive.ObjectID) (models.NeighborhoodStats, error)
}

// StatsRefresher is a background worker that recomputes every
// neighborhood's stats snapshot on an interval.
type StatsRefresher struct {
	lister    NeighborhoodLister
	computer  StatsComputer
	log       *zap.Logger
	interval  time.Duration
	onRefresh func()
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewStatsRefresher creates a new stats refresher. onRefresh, when non-nil,
// runs after each successful neighborhood recompute.
func NewStatsRefresher(lister NeighborhoodLister, computer StatsComputer, logger *zap.Logger, interval time.Duration, onRefresh func()) *StatsRefresher {
	return &StatsRefresher{
		lister:    lister,
		computer:  computer,
		log:       logger,
		interval:  interval,
		onRefresh: onRefresh,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the background refresh loop.
func (w *StatsRefresher) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("stats refresher started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *StatsRefresher) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("stats refresher stopped")
}

func (w *StatsRefresher) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := timeouts.WithTimeout(context.Background(), timeouts.Long(), w.log, "stats refresh")
			w.RunOnce(ctx)
			cancel()
		}
	}
}

// RunOnce recomputes every neighborhood and returns how many succeeded.
// A failure on one neighborhood is logged and the sweep continues.
func (w *StatsRefresher) RunOnce(ctx context.Context) int {
	ids, err := w.lister.ListIDs(ctx)
	if err != nil {
		w.log.Error("failed to list neighborhoods for stats refresh", zap.Error(err))
		return 0
	}

	refreshed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			w.log.Warn("stats refresh interrupted",
				zap.Int("refreshed", refreshed),
				zap.Int("total", len(ids)))
			break
		}
		if _, err := w.computer.RecomputeStats(ctx, id); err != nil {
			w.log.Error("failed to refresh neighborhood stats",
				zap.String("neighborhood_id", id.Hex()),
				zap.Error(err))
			continue
		}
		refreshed++
		if w.onRefresh != nil {
			w.onRefresh()
		}
	}

	if refreshed > 0 {
		w.log.Debug("refreshed neighborhood stats", zap.Int("count", refreshed))
	}
	return refreshed
}
