// Package maintenance runs age-based eviction on a schedule. The retention
// window and sweep interval come from the embedding application; this
// component never hardcodes them.
package maintenance

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Evictor is the one operation the janitor needs from a policy layer.
type Evictor interface {
	EvictOlderThan(ctx context.Context, cutoff int64) (int64, error)
}

type Janitor struct {
	items     Evictor
	stores    Evictor
	retention time.Duration
	interval  time.Duration
	logger    *zap.Logger
}

func NewJanitor(items, stores Evictor, retention, interval time.Duration, log *zap.Logger) *Janitor {
	return &Janitor{
		items:     items,
		stores:    stores,
		retention: retention,
		interval:  interval,
		logger:    log,
	}
}

// Start sweeps until the context is cancelled. Run it in its own goroutine.
func (j *Janitor) Start(ctx context.Context) {
	j.logger.Info("starting cache janitor",
		zap.Duration("retention", j.retention),
		zap.Duration("interval", j.interval),
	)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("stopping cache janitor")
			return
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep deletes rows older than the retention window once. Faults are logged
// and swallowed so one bad sweep does not stop the schedule; the next tick
// retries naturally.
func (j *Janitor) Sweep(ctx context.Context) {
	cutoff := time.Now().Add(-j.retention).UnixMilli()
	start := time.Now()

	itemsRemoved, err := j.items.EvictOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.Error("item eviction sweep failed", zap.Error(err))
	}

	storesRemoved, err := j.stores.EvictOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.Error("store eviction sweep failed", zap.Error(err))
	}

	if itemsRemoved > 0 || storesRemoved > 0 {
		j.logger.Info("eviction sweep finished",
			zap.Int64("items_removed", itemsRemoved),
			zap.Int64("stores_removed", storesRemoved),
			zap.Duration("took", time.Since(start)),
		)
	}
}
