package remote

import (
	"context"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/feastly/catalog-cache/config"
	"github.com/feastly/catalog-cache/errs"
	"github.com/feastly/catalog-cache/geo"
	"github.com/feastly/catalog-cache/model"
)

func newBreaker(name string, cfg config.BreakerConfig, log *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// BreakerItemFetcher shields the item fetcher behind a circuit breaker. An
// open breaker surfaces as a remote failure, which flows into the normal
// stale-cache fallback chain.
type BreakerItemFetcher struct {
	next ItemFetcher
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerItemFetcher(next ItemFetcher, cfg config.BreakerConfig, log *zap.Logger) *BreakerItemFetcher {
	return &BreakerItemFetcher{
		next: next,
		cb:   newBreaker("item-fetch", cfg, log),
	}
}

func (f *BreakerItemFetcher) FetchNearbyItems(ctx context.Context, center geo.Center) ([]model.CachedItem, error) {
	out, err := f.cb.Execute(func() (interface{}, error) {
		return f.next.FetchNearbyItems(ctx, center)
	})
	if err != nil {
		return nil, errs.Remote("fetch nearby items", err)
	}
	return out.([]model.CachedItem), nil
}

// BreakerStoreFetcher shields the store fetcher behind a circuit breaker.
type BreakerStoreFetcher struct {
	next StoreFetcher
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerStoreFetcher(next StoreFetcher, cfg config.BreakerConfig, log *zap.Logger) *BreakerStoreFetcher {
	return &BreakerStoreFetcher{
		next: next,
		cb:   newBreaker("store-fetch", cfg, log),
	}
}

func (f *BreakerStoreFetcher) FetchNearbyStores(ctx context.Context, center geo.Center) ([]model.CachedStore, error) {
	out, err := f.cb.Execute(func() (interface{}, error) {
		return f.next.FetchNearbyStores(ctx, center)
	})
	if err != nil {
		return nil, errs.Remote("fetch nearby stores", err)
	}
	return out.([]model.CachedStore), nil
}
