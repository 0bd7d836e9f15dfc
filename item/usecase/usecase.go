package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/feastly/catalog-cache/config"
	"github.com/feastly/catalog-cache/geo"
	"github.com/feastly/catalog-cache/internal/telemetry"
	"github.com/feastly/catalog-cache/item"
	"github.com/feastly/catalog-cache/item/dto"
	"github.com/feastly/catalog-cache/model"
	"github.com/feastly/catalog-cache/notify"
	"github.com/feastly/catalog-cache/remote"
)

type itemUseCase struct {
	repo    item.Repository
	fetcher remote.ItemFetcher
	hub     *notify.Hub
	cfg     config.CacheConfig
	logger  *zap.Logger
	group   singleflight.Group
}

func NewItemUseCase(repo item.Repository, fetcher remote.ItemFetcher, hub *notify.Hub, cfg config.CacheConfig, log *zap.Logger) item.UseCase {
	return &itemUseCase{
		repo:    repo,
		fetcher: fetcher,
		hub:     hub,
		cfg:     cfg,
		logger:  log,
	}
}

// Ingest stamps cache metadata and writes the batch through. The fetch
// center becomes each record's fallback location; it is set here once and
// never back-filled later.
func (uc *itemUseCase) Ingest(ctx context.Context, items []model.CachedItem, center geo.Center) error {
	if len(items) == 0 {
		return nil
	}

	now := time.Now().UnixMilli()
	keys := make([]string, 0, len(items))
	for i := range items {
		lat, lng := center.Lat, center.Lng
		items[i].CachedAt = now
		items[i].Latitude = &lat
		items[i].Longitude = &lng
		keys = append(keys, items[i].ID)
	}

	if err := uc.repo.UpsertMany(ctx, items); err != nil {
		return err
	}

	uc.hub.Publish(model.EntityItem, model.OpUpsert, keys)
	return nil
}

func (uc *itemUseCase) RefreshNearby(ctx context.Context, q *dto.NearbyQuery) ([]model.CachedItem, error) {
	center := geo.Center{Lat: q.Lat, Lng: q.Lng, RadiusKm: q.RadiusKm}

	// Callers debounce upstream; singleflight additionally collapses
	// identical refreshes that race through anyway.
	key := fmt.Sprintf("%.4f:%.4f:%.1f", q.Lat, q.Lng, q.RadiusKm)
	out, err, _ := uc.group.Do(key, func() (interface{}, error) {
		fresh, err := uc.fetcher.FetchNearbyItems(ctx, center)
		if err != nil {
			telemetry.RefreshTotal.WithLabelValues("item", "failure").Inc()
			return nil, err
		}
		if err := uc.Ingest(ctx, fresh, center); err != nil {
			// A failed upsert must not be confused with "no new data".
			return nil, err
		}
		telemetry.RefreshTotal.WithLabelValues("item", "success").Inc()
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return out.([]model.CachedItem), nil
}

// CachedNearby serves a possibly-stale answer through the three-tier
// fallback, stopping at the first non-empty tier. Read faults here degrade to
// the next tier: the caller already has a network failure to report and a
// secondary storage error should not mask it.
func (uc *itemUseCase) CachedNearby(ctx context.Context, q *dto.NearbyQuery) ([]model.CachedItem, error) {
	limit := uc.limit(q.Limit)
	box := geo.BoundingBox(geo.Center{Lat: q.Lat, Lng: q.Lng, RadiusKm: q.RadiusKm})

	near, err := uc.repo.NearLocation(ctx, box, limit)
	if err != nil {
		uc.logger.Warn("near-location fallback read failed", zap.Error(err))
	}
	if len(near) > 0 {
		telemetry.FallbackServed.WithLabelValues("item", "near").Inc()
		return near, nil
	}

	recent, err := uc.repo.Recent(ctx, limit)
	if err != nil {
		uc.logger.Warn("recent fallback read failed", zap.Error(err))
	}
	if len(recent) > 0 {
		telemetry.FallbackServed.WithLabelValues("item", "recent").Inc()
		return recent, nil
	}

	all, err := uc.repo.GetAll(ctx)
	if err != nil {
		uc.logger.Warn("unbounded fallback read failed", zap.Error(err))
	}
	if len(all) > limit {
		all = all[:limit]
	}
	if len(all) > 0 {
		telemetry.FallbackServed.WithLabelValues("item", "all").Inc()
		return all, nil
	}

	telemetry.FallbackServed.WithLabelValues("item", "empty").Inc()
	return []model.CachedItem{}, nil
}

func (uc *itemUseCase) FindNearby(ctx context.Context, q *dto.NearbyQuery) ([]model.CachedItem, error) {
	fresh, err := uc.RefreshNearby(ctx, q)
	if err == nil {
		return fresh, nil
	}

	uc.logger.Info("remote fetch failed, serving cached items", zap.Error(err))
	return uc.CachedNearby(ctx, q)
}

func (uc *itemUseCase) Search(ctx context.Context, q *dto.SearchQuery) ([]model.CachedItem, error) {
	query := strings.TrimSpace(q.Query)
	if query == "" {
		return []model.CachedItem{}, nil
	}
	return uc.repo.Search(ctx, query, q.StoreID, uc.limit(q.Limit))
}

func (uc *itemUseCase) ByCategory(ctx context.Context, category string, limit int) ([]model.CachedItem, error) {
	return uc.repo.ByCategory(ctx, category, uc.limit(limit))
}

func (uc *itemUseCase) Categories(ctx context.Context) ([]string, error) {
	return uc.repo.Categories(ctx)
}

func (uc *itemUseCase) GetItem(ctx context.Context, id string) (*model.CachedItem, error) {
	return uc.repo.GetByID(ctx, id)
}

// GetItemNow is the bounded synchronous point read. It may return stale data;
// it must never wait longer than a local-storage read.
func (uc *itemUseCase) GetItemNow(id string) (*model.CachedItem, error) {
	ctx, cancel := context.WithTimeout(context.Background(), uc.cfg.SyncReadTimeout)
	defer cancel()
	return uc.repo.GetByID(ctx, id)
}

func (uc *itemUseCase) Count(ctx context.Context) (int64, error) {
	return uc.repo.Count(ctx)
}

func (uc *itemUseCase) CountForStore(ctx context.Context, storeID string) (int64, error) {
	return uc.repo.CountForStore(ctx, storeID)
}

func (uc *itemUseCase) Forget(ctx context.Context, id string) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.hub.Publish(model.EntityItem, model.OpDelete, []string{id})
	return nil
}

func (uc *itemUseCase) ForgetStore(ctx context.Context, storeID string) error {
	if err := uc.repo.DeleteForStore(ctx, storeID); err != nil {
		return err
	}
	uc.hub.Publish(model.EntityItem, model.OpDelete, nil)
	return nil
}

func (uc *itemUseCase) EvictOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	removed, err := uc.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		telemetry.EvictedRows.WithLabelValues("item").Add(float64(removed))
		uc.hub.Publish(model.EntityItem, model.OpEvict, nil)
	}
	return removed, nil
}

func (uc *itemUseCase) Clear(ctx context.Context) error {
	if err := uc.repo.DeleteAll(ctx); err != nil {
		return err
	}
	uc.hub.Publish(model.EntityItem, model.OpClear, nil)
	return nil
}

func (uc *itemUseCase) limit(requested int) int {
	if requested > 0 {
		return requested
	}
	if uc.cfg.DefaultLimit > 0 {
		return uc.cfg.DefaultLimit
	}
	return 50
}
