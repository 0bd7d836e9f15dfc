package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/feastly/catalog-cache/config"
	"github.com/feastly/catalog-cache/geo"
	"github.com/feastly/catalog-cache/internal/telemetry"
	"github.com/feastly/catalog-cache/model"
	"github.com/feastly/catalog-cache/notify"
	"github.com/feastly/catalog-cache/remote"
	"github.com/feastly/catalog-cache/store"
	"github.com/feastly/catalog-cache/store/dto"
)

type storeUseCase struct {
	repo    store.Repository
	fetcher remote.StoreFetcher
	hub     *notify.Hub
	cfg     config.CacheConfig
	logger  *zap.Logger
	group   singleflight.Group
}

func NewStoreUseCase(repo store.Repository, fetcher remote.StoreFetcher, hub *notify.Hub, cfg config.CacheConfig, log *zap.Logger) store.UseCase {
	return &storeUseCase{
		repo:    repo,
		fetcher: fetcher,
		hub:     hub,
		cfg:     cfg,
		logger:  log,
	}
}

// Ingest stamps cache metadata and writes the batch through. The fetch center
// lands in user_latitude/user_longitude; the store's own coordinates are
// whatever the API sent, including absent.
func (uc *storeUseCase) Ingest(ctx context.Context, stores []model.CachedStore, center geo.Center) error {
	if len(stores) == 0 {
		return nil
	}

	now := time.Now().UnixMilli()
	keys := make([]string, 0, len(stores))
	for i := range stores {
		lat, lng := center.Lat, center.Lng
		stores[i].CachedAt = now
		stores[i].UserLatitude = &lat
		stores[i].UserLongitude = &lng
		keys = append(keys, stores[i].ID)
	}

	if err := uc.repo.UpsertMany(ctx, stores); err != nil {
		return err
	}

	uc.hub.Publish(model.EntityStore, model.OpUpsert, keys)
	return nil
}

func (uc *storeUseCase) RefreshNearby(ctx context.Context, q *dto.NearbyQuery) ([]model.CachedStore, error) {
	center := geo.Center{Lat: q.Lat, Lng: q.Lng, RadiusKm: q.RadiusKm}

	key := fmt.Sprintf("%.4f:%.4f:%.1f", q.Lat, q.Lng, q.RadiusKm)
	out, err, _ := uc.group.Do(key, func() (interface{}, error) {
		fresh, err := uc.fetcher.FetchNearbyStores(ctx, center)
		if err != nil {
			telemetry.RefreshTotal.WithLabelValues("store", "failure").Inc()
			return nil, err
		}
		if err := uc.Ingest(ctx, fresh, center); err != nil {
			return nil, err
		}
		telemetry.RefreshTotal.WithLabelValues("store", "success").Inc()
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return uc.dropCenterArtifacts(out.([]model.CachedStore), center), nil
}

func (uc *storeUseCase) CachedNearby(ctx context.Context, q *dto.NearbyQuery) ([]model.CachedStore, error) {
	limit := uc.limit(q.Limit)
	center := geo.Center{Lat: q.Lat, Lng: q.Lng, RadiusKm: q.RadiusKm}
	box := geo.BoundingBox(center)

	near, err := uc.repo.NearLocation(ctx, box, limit)
	if err != nil {
		uc.logger.Warn("near-location fallback read failed", zap.Error(err))
	}
	near = uc.dropCenterArtifacts(near, center)
	if len(near) > 0 {
		telemetry.FallbackServed.WithLabelValues("store", "near").Inc()
		return near, nil
	}

	recent, err := uc.repo.Recent(ctx, limit)
	if err != nil {
		uc.logger.Warn("recent fallback read failed", zap.Error(err))
	}
	if len(recent) > 0 {
		telemetry.FallbackServed.WithLabelValues("store", "recent").Inc()
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
		telemetry.FallbackServed.WithLabelValues("store", "all").Inc()
		return all, nil
	}

	telemetry.FallbackServed.WithLabelValues("store", "empty").Inc()
	return []model.CachedStore{}, nil
}

func (uc *storeUseCase) FindNearby(ctx context.Context, q *dto.NearbyQuery) ([]model.CachedStore, error) {
	fresh, err := uc.RefreshNearby(ctx, q)
	if err == nil {
		return fresh, nil
	}

	uc.logger.Info("remote fetch failed, serving cached stores", zap.Error(err))
	return uc.CachedNearby(ctx, q)
}

func (uc *storeUseCase) Search(ctx context.Context, q *dto.SearchQuery) ([]model.CachedStore, error) {
	query := strings.TrimSpace(q.Query)
	if query == "" {
		return []model.CachedStore{}, nil
	}
	return uc.repo.Search(ctx, query, uc.limit(q.Limit))
}

func (uc *storeUseCase) ByType(ctx context.Context, storeType string, limit int) ([]model.CachedStore, error) {
	return uc.repo.ByType(ctx, storeType, uc.limit(limit))
}

func (uc *storeUseCase) Types(ctx context.Context) ([]string, error) {
	return uc.repo.Types(ctx)
}

func (uc *storeUseCase) GetStore(ctx context.Context, id string) (*model.CachedStore, error) {
	return uc.repo.GetByID(ctx, id)
}

func (uc *storeUseCase) GetStoreNow(id string) (*model.CachedStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), uc.cfg.SyncReadTimeout)
	defer cancel()
	return uc.repo.GetByID(ctx, id)
}

func (uc *storeUseCase) Count(ctx context.Context) (int64, error) {
	return uc.repo.Count(ctx)
}

func (uc *storeUseCase) Forget(ctx context.Context, id string) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.hub.Publish(model.EntityStore, model.OpDelete, []string{id})
	return nil
}

func (uc *storeUseCase) EvictOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	removed, err := uc.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		telemetry.EvictedRows.WithLabelValues("store").Add(float64(removed))
		uc.hub.Publish(model.EntityStore, model.OpEvict, nil)
	}
	return removed, nil
}

func (uc *storeUseCase) Clear(ctx context.Context) error {
	if err := uc.repo.DeleteAll(ctx); err != nil {
		return err
	}
	uc.hub.Publish(model.EntityStore, model.OpClear, nil)
	return nil
}

// dropCenterArtifacts filters stores geocoded exactly onto the search center,
// which upstream produces for records with unknown addresses. Tolerance is
// configurable; zero disables the filter. Only the store's true coordinates
// are compared — the fetch-center fallback pair always equals the center.
func (uc *storeUseCase) dropCenterArtifacts(stores []model.CachedStore, center geo.Center) []model.CachedStore {
	tol := uc.cfg.CenterTolerance
	if tol <= 0 {
		return stores
	}

	// Copy rather than filter in place: singleflight can hand the same
	// backing array to several callers.
	kept := make([]model.CachedStore, 0, len(stores))
	for _, st := range stores {
		if st.Latitude != nil && st.Longitude != nil &&
			math.Abs(*st.Latitude-center.Lat) < tol &&
			math.Abs(*st.Longitude-center.Lng) < tol {
			continue
		}
		kept = append(kept, st)
	}
	return kept
}

func (uc *storeUseCase) limit(requested int) int {
	if requested > 0 {
		return requested
	}
	if uc.cfg.DefaultLimit > 0 {
		return uc.cfg.DefaultLimit
	}
	return 50
}
