package store

import (
	"context"

	"github.com/feastly/catalog-cache/geo"
	"github.com/feastly/catalog-cache/model"
	"github.com/feastly/catalog-cache/store/dto"
)

// UseCase is the refresh/fallback policy over the store cache.
type UseCase interface {
	Ingest(ctx context.Context, stores []model.CachedStore, center geo.Center) error

	RefreshNearby(ctx context.Context, q *dto.NearbyQuery) ([]model.CachedStore, error)
	CachedNearby(ctx context.Context, q *dto.NearbyQuery) ([]model.CachedStore, error)
	FindNearby(ctx context.Context, q *dto.NearbyQuery) ([]model.CachedStore, error)

	Search(ctx context.Context, q *dto.SearchQuery) ([]model.CachedStore, error)
	ByType(ctx context.Context, storeType string, limit int) ([]model.CachedStore, error)
	Types(ctx context.Context) ([]string, error)

	GetStore(ctx context.Context, id string) (*model.CachedStore, error)
	GetStoreNow(id string) (*model.CachedStore, error)

	Count(ctx context.Context) (int64, error)

	Forget(ctx context.Context, id string) error
	EvictOlderThan(ctx context.Context, cutoff int64) (int64, error)
	Clear(ctx context.Context) error
}
