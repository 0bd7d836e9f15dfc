package item

import (
	"context"

	"github.com/feastly/catalog-cache/geo"
	"github.com/feastly/catalog-cache/item/dto"
	"github.com/feastly/catalog-cache/model"
)

// UseCase is the refresh/fallback policy over the item cache. The cache is
// write-through: it is only ever updated as a side effect of a successful
// remote fetch, never speculatively.
type UseCase interface {
	// Ingest stamps every record with cachedAt=now and the fetch center as
	// its fallback location, then upserts the batch.
	Ingest(ctx context.Context, items []model.CachedItem, center geo.Center) error

	// RefreshNearby fetches from the remote collaborator and ingests the
	// result. On remote failure nothing is written.
	RefreshNearby(ctx context.Context, q *dto.NearbyQuery) ([]model.CachedItem, error)

	// CachedNearby serves stale data via the three-tier fallback:
	// bounding box, then recent, then everything (truncated).
	CachedNearby(ctx context.Context, q *dto.NearbyQuery) ([]model.CachedItem, error)

	// FindNearby refreshes, and on remote failure falls back to CachedNearby.
	FindNearby(ctx context.Context, q *dto.NearbyQuery) ([]model.CachedItem, error)

	// Search and facet lookups are local-only; empty results do not widen.
	Search(ctx context.Context, q *dto.SearchQuery) ([]model.CachedItem, error)
	ByCategory(ctx context.Context, category string, limit int) ([]model.CachedItem, error)
	Categories(ctx context.Context) ([]string, error)

	GetItem(ctx context.Context, id string) (*model.CachedItem, error)
	// GetItemNow is the bounded synchronous point read; it may return stale
	// data and never waits longer than the configured deadline.
	GetItemNow(id string) (*model.CachedItem, error)

	Count(ctx context.Context) (int64, error)
	CountForStore(ctx context.Context, storeID string) (int64, error)

	Forget(ctx context.Context, id string) error
	ForgetStore(ctx context.Context, storeID string) error
	EvictOlderThan(ctx context.Context, cutoff int64) (int64, error)
	Clear(ctx context.Context) error
}
