package item

import (
	"context"

	"github.com/feastly/catalog-cache/geo"
	"github.com/feastly/catalog-cache/model"
)

// Repository is the durable cache store for items. It carries no freshness or
// network-fallback logic; absence is an empty result, never an error, and
// storage faults wrap errs.ErrStorage.
type Repository interface {
	// UpsertMany replaces-or-inserts the batch atomically: concurrent
	// readers observe either none or all of the batch.
	UpsertMany(ctx context.Context, items []model.CachedItem) error
	UpsertOne(ctx context.Context, it *model.CachedItem) error

	GetByID(ctx context.Context, id string) (*model.CachedItem, error)
	GetAll(ctx context.Context) ([]model.CachedItem, error)

	// Search matches the query case-insensitively against name, category and
	// brand; when storeID is empty (global search) description is included.
	Search(ctx context.Context, query, storeID string, limit int) ([]model.CachedItem, error)
	ByCategory(ctx context.Context, category string, limit int) ([]model.CachedItem, error)
	Categories(ctx context.Context) ([]string, error)

	Count(ctx context.Context) (int64, error)
	CountForStore(ctx context.Context, storeID string) (int64, error)

	Delete(ctx context.Context, id string) error
	DeleteForStore(ctx context.Context, storeID string) error
	// DeleteOlderThan removes rows with cached_at strictly below the cutoff
	// (epoch millis) and reports how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error)
	DeleteAll(ctx context.Context) error

	// NearLocation matches rows whose cached fetch coordinates fall inside
	// the box, most recently cached first.
	NearLocation(ctx context.Context, box geo.Box, limit int) ([]model.CachedItem, error)
	Recent(ctx context.Context, limit int) ([]model.CachedItem, error)
}
