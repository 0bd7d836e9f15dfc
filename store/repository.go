package store

import (
	"context"

	"github.com/feastly/catalog-cache/geo"
	"github.com/feastly/catalog-cache/model"
)

// Repository is the durable cache store for stores. Same contract as the item
// repository: absence is empty, storage faults wrap errs.ErrStorage.
type Repository interface {
	UpsertMany(ctx context.Context, stores []model.CachedStore) error
	UpsertOne(ctx context.Context, st *model.CachedStore) error

	GetByID(ctx context.Context, id string) (*model.CachedStore, error)
	// GetAll returns stores alphabetically; stores are browsed by name,
	// unlike items which are browsed most-recently-seen first.
	GetAll(ctx context.Context) ([]model.CachedStore, error)

	// Search matches the query case-insensitively against name, type, city
	// and address.
	Search(ctx context.Context, query string, limit int) ([]model.CachedStore, error)
	ByType(ctx context.Context, storeType string, limit int) ([]model.CachedStore, error)
	Types(ctx context.Context) ([]string, error)

	Count(ctx context.Context) (int64, error)

	Delete(ctx context.Context, id string) error
	DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error)
	DeleteAll(ctx context.Context) error

	// NearLocation matches rows where either the store's true coordinates or
	// its fetch-center fallback coordinates fall inside the box. Stores may
	// lack true coordinates, so the fallback pair participates in the match.
	NearLocation(ctx context.Context, box geo.Box, limit int) ([]model.CachedStore, error)
	Recent(ctx context.Context, limit int) ([]model.CachedStore, error)
}
