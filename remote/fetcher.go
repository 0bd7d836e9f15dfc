// Package remote defines the network-fetch collaborators the policy layer
// consumes. Implementations live in the embedding application; this module
// never originates catalog data itself.
package remote

import (
	"context"
	"errors"

	"github.com/feastly/catalog-cache/errs"
	"github.com/feastly/catalog-cache/geo"
	"github.com/feastly/catalog-cache/model"
)

// ItemFetcher fetches fresh items around a center. A successful fetch returns
// the records in API order; cache metadata fields are ignored and restamped
// at ingest time.
type ItemFetcher interface {
	FetchNearbyItems(ctx context.Context, center geo.Center) ([]model.CachedItem, error)
}

// StoreFetcher fetches fresh stores around a center.
type StoreFetcher interface {
	FetchNearbyStores(ctx context.Context, center geo.Center) ([]model.CachedStore, error)
}

// Unavailable stands in when no fetcher is configured: every refresh fails
// as a remote fault, so callers land on the stale-cache fallback chain.
type Unavailable struct{}

func (Unavailable) FetchNearbyItems(ctx context.Context, center geo.Center) ([]model.CachedItem, error) {
	return nil, errs.Remote("fetch nearby items", errors.New("no fetcher configured"))
}

func (Unavailable) FetchNearbyStores(ctx context.Context, center geo.Center) ([]model.CachedStore, error) {
	return nil, errs.Remote("fetch nearby stores", errors.New("no fetcher configured"))
}
