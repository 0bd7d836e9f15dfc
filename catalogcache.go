// Package catalogcache is an embedded, durable cache of marketplace catalog
// data (items and stores) with a write-through refresh policy and a staged
// stale-data fallback. It sits between an unreliable network API and a UI
// that must always render something; the entire boundary is in-process.
package catalogcache

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/feastly/catalog-cache/config"
	"github.com/feastly/catalog-cache/internal/db"
	"github.com/feastly/catalog-cache/internal/logger"
	"github.com/feastly/catalog-cache/item"
	itemRepoPkg "github.com/feastly/catalog-cache/item/repository"
	itemUCPkg "github.com/feastly/catalog-cache/item/usecase"
	"github.com/feastly/catalog-cache/maintenance"
	"github.com/feastly/catalog-cache/notify"
	"github.com/feastly/catalog-cache/remote"
	"github.com/feastly/catalog-cache/store"
	storeRepoPkg "github.com/feastly/catalog-cache/store/repository"
	storeUCPkg "github.com/feastly/catalog-cache/store/usecase"
)

// Cache bundles the public surface: policy-level access to both entity
// families, the optional change-event hub, and the eviction janitor.
type Cache struct {
	Items   item.UseCase
	Stores  store.UseCase
	Events  *notify.Hub
	Janitor *maintenance.Janitor

	database *sqlx.DB
	logger   *zap.Logger
	ownsLog  bool
}

// Open wires the cache: database, repositories, breaker-wrapped fetchers,
// usecases, hub, janitor. Fetchers are the caller's network collaborators;
// either may be nil if that entity family is never refreshed through this
// instance. Pass a nil logger to have one built from cfg.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger, itemFetcher remote.ItemFetcher, storeFetcher remote.StoreFetcher) (*Cache, error) {
	ownsLog := false
	if log == nil {
		built, err := logger.New(cfg.Logger)
		if err != nil {
			return nil, err
		}
		log = built
		ownsLog = true
	}

	database, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	log.Info("catalog cache opened", zap.String("path", cfg.Database.Path))

	itemRepo := itemRepoPkg.NewSQLiteRepository(database)
	storeRepo := storeRepoPkg.NewSQLiteRepository(database)

	if itemFetcher != nil {
		itemFetcher = remote.NewBreakerItemFetcher(itemFetcher, cfg.Breaker, log)
	} else {
		itemFetcher = remote.Unavailable{}
	}
	if storeFetcher != nil {
		storeFetcher = remote.NewBreakerStoreFetcher(storeFetcher, cfg.Breaker, log)
	} else {
		storeFetcher = remote.Unavailable{}
	}

	hub := notify.NewHub()
	items := itemUCPkg.NewItemUseCase(itemRepo, itemFetcher, hub, cfg.Cache, log)
	stores := storeUCPkg.NewStoreUseCase(storeRepo, storeFetcher, hub, cfg.Cache, log)
	janitor := maintenance.NewJanitor(items, stores, cfg.Cache.RetentionWindow, cfg.Cache.SweepInterval, log)

	return &Cache{
		Items:    items,
		Stores:   stores,
		Events:   hub,
		Janitor:  janitor,
		database: database,
		logger:   log,
		ownsLog:  ownsLog,
	}, nil
}

// Close releases the hub and the database handle.
func (c *Cache) Close() error {
	c.Events.Close()
	err := c.database.Close()
	if c.ownsLog {
		_ = c.logger.Sync()
	}
	return err
}
