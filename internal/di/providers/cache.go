package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/sekaibot/sekai-server/internal/cache"
	"github.com/sekaibot/sekai-server/internal/config"
	"github.com/sekaibot/sekai-server/internal/domain"
	"github.com/sekaibot/sekai-server/internal/logger"
	"github.com/sekaibot/sekai-server/internal/store"
	"github.com/sekaibot/sekai-server/internal/store/sqlite"
)

// StoreHandle wraps the durable store with shutdown capability. A failed
// open leaves Store nil and the cache runs on file indexes only.
type StoreHandle struct {
	Store store.EntryStore
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	if h.Store == nil {
		return nil
	}
	return h.Store.Close()
}

// ProvideEntryStore opens the durable store. The process must keep exactly
// one pool, so every consumer resolves this handle. An open failure is not
// fatal: lookups still work through the file indexes and upstream, so it is
// logged once here and the handle stays empty.
func ProvideEntryStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := sqlite.Open(cfg.Database.Path, log.Logger)
	if err != nil {
		log.Error("durable store unavailable, continuing without it",
			"path", cfg.Database.Path,
			"error", err,
		)
		return &StoreHandle{}, nil
	}

	log.Info("Durable cache store opened", "path", cfg.Database.Path)
	return &StoreHandle{Store: db}, nil
}

// FileIndexes bundles the two JSON cache indexes.
type FileIndexes struct {
	ByName *cache.FileIndex[map[string]domain.CacheEntry]
	ByID   *cache.FileIndex[domain.CacheEntry]
}

// ProvideFileIndexes opens the by-name and by-id JSON indexes, creating
// empty files when absent.
func ProvideFileIndexes(i do.Injector) (*FileIndexes, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	byName, err := cache.NewFileIndex[map[string]domain.CacheEntry](cfg.Cache.ByNamePath, log.Logger)
	if err != nil {
		return nil, err
	}
	byID, err := cache.NewFileIndex[domain.CacheEntry](cfg.Cache.ByIDPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Cache indexes opened",
		"by_name", cfg.Cache.ByNamePath,
		"by_id", cfg.Cache.ByIDPath,
	)
	return &FileIndexes{ByName: byName, ByID: byID}, nil
}

// ProvideCoordinator wires the cache tiers together and rebuilds the by-id
// index from the durable store at startup.
func ProvideCoordinator(i do.Injector) (*cache.Coordinator, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	indexes := do.MustInvoke[*FileIndexes](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	clientHandle := do.MustInvoke[*ShikimoriClientHandle](i)

	coordinator := cache.NewCoordinator(cache.Options{
		ByName:            indexes.ByName,
		ByID:              indexes.ByID,
		Store:             storeHandle.Store,
		Catalog:           clientHandle.Client,
		Logger:            log.Logger,
		PosterPlaceholder: cfg.Cache.PosterPlaceholderURL,
	})

	ctx, cancel := context.WithTimeout(context.Background(), rebuildTimeout)
	defer cancel()
	if err := coordinator.RebuildByIDIndex(ctx); err != nil {
		// The index file may be stale but lookups still work.
		log.Warn("by-id index rebuild failed", "error", err)
	}

	return coordinator, nil
}
