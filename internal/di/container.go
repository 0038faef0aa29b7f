// Package di provides dependency injection configuration for the sekai server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/sekaibot/sekai-server/internal/cache"
	"github.com/sekaibot/sekai-server/internal/carousel"
	"github.com/sekaibot/sekai-server/internal/config"
	"github.com/sekaibot/sekai-server/internal/di/providers"
	"github.com/sekaibot/sekai-server/internal/logger"
	"github.com/sekaibot/sekai-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Cache tiers
	do.Provide(injector, providers.ProvideEntryStore)
	do.Provide(injector, providers.ProvideFileIndexes)
	do.Provide(injector, providers.ProvideShikimoriClient)
	do.Provide(injector, providers.ProvideCoordinator)

	// Business services
	do.Provide(injector, providers.ProvideCarouselManager)
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideCarouselService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle
// management. This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.FileIndexes](injector)
	_ = do.MustInvoke[*providers.ShikimoriClientHandle](injector)
	_ = do.MustInvoke[*cache.Coordinator](injector)
	_ = do.MustInvoke[*carousel.Manager](injector)
	_ = do.MustInvoke[*service.CatalogService](injector)
	_ = do.MustInvoke[*service.CarouselService](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
