package providers

import (
	"github.com/samber/do/v2"

	"github.com/sekaibot/sekai-server/internal/cache"
	"github.com/sekaibot/sekai-server/internal/carousel"
	"github.com/sekaibot/sekai-server/internal/logger"
	"github.com/sekaibot/sekai-server/internal/service"
)

// ProvideCarouselManager provides the in-memory carousel session manager.
func ProvideCarouselManager(i do.Injector) (*carousel.Manager, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return carousel.NewManager(log.Logger), nil
}

// ProvideCatalogService provides the catalog lookup service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	coordinator := do.MustInvoke[*cache.Coordinator](i)
	clientHandle := do.MustInvoke[*ShikimoriClientHandle](i)

	return service.NewCatalogService(coordinator, clientHandle.Client, log.Logger), nil
}

// ProvideCarouselService provides the carousel orchestration service.
func ProvideCarouselService(i do.Injector) (*service.CarouselService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	manager := do.MustInvoke[*carousel.Manager](i)
	catalogService := do.MustInvoke[*service.CatalogService](i)

	return service.NewCarouselService(manager, catalogService, log.Logger), nil
}
