package providers

import (
	"github.com/samber/do/v2"

	"github.com/sekaibot/sekai-server/internal/catalog/shikimori"
	"github.com/sekaibot/sekai-server/internal/config"
	"github.com/sekaibot/sekai-server/internal/logger"
)

// ShikimoriClientHandle wraps the catalog client with Shutdownable.
type ShikimoriClientHandle struct {
	Client *shikimori.Client
}

// Shutdown implements do.Shutdownable.
func (h *ShikimoriClientHandle) Shutdown() error {
	h.Client.Close()
	return nil
}

// ProvideShikimoriClient provides the rate-limited catalog client.
func ProvideShikimoriClient(i do.Injector) (*ShikimoriClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := shikimori.New(cfg.Shikimori, log.Logger)

	log.Info("Shikimori client initialized",
		"url", cfg.Shikimori.GraphQLURL,
		"rps", cfg.Shikimori.RequestsPerSecond,
	)

	return &ShikimoriClientHandle{Client: client}, nil
}
