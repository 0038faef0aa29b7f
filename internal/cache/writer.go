package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/sekaibot/sekai-server/internal/domain"
	"github.com/sekaibot/sekai-server/internal/id"
)

// persistTimeout bounds a detached store write; the request that triggered
// it has already returned.
const persistTimeout = 30 * time.Second

// persistDetached writes entries to the durable store in the background.
// Failures are logged and never retried; the file indexes already hold the
// data and the next startup rebuild reconciles whatever did land.
func (c *Coordinator) persistDetached(entries []domain.CacheEntry) {
	if c.store == nil || len(entries) == 0 {
		return
	}

	taskID := id.MustGenerate("persist")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		var failed int
		for _, entry := range entries {
			animeID, err := strconv.ParseInt(entry.ID, 10, 64)
			if err != nil {
				c.logger.Warn("skipping entry with non-numeric id",
					"task", taskID,
					"id", entry.ID,
				)
				continue
			}
			if err := c.store.UpsertEntry(ctx, animeID, entry); err != nil {
				failed++
				c.logger.Error("store write failed",
					"task", taskID,
					"id", entry.ID,
					"error", err,
				)
			}
		}

		if failed == 0 {
			c.logger.Debug("store write done", "task", taskID, "entries", len(entries))
		}
	}()
}
