// Package providers contains dependency injection providers for the sekai server.
package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// rebuildTimeout bounds the startup by-id index rebuild from the store.
	rebuildTimeout = time.Minute
)
