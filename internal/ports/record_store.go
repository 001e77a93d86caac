package ports

import "github.com/mikey/cybershield/internal/core"

// RecordStore is a core.Store whose background work can be stopped
type RecordStore interface {
	core.Store

	// Stop ends retention cleanup and releases the backing connection
	Stop()
}
