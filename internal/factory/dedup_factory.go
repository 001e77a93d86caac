package factory

import (
	"context"
	"fmt"

	"github.com/mikey/cybershield/internal/adapters/dedup"
	"github.com/mikey/cybershield/internal/config"
	"github.com/mikey/cybershield/internal/core"
	"go.uber.org/zap"
)

// DedupFactory creates message de-duplicators based on configuration
type DedupFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewDedupFactory creates a new dedup factory
func NewDedupFactory(cfg *config.Config, logger *zap.Logger) *DedupFactory {
	return &DedupFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateDeduplicator returns the configured deduplicator, or nil when
// de-duplication is disabled
func (f *DedupFactory) CreateDeduplicator(ctx context.Context) (core.Deduplicator, error) {
	dc, err := f.cfg.GetDedup()
	if err != nil {
		return nil, err
	}
	if !dc.Enabled {
		f.logger.Info("Message de-duplication disabled")
		return nil, nil
	}

	switch dc.Type {
	case "memory":
		return dedup.NewMemoryDeduplicator(dc.TTL), nil
	case "redis":
		return dedup.NewRedisDeduplicator(ctx, dc.RedisAddress, dc.RedisPassword, dc.RedisDB, dc.TTL, f.logger)
	default:
		return nil, fmt.Errorf("unsupported dedup type: %s", dc.Type)
	}
}
