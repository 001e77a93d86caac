package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/cybershield/internal/adapters/store"
	"github.com/mikey/cybershield/internal/config"
	"github.com/mikey/cybershield/internal/ports"
	"go.uber.org/zap"
)

// StoreFactory creates record stores based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateStore creates a record store based on the configuration
func (f *StoreFactory) CreateStore(ctx context.Context) (ports.RecordStore, error) {
	sc, err := f.cfg.GetStore()
	if err != nil {
		return nil, err
	}

	switch sc.Type {
	case "memory":
		return store.NewMemoryStore(f.logger, sc.Retention, sc.CleanupFrequency), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(sc.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return store.NewSQLiteStore(sc.SQLitePath, f.logger, sc.Retention, sc.CleanupFrequency)
	case "mysql":
		return store.NewMySQLStore(sc.MySQLDSN, f.logger, sc.Retention, sc.CleanupFrequency)
	case "postgres":
		return store.NewPostgresStore(ctx, sc.PostgresDSN, f.logger, sc.Retention, sc.CleanupFrequency)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", sc.Type)
	}
}
