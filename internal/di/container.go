package di

import (
	"context"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/cybershield/internal/adapters/events"
	"github.com/mikey/cybershield/internal/adapters/httpapi"
	"github.com/mikey/cybershield/internal/config"
	"github.com/mikey/cybershield/internal/core"
	"github.com/mikey/cybershield/internal/factory"
	"github.com/mikey/cybershield/internal/logging"
	"github.com/mikey/cybershield/internal/ports"
	"github.com/mikey/cybershield/internal/utils"
)

// connectTimeout bounds the initial connection to external backends
const connectTimeout = 10 * time.Second

// BuildContainer creates and configures a dependency injection container.
// An empty configPath searches the standard locations.
func BuildContainer(configPath string) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		return config.Load(configPath)
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	for _, ctor := range []interface{}{
		factory.NewStoreFactory,
		factory.NewDedupFactory,
		factory.NewNotifierFactory,
		factory.NewFilterFactory,
		factory.NewTextProcessorFactory,
	} {
		if err := container.Provide(ctor); err != nil {
			return nil, err
		}
	}

	// Register record store
	if err := container.Provide(func(f *factory.StoreFactory) (ports.RecordStore, error) {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		return f.CreateStore(ctx)
	}); err != nil {
		return nil, err
	}

	// Register deduplicator
	if err := container.Provide(func(f *factory.DedupFactory) (core.Deduplicator, error) {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		return f.CreateDeduplicator(ctx)
	}); err != nil {
		return nil, err
	}

	// Register notifier
	if err := container.Provide(func(f *factory.NotifierFactory) (core.Notifier, error) {
		return f.CreateNotifier()
	}); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register live event hub
	if err := container.Provide(events.NewHub); err != nil {
		return nil, err
	}

	// Register threat service
	if err := container.Provide(func(
		cfg *config.Config,
		logger *zap.Logger,
		store ports.RecordStore,
		notifier core.Notifier,
		hub *events.Hub,
		dedup core.Deduplicator,
		text *utils.TextProcessor,
	) *core.ThreatService {
		return factory.CreateThreatService(cfg, logger, factory.ServiceDeps{
			Store:    store,
			Notifier: notifier,
			Events:   hub,
			Dedup:    dedup,
			Text:     text,
		})
	}); err != nil {
		return nil, err
	}

	// Register email filter
	if err := container.Provide(func(f *factory.FilterFactory) (ports.EmailFilter, error) {
		return f.CreateEmailFilter()
	}); err != nil {
		return nil, err
	}

	// Register HTTP API
	if err := container.Provide(func(
		cfg *config.Config,
		service *core.ThreatService,
		hub *events.Hub,
		logger *zap.Logger,
	) *httpapi.Server {
		return httpapi.NewServer(service, hub, logger, cfg.GetServer().HTTPAddress)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
