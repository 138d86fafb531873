// Package app wires storage, services, pipeline and handlers into one
// lifecycle. Construction order matters: storage first, then services, then
// the pipeline, then the HTTP handlers that observe them.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/haulwire/loadscout/internal/common"
	"github.com/haulwire/loadscout/internal/geocode"
	"github.com/haulwire/loadscout/internal/handlers"
	"github.com/haulwire/loadscout/internal/interfaces"
	"github.com/haulwire/loadscout/internal/matching"
	"github.com/haulwire/loadscout/internal/pipeline"
	"github.com/haulwire/loadscout/internal/services/creditcheck"
	"github.com/haulwire/loadscout/internal/services/feature"
	"github.com/haulwire/loadscout/internal/services/notify"
	"github.com/haulwire/loadscout/internal/services/status"
	"github.com/haulwire/loadscout/internal/storage/badger"
	"github.com/haulwire/loadscout/internal/storage/fsblob"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager
	BlobStore      interfaces.BlobStorage

	StatusService  *status.Service
	GeocodeService *geocode.Service
	FeatureService *feature.Service
	NotifyService  *notify.Service
	CreditService  *creditcheck.Service
	Matcher        *matching.Service
	Processor      *pipeline.Processor
	Orchestrator   *pipeline.Orchestrator

	StatusHandler  *handlers.StatusHandler
	MetricsHandler *handlers.MetricsHandler
	ReadyHandler   *handlers.ReadyHandler
	APIHandler     *handlers.APIHandler

	// housekeeping cron, currently just the geocode cache stats line
	cron *cron.Cron
}

// New constructs the application. The returned App is not yet running; call
// Start after the HTTP server is wired.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: config,
		Logger: logger,
	}

	manager, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	a.StorageManager = manager

	blobs, err := fsblob.NewStore(config.Storage.Blob.Path, logger)
	if err != nil {
		manager.Close()
		return nil, fmt.Errorf("initializing blob store: %w", err)
	}
	a.BlobStore = blobs

	a.loadSeeds(context.Background())

	a.StatusService = status.NewService(logger)
	a.GeocodeService = geocode.NewService(&config.Geocode, manager.GeocodeStorage(), logger)
	a.FeatureService = feature.NewService(manager.KeyValueStorage(), logger)
	a.NotifyService = notify.NewService(&config.Matching, logger)
	a.CreditService = creditcheck.NewService(manager.KeyValueStorage(), logger)

	a.Matcher = matching.NewService(
		manager, a.NotifyService, a.CreditService, a.FeatureService, &config.Matching, logger)
	a.Processor = pipeline.NewProcessor(
		blobs, manager, a.GeocodeService, a.Matcher, config, logger)
	a.Orchestrator = pipeline.NewOrchestrator(
		manager, a.Processor, a.StatusService, &config.Pipeline, logger)

	a.StatusHandler = handlers.NewStatusHandler(a.StatusService, manager.QueueStorage(), logger)
	a.MetricsHandler = handlers.NewMetricsHandler(a.StatusService, logger)
	a.ReadyHandler = handlers.NewReadyHandler(manager, logger)
	a.APIHandler = handlers.NewAPIHandler(logger)

	a.cron = cron.New()
	if _, err := a.cron.AddFunc("@every 10m", a.logGeocodeStats); err != nil {
		logger.Warn().Err(err).Msg("Failed to schedule geocode stats")
	}

	return a, nil
}

// loadSeeds upserts tenants, hunt plans and hint packs from the configured
// seed directories. Missing directories are fine; parse errors skip the file.
func (a *App) loadSeeds(ctx context.Context) {
	seeds := a.Config.Seeds
	if err := badger.LoadTenantsFromFiles(ctx, a.StorageManager.TenantStorage(), seeds.TenantsDir, a.Logger); err != nil {
		a.Logger.Warn().Err(err).Str("dir", seeds.TenantsDir).Msg("Tenant seed loading failed")
	}
	if err := badger.LoadHuntsFromFiles(ctx, a.StorageManager.HuntStorage(), seeds.HuntsDir, a.Logger); err != nil {
		a.Logger.Warn().Err(err).Str("dir", seeds.HuntsDir).Msg("Hunt seed loading failed")
	}
	if err := badger.LoadHintsFromFiles(ctx, a.StorageManager.HintStorage(), seeds.HintsDir, a.Logger); err != nil {
		a.Logger.Warn().Err(err).Str("dir", seeds.HintsDir).Msg("Hint seed loading failed")
	}
}

// Start launches the pipeline orchestrator and housekeeping
func (a *App) Start() error {
	if err := a.Orchestrator.Start(); err != nil {
		return fmt.Errorf("starting orchestrator: %w", err)
	}
	a.cron.Start()
	return nil
}

// Close stops components in dependency order: pipeline first so nothing is
// mid-flight when services and the store go away.
func (a *App) Close() {
	if a.Orchestrator != nil {
		a.Orchestrator.Stop()
	}
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}
	if a.GeocodeService != nil {
		a.GeocodeService.Stop()
	}
	if a.FeatureService != nil {
		a.FeatureService.Stop()
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Storage close failed")
		}
	}
	a.Logger.Info().Msg("Application stopped")
}

func (a *App) logGeocodeStats() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := a.StorageManager.GeocodeStorage().Count(ctx)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Geocode cache count failed")
		return
	}
	a.Logger.Info().Int("cached_locations", count).Msg("Geocode cache stats")
}
