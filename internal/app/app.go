// Package app initializes and holds long-lived application services, acting
// as a dependency injection container.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/orgharvest/orgharvest/internal/config"
	"github.com/orgharvest/orgharvest/internal/logging"
	"github.com/orgharvest/orgharvest/internal/metrics"
	"github.com/orgharvest/orgharvest/internal/publisher"
	pubsubpub "github.com/orgharvest/orgharvest/internal/publisher/pubsub"
	"github.com/orgharvest/orgharvest/internal/storage"
	"github.com/orgharvest/orgharvest/internal/storage/gcs"
	"github.com/orgharvest/orgharvest/internal/storage/local"
	"github.com/orgharvest/orgharvest/internal/storage/postgres"
	"github.com/orgharvest/orgharvest/internal/store"
)

// App holds the shared, long-lived services: the logger, the Postgres-backed
// repositories, the raw-payload archive, and the completion-event publisher.
// It is initialized once at startup and passed to the commands that need it.
type App struct {
	cfg    config.Config
	logger *zap.Logger

	combos     *postgres.CombinationStore
	orgs       *postgres.OrganizationStore
	industries *postgres.ReferenceStore
	keywords   *postgres.ReferenceStore

	archive      storage.Provider
	archiveClose func() error
	events       publisher.Publisher
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config { return a.cfg }

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Combinations returns the combination repository.
func (a *App) Combinations() store.CombinationRepository { return a.combos }

// Organizations returns the organization repository.
func (a *App) Organizations() store.OrganizationRepository { return a.orgs }

// Industries returns the industry name repository.
func (a *App) Industries() store.ReferenceRepository { return a.industries }

// Keywords returns the keyword name repository.
func (a *App) Keywords() store.ReferenceRepository { return a.keywords }

// Archive returns the raw-payload blob provider.
func (a *App) Archive() storage.Provider { return a.archive }

// Events returns the completion-event publisher, or nil when disabled.
func (a *App) Events() publisher.Publisher { return a.events }

// Pool exposes the shared Postgres pool for schema management.
func (a *App) Pool() postgres.Pool { return a.combos.Pool() }

// NewWithServices assembles a container from pre-built services, bypassing
// backend initialization. Real startup goes through New; this exists so
// command wiring can be tested without a database.
func NewWithServices(cfg config.Config, logger *zap.Logger, events publisher.Publisher) *App {
	return &App{cfg: cfg, logger: logger, events: events}
}

// New creates and initializes an App from the configuration. It is the
// central point for service initialization and fails fast if any critical
// service cannot be reached.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	metrics.Init()

	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("db.dsn is not set")
	}
	logger.Info("connecting to PostgreSQL")
	combos, err := postgres.NewCombinationStore(ctx, cfg.DB.DSN)
	if err != nil {
		return nil, fmt.Errorf("initialize combination store: %w", err)
	}
	pool := combos.Pool()
	orgs, err := postgres.NewOrganizationStoreWithPool(pool)
	if err != nil {
		return nil, err
	}
	industries, err := postgres.NewReferenceStoreWithPool(pool, "industries")
	if err != nil {
		return nil, err
	}
	keywords, err := postgres.NewReferenceStoreWithPool(pool, "keywords")
	if err != nil {
		return nil, err
	}

	app := &App{
		cfg:        cfg,
		logger:     logger,
		combos:     combos,
		orgs:       orgs,
		industries: industries,
		keywords:   keywords,
	}

	switch cfg.Archive.Provider {
	case "gcs":
		logger.Info("using GCS payload archive", zap.String("bucket", cfg.Archive.GCSBucket))
		blob, err := gcs.New(ctx, cfg.Archive.GCSBucket, cfg.Archive.Prefix)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("initialize GCS archive: %w", err)
		}
		app.archive = blob
		app.archiveClose = blob.Close
	case "local":
		logger.Info("using local payload archive", zap.String("dir", cfg.Archive.LocalDir))
		blob, err := local.New(cfg.Archive.LocalDir)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("initialize local archive: %w", err)
		}
		app.archive = blob
	default:
		logger.Info("payload archiving disabled")
		app.archive = &storage.NoOpProvider{}
	}

	switch cfg.Events.Provider {
	case "pubsub":
		logger.Info("connecting to GCP Pub/Sub", zap.String("topic", cfg.Events.TopicID))
		events, err := pubsubpub.New(ctx, cfg.Events.ProjectID, cfg.Events.TopicID)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("initialize event publisher: %w", err)
		}
		app.events = events
	default:
		logger.Info("completion events disabled")
	}

	logger.Info("application services initialized")
	return app, nil
}

// Close shuts down all services in the container. It runs after command
// execution on both the success and error paths.
func (a *App) Close() {
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.logger.Warn("error closing event publisher", zap.Error(err))
		}
	}
	if a.archiveClose != nil {
		if err := a.archiveClose(); err != nil {
			a.logger.Warn("error closing archive client", zap.Error(err))
		}
	}
	if a.combos != nil {
		a.combos.Close()
	}
	// Best effort: stderr sync fails on some platforms.
	_ = a.logger.Sync()
}
