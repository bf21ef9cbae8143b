package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/registry"
	"storefront/internal/service"
	"storefront/internal/slug"
	"storefront/internal/storage"
)

// App owns the long-lived storefront components and their lifecycle.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	store       domain.SiteStore
	indexed     *storage.IndexedStore
	rdb         *redis.Client
	journalDB   *storage.DB
	registry    *registry.Registry
	sites       *service.SiteService
	maintenance *service.Maintenance
}

// New creates an App. Nothing is opened until Startup.
func New(cfg *config.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{cfg: cfg, logger: logger}
}

// Startup opens the store, the optional slug index and the edit journal, and
// builds the services on top of them.
func (a *App) Startup(ctx context.Context) error {
	reg, err := registry.LoadFile(a.cfg.CatalogFile)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	a.registry = reg

	store, err := storage.Open(ctx, storeOptions(a.cfg), a.logger.Named("store"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.store = store

	if a.cfg.Redis.Addr != "" {
		a.connectIndex(ctx)
	}

	journalDB, err := storage.OpenSQLite(storage.JournalPath(a.cfg.Store.DataDir))
	if err != nil {
		a.Shutdown()
		return fmt.Errorf("open journal: %w", err)
	}
	a.journalDB = journalDB

	a.sites = service.NewSiteService(service.Deps{
		Store:    a.store,
		Registry: reg,
		Slugs:    slug.NewService(a.slugAuthority(), a.logger.Named("slug")),
		History:  storage.NewUndoStore(journalDB),
		Logger:   a.logger,
	})

	mcfg := service.MaintenanceConfig{SeedDir: a.cfg.SeedDir}
	if a.indexed != nil {
		mcfg.Schedule = a.cfg.ReconcileSchedule
		mcfg.Reconciler = a.indexed
	}
	a.maintenance = service.NewMaintenance(a.sites, mcfg, a.logger)

	a.logger.Info("storefront ready",
		zap.String("driver", a.cfg.Store.Driver),
		zap.Int("block_types", len(reg.Types())),
		zap.Bool("slug_index", a.indexed != nil),
	)
	return nil
}

// connectIndex puts the Redis slug index in front of the store. An unreachable
// Redis is logged and the store is used on its own.
func (a *App) connectIndex(ctx context.Context) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		a.logger.Warn("redis unreachable; slug index disabled", zap.String("addr", a.cfg.Redis.Addr), zap.Error(err))
		rdb.Close()
		return
	}
	a.rdb = rdb
	a.indexed = storage.NewIndexedStore(a.store, storage.NewSlugIndex(rdb), a.logger.Named("slug_index"))
	a.store = a.indexed
}

func (a *App) slugAuthority() slug.Authority {
	if a.cfg.SlugAuthority.URL == "" {
		return slug.StoreAuthority{Store: a.store}
	}
	return slug.NewRemoteAuthority(slug.RemoteConfig{
		BaseURL: a.cfg.SlugAuthority.URL,
		Timeout: a.cfg.SlugAuthority.Timeout,
		Retries: a.cfg.SlugAuthority.Retries,
	}, a.logger.Named("slug_authority"))
}

func storeOptions(cfg *config.Config) storage.Options {
	return storage.Options{
		Driver:   storage.Driver(cfg.Store.Driver),
		DataDir:  cfg.Store.DataDir,
		Host:     cfg.Store.Host,
		Port:     cfg.Store.Port,
		User:     cfg.Store.User,
		Password: cfg.Store.Password,
		Database: cfg.Store.Database,
		SSLMode:  cfg.Store.SSLMode,
		MongoURI: cfg.Store.MongoURI,
	}
}

// Sites returns the site service. Valid after Startup.
func (a *App) Sites() *service.SiteService { return a.sites }

// Maintenance returns the background job runner. Valid after Startup.
func (a *App) Maintenance() *service.Maintenance { return a.maintenance }

// Registry returns the loaded block catalog. Valid after Startup.
func (a *App) Registry() *registry.Registry { return a.registry }

// Drain waits for in-flight publishes and maintenance jobs.
func (a *App) Drain(ctx context.Context) error {
	var errs []error
	if a.sites != nil {
		errs = append(errs, a.sites.WaitForPublishes(ctx))
	}
	if a.maintenance != nil {
		a.maintenance.Stop()
		errs = append(errs, a.maintenance.Wait(ctx))
	}
	return errors.Join(errs...)
}

// Shutdown closes everything Startup opened.
func (a *App) Shutdown() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("close store", zap.Error(err))
		}
		a.store = nil
	}
	if a.rdb != nil {
		a.rdb.Close()
		a.rdb = nil
	}
	if a.journalDB != nil {
		a.journalDB.Close()
		a.journalDB = nil
	}
}
