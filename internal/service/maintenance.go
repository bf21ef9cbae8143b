package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	reconcileJob  = "slug-index-reconcile"
	seedDebounce  = 500 * time.Millisecond
	seedExtension = ".json"
)

// Reconciler rebuilds a derived slug index from the store.
type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

// SeedFile is an onboarding request dropped into the seed directory.
type SeedFile struct {
	RestaurantID string `json:"restaurantId"`
	Name         string `json:"name"`
	Slug         string `json:"slug,omitempty"`
}

// MaintenanceConfig configures the background jobs. An empty SeedDir disables
// the watcher; a nil Reconciler or empty Schedule disables the cron job.
type MaintenanceConfig struct {
	SeedDir    string
	Schedule   string
	Reconciler Reconciler
}

// ─────────────────────────────────────────────────────────────
// Maintenance: scheduled index reconcile + onboarding seed watcher
// ─────────────────────────────────────────────────────────────

// Maintenance runs the background work of the storefront server.
type Maintenance struct {
	sites  *SiteService
	cfg    MaintenanceConfig
	logger *zap.Logger

	running inflight

	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	cronSched   *cron.Cron
	watchCancel context.CancelFunc
}

func NewMaintenance(sites *SiteService, cfg MaintenanceConfig, logger *zap.Logger) *Maintenance {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Maintenance{sites: sites, cfg: cfg, logger: logger.Named("maintenance")}
}

// Start schedules the reconcile job and starts watching the seed directory.
// Seed files already present are processed immediately.
func (m *Maintenance) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.Reconciler != nil && m.cfg.Schedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(m.cfg.Schedule, func() {
			if _, err := m.ReconcileNow(ctx); err != nil {
				m.logger.Warn("scheduled reconcile failed", zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("invalid reconcile schedule %q: %w", m.cfg.Schedule, err)
		}
		c.Start()
		m.cronSched = c
		m.logger.Info("reconcile scheduled", zap.String("schedule", m.cfg.Schedule))
	}

	if m.cfg.SeedDir == "" {
		return nil
	}
	if err := os.MkdirAll(m.cfg.SeedDir, 0755); err != nil {
		return fmt.Errorf("create seed directory: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create seed watcher: %w", err)
	}
	if err := watcher.Add(m.cfg.SeedDir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %q: %w", m.cfg.SeedDir, err)
	}
	m.watcher = watcher

	watchCtx, cancel := context.WithCancel(ctx)
	m.watchCancel = cancel
	go m.watch(watchCtx, watcher)

	m.logger.Info("watching seed directory", zap.String("dir", m.cfg.SeedDir))
	go m.scanSeeds(watchCtx)
	return nil
}

func (m *Maintenance) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !isSeedFile(event.Name) {
				continue
			}
			path := event.Name
			if t, exists := timers[path]; exists {
				t.Stop()
			}
			timers[path] = time.AfterFunc(seedDebounce, func() {
				if err := m.ProcessSeed(ctx, path); err != nil {
					m.logger.Warn("seed failed", zap.String("file", path), zap.Error(err))
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warn("seed watcher error", zap.Error(err))
		}
	}
}

func (m *Maintenance) scanSeeds(ctx context.Context) {
	entries, err := os.ReadDir(m.cfg.SeedDir)
	if err != nil {
		m.logger.Warn("scan seed directory", zap.Error(err))
		return
	}
	for _, e := range entries {
		if e.IsDir() || !isSeedFile(e.Name()) {
			continue
		}
		path := filepath.Join(m.cfg.SeedDir, e.Name())
		if err := m.ProcessSeed(ctx, path); err != nil {
			m.logger.Warn("seed failed", zap.String("file", path), zap.Error(err))
		}
	}
}

func isSeedFile(name string) bool {
	base := filepath.Base(name)
	return strings.HasSuffix(base, seedExtension) && !strings.HasPrefix(base, ".")
}

// ProcessSeed onboards the restaurant described by the seed file at path.
// Processing the same file twice is harmless.
func (m *Maintenance) ProcessSeed(ctx context.Context, path string) error {
	if !m.running.acquire(path) {
		return nil
	}
	defer m.running.release(path)

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	var seed SeedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}
	if seed.RestaurantID == "" || (seed.Name == "" && seed.Slug == "") {
		return errors.New("seed needs restaurantId and a name or slug")
	}

	cfg, err := m.sites.Onboard(ctx, seed.RestaurantID, seed.Name, seed.Slug)
	if err != nil {
		return err
	}
	m.logger.Info("seed processed",
		zap.String("file", filepath.Base(path)),
		zap.String("restaurant_id", cfg.RestaurantID),
		zap.String("slug", cfg.Slug))
	return nil
}

// ReconcileNow rebuilds the slug index. Overlapping runs are skipped.
func (m *Maintenance) ReconcileNow(ctx context.Context) (int, error) {
	if m.cfg.Reconciler == nil {
		return 0, nil
	}
	if !m.running.acquire(reconcileJob) {
		m.logger.Debug("reconcile already running")
		return 0, nil
	}
	defer m.running.release(reconcileJob)

	start := time.Now()
	n, err := m.cfg.Reconciler.Reconcile(ctx)
	if err != nil {
		return 0, fmt.Errorf("reconcile slug index: %w", err)
	}
	m.logger.Info("slug index reconciled", zap.Int("slugs", n), zap.Duration("took", time.Since(start)))
	return n, nil
}

// Wait blocks until running seed and reconcile jobs finish or ctx is done.
func (m *Maintenance) Wait(ctx context.Context) error {
	return m.running.drain(ctx)
}

// Stop tears down the watcher and the scheduler.
func (m *Maintenance) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watchCancel != nil {
		m.watchCancel()
		m.watchCancel = nil
	}
	if m.watcher != nil {
		m.watcher.Close()
		m.watcher = nil
	}
	if m.cronSched != nil {
		<-m.cronSched.Stop().Done()
		m.cronSched = nil
	}
}
