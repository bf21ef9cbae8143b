package service_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/service"
)

type countingReconciler struct {
	calls atomic.Int32
}

func (r *countingReconciler) Reconcile(context.Context) (int, error) {
	r.calls.Add(1)
	return 3, nil
}

func writeSeed(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestMaintenance_ProcessSeed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	dir := t.TempDir()
	m := service.NewMaintenance(f.sites, service.MaintenanceConfig{SeedDir: dir}, zap.NewNop())

	path := writeSeed(t, dir, "r1.json", `{"restaurantId":"r1","name":"Joe's   Pizza & Grill"}`)
	require.NoError(t, m.ProcessSeed(ctx, path))
	require.NoError(t, m.ProcessSeed(ctx, path), "reprocessing is harmless")

	cfg, err := f.store.LoadBySlug(ctx, "joes-pizza-grill")
	require.NoError(t, err)
	assert.Equal(t, "r1", cfg.RestaurantID)

	bad := writeSeed(t, dir, "bad.json", `{"name":"No Id"}`)
	assert.Error(t, m.ProcessSeed(ctx, bad))

	garbage := writeSeed(t, dir, "garbage.json", `{`)
	assert.Error(t, m.ProcessSeed(ctx, garbage))
}

func TestMaintenance_WatchesSeedDirectory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t)
	dir := t.TempDir()

	writeSeed(t, dir, "early.json", `{"restaurantId":"r1","name":"Early Bird"}`)

	m := service.NewMaintenance(f.sites, service.MaintenanceConfig{SeedDir: dir}, zap.NewNop())
	require.NoError(t, m.Start(ctx))
	defer m.Stop()

	writeSeed(t, dir, "late.json", `{"restaurantId":"r2","name":"Late Show","slug":"late-show"}`)
	writeSeed(t, dir, "notes.txt", `ignored`)

	require.Eventually(t, func() bool {
		_, err1 := f.store.LoadBySlug(ctx, "early-bird")
		_, err2 := f.store.LoadBySlug(ctx, "late-show")
		return err1 == nil && err2 == nil
	}, 5*time.Second, 50*time.Millisecond)

	waitCtx, waitCancel := context.WithTimeout(ctx, time.Second)
	defer waitCancel()
	assert.NoError(t, m.Wait(waitCtx))
}

func TestMaintenance_Reconcile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := &countingReconciler{}

	m := service.NewMaintenance(f.sites, service.MaintenanceConfig{Reconciler: r, Schedule: "@every 1h"}, nil)
	n, err := m.ReconcileNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.EqualValues(t, 1, r.calls.Load())

	require.NoError(t, m.Start(ctx))
	m.Stop()

	idle := service.NewMaintenance(f.sites, service.MaintenanceConfig{}, nil)
	n, err = idle.ReconcileNow(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMaintenance_InvalidSchedule(t *testing.T) {
	f := newFixture(t)
	m := service.NewMaintenance(f.sites, service.MaintenanceConfig{
		Reconciler: &countingReconciler{},
		Schedule:   "every now and then",
	}, nil)
	assert.ErrorContains(t, m.Start(context.Background()), "invalid reconcile schedule")
}
