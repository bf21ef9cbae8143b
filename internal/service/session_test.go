package service_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/layout"
	"storefront/internal/registry"
	"storefront/internal/service"
	"storefront/internal/slug"
	"storefront/internal/storage"
)

type fixture struct {
	store   *storage.SQLStore
	journal *storage.UndoStore
	emitter *service.MockEmitter
	sites   *service.SiteService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	db, err := storage.OpenSQLite(storage.SQLitePath(dir))
	require.NoError(t, err)
	store := storage.NewSQLStore(db, zap.NewNop())
	t.Cleanup(func() { store.Close() })

	jdb, err := storage.OpenSQLite(filepath.Join(dir, "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { jdb.Close() })
	journal := storage.NewUndoStore(jdb)

	n := 0
	reg := registry.MustBuiltin()
	emitter := &service.MockEmitter{}
	sites := service.NewSiteService(service.Deps{
		Store:    store,
		Registry: reg,
		Editor: layout.NewEditor(reg, layout.WithSuffixSource(func() string {
			n++
			return fmt.Sprintf("n%d", n)
		})),
		History: journal,
		Emitter: emitter,
		Logger:  zap.NewNop(),
	})
	return &fixture{store: store, journal: journal, emitter: emitter, sites: sites}
}

func (f *fixture) seed(t *testing.T, restaurantID, slugValue string, l domain.Layout) {
	t.Helper()
	_, err := f.store.Save(context.Background(), restaurantID, domain.SiteUpdate{Slug: &slugValue, Layout: l})
	require.NoError(t, err)
}

func threeBlocks() domain.Layout {
	return domain.Layout{
		{ID: "A", Type: domain.BlockTypeBanner, IsActive: true, Props: domain.Props{"title": "Hi"}},
		{ID: "B", Type: domain.BlockTypeMenu, IsActive: true, Props: domain.Props{}},
		{ID: "C", Type: domain.BlockTypeFooter, IsActive: true, Props: domain.Props{}},
	}
}

func layoutIDs(cfg *domain.SiteConfiguration) []string {
	out := make([]string, len(cfg.Layout))
	for i, b := range cfg.Layout {
		out[i] = b.ID
	}
	return out
}

func TestSession_EndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "r1", "bistro", threeBlocks())

	sess, err := f.sites.Open(ctx, "Bistro")
	require.NoError(t, err)

	assert.Equal(t, []domain.NavLink{
		{Label: "Home", URL: "#banner"},
		{Label: "Menu", URL: "#menu"},
	}, sess.Navigation())

	cfg := sess.MoveDown(ctx, "A")
	assert.Equal(t, []string{"B", "A", "C"}, layoutIDs(cfg))
	assert.Equal(t, []domain.NavLink{
		{Label: "Menu", URL: "#menu"},
		{Label: "Home", URL: "#banner"},
	}, sess.Navigation())
	assert.True(t, sess.Dirty())

	published, err := sess.Publish(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A", "C"}, layoutIDs(published))
	assert.False(t, sess.Dirty())

	links, err := f.sites.Navigation(ctx, "bistro")
	require.NoError(t, err)
	assert.Equal(t, "Menu", links[0].Label)

	assert.Contains(t, f.emitter.Names(), service.EventPublished)
}

func TestSession_NoOpEditsLeaveNoHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "r1", "bistro", threeBlocks())
	sess, err := f.sites.Open(ctx, "bistro")
	require.NoError(t, err)

	sess.MoveUp(ctx, "A")
	sess.MoveDown(ctx, "C")
	sess.Remove(ctx, "missing")
	sess.ApplyVariant(ctx, "B", "no-such-variant")
	sess.SwapType(ctx, "B", "carousel", false)

	assert.Zero(t, sess.UndoDepth())
	assert.False(t, sess.Dirty())
	assert.Empty(t, f.emitter.Names())
}

func TestSession_UndoRedo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "r1", "bistro", threeBlocks())
	sess, err := f.sites.Open(ctx, "bistro")
	require.NoError(t, err)

	_, err = sess.Undo(ctx)
	assert.ErrorIs(t, err, domain.ErrNothingToUndo)

	cfg := sess.Duplicate(ctx, "B")
	assert.Equal(t, []string{"A", "B", "B-n1", "C"}, layoutIDs(cfg))
	cfg = sess.Remove(ctx, "A")
	assert.Equal(t, []string{"B", "B-n1", "C"}, layoutIDs(cfg))

	cfg, err = sess.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "B-n1", "C"}, layoutIDs(cfg))

	cfg, err = sess.Redo(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "B-n1", "C"}, layoutIDs(cfg))

	_, err = sess.Redo(ctx)
	assert.ErrorIs(t, err, domain.ErrNothingToRedo)

	sess.Undo(ctx)
	sess.SetActive(ctx, "C", false)
	assert.Zero(t, sess.RedoDepth(), "a new edit clears redo")

	tree, err := sess.History(ctx)
	require.NoError(t, err)
	require.NotNil(t, tree)
	assert.Len(t, tree.Nodes, 4, "open, duplicate, remove, hide")
	assert.Equal(t, tree.Nodes[len(tree.Nodes)-1].ID, tree.CurrentID)
}

func TestSession_UndoIsBounded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "r1", "bistro", threeBlocks())
	sess, err := f.sites.Open(ctx, "bistro")
	require.NoError(t, err)

	for i := 0; i < service.MaxUndo+10; i++ {
		sess.SetThemeColor(ctx, fmt.Sprintf("#%06d", i))
	}
	assert.Equal(t, service.MaxUndo, sess.UndoDepth())
}

func TestSession_SnapshotsAreIndependent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "r1", "bistro", threeBlocks())
	sess, err := f.sites.Open(ctx, "bistro")
	require.NoError(t, err)

	snap := sess.Snapshot()
	snap.Layout[0].Props["title"] = "mutated"
	assert.Equal(t, "Hi", sess.Snapshot().Layout[0].Props["title"])

	sess.UpdateProps(ctx, "A", domain.Props{"title": "Hello"})
	undone, err := sess.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Hi", undone.Layout[0].Props["title"])
}

func TestSession_ThemeSetters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "r1", "bistro", threeBlocks())
	sess, err := f.sites.Open(ctx, "bistro")
	require.NoError(t, err)

	cfg, err := sess.SetPaletteColor(ctx, domain.RolePrimary, "#123456")
	require.NoError(t, err)
	assert.Equal(t, "#123456", cfg.GlobalStyles.Palette.Primary)

	_, err = sess.SetPaletteColor(ctx, "accent", "#000")
	assert.ErrorIs(t, err, domain.ErrUnknownRole)

	cfg, err = sess.SetTypography(ctx, domain.FontBody, "Lato")
	require.NoError(t, err)
	assert.Equal(t, "Lato", cfg.GlobalStyles.Typography.Body)

	_, err = sess.SetTypography(ctx, "caption", "Lato")
	assert.ErrorIs(t, err, domain.ErrUnknownRole)

	require.NoError(t, sess.SetViewport(domain.ViewportTablet))
	assert.Equal(t, 768, sess.Preview().MaxWidth)
	assert.ErrorIs(t, sess.SetViewport("watch"), domain.ErrInvalidViewport)

	saved, err := sess.SaveTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, "#123456", saved.GlobalStyles.Palette.Primary)
	assert.Len(t, saved.Layout, 3)
}

func TestSession_PublishRejectsTakenSlug(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "r1", "bistro", threeBlocks())
	f.seed(t, "r2", "taverna", nil)

	sess, err := f.sites.Open(ctx, "bistro")
	require.NoError(t, err)

	_, err = sess.SetSlug(ctx, "Not A Slug")
	assert.ErrorIs(t, err, domain.ErrSlugInvalid)

	_, err = sess.SetSlug(ctx, "taverna")
	require.NoError(t, err)

	res, current := sess.CheckSlug(ctx, "taverna")
	assert.True(t, current)
	assert.False(t, res.Available)

	_, err = sess.Publish(ctx)
	assert.ErrorIs(t, err, domain.ErrSlugUnavailable)

	_, err = sess.SetSlug(ctx, "bistro-2")
	require.NoError(t, err)
	saved, err := sess.Publish(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bistro-2", saved.Slug)

	_, err = f.sites.SessionBySlug("bistro-2")
	assert.NoError(t, err)
}

// failingStore breaks saves after loading.
type failingStore struct {
	domain.SiteStore
}

func (failingStore) Save(context.Context, string, domain.SiteUpdate) (*domain.SiteConfiguration, error) {
	return nil, errors.New("disk full")
}

func TestSession_PublishPropagatesStoreErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "r1", "bistro", threeBlocks())

	reg := registry.MustBuiltin()
	broken := failingStore{SiteStore: f.store}
	sites := service.NewSiteService(service.Deps{
		Store:    broken,
		Registry: reg,
		Slugs:    slug.NewService(slug.StoreAuthority{Store: broken}, zap.NewNop()),
	})
	sess, err := sites.Open(ctx, "bistro")
	require.NoError(t, err)

	_, err = sess.Publish(ctx)
	assert.ErrorContains(t, err, "disk full")
}

func TestSiteService_SessionLookup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "r1", "bistro", threeBlocks())

	_, err := f.sites.Session("r1")
	assert.ErrorIs(t, err, domain.ErrNoSession)

	_, err = f.sites.Open(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSiteNotFound)

	_, err = f.sites.OpenByRestaurant(ctx, "r1")
	require.NoError(t, err)
	_, err = f.sites.Session("r1")
	assert.NoError(t, err)

	f.sites.CloseSession("r1")
	_, err = f.sites.Session("r1")
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestSiteService_RejectsCorruptLayout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "r1", "bistro", domain.Layout{{ID: "x"}, {ID: "x"}})

	_, err := f.sites.Open(ctx, "bistro")
	assert.ErrorIs(t, err, layout.ErrInvalidLayout)
}

func TestSiteService_Onboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "other", "cafe-deja-vu", nil)

	cfg, err := f.sites.Onboard(ctx, "r1", "Café Déjà Vu!", "")
	require.NoError(t, err)
	assert.Equal(t, "cafe-deja-vu-2", cfg.Slug)
	assert.Len(t, cfg.Layout, 5)
	assert.Equal(t, domain.BlockTypeBanner, cfg.Layout[0].Type)
	assert.NotEmpty(t, cfg.GlobalStyles.Palette.Primary)
	require.NoError(t, layout.Validate(cfg.Layout))

	again, err := f.sites.Onboard(ctx, "r1", "Something Else", "")
	require.NoError(t, err)
	assert.Equal(t, "cafe-deja-vu-2", again.Slug, "onboarding is idempotent")

	page, err := f.sites.Public(ctx, "cafe-deja-vu-2")
	require.NoError(t, err)
	assert.Len(t, page.Blocks, 5)
}

func TestSiteService_Onboard_LongName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	const name = "The Original Famous Family Owned Neapolitan Pizzeria And Trattoria Since 1952"

	cfg, err := f.sites.Onboard(ctx, "r1", name, "")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(cfg.Slug), slug.MaxLength)
	require.NoError(t, slug.Validate(cfg.Slug))

	sess, err := f.sites.OpenByRestaurant(ctx, "r1")
	require.NoError(t, err)
	_, err = sess.Publish(ctx)
	require.NoError(t, err)

	second, err := f.sites.Onboard(ctx, "r2", name, "")
	require.NoError(t, err)
	assert.Equal(t, cfg.Slug+"-2", second.Slug)
	assert.LessOrEqual(t, len(second.Slug), slug.MaxLength)
}

// editingStore runs an edit on the open session while a save is in flight.
type editingStore struct {
	domain.SiteStore
	during func()
}

func (s *editingStore) Save(ctx context.Context, restaurantID string, u domain.SiteUpdate) (*domain.SiteConfiguration, error) {
	if s.during != nil {
		s.during()
	}
	return s.SiteStore.Save(ctx, restaurantID, u)
}

func TestSession_PublishKeepsEditsMadeDuringSave(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "r1", "bistro", threeBlocks())

	store := &editingStore{SiteStore: f.store}
	sites := service.NewSiteService(service.Deps{
		Store:    store,
		Registry: registry.MustBuiltin(),
		Slugs:    slug.NewService(slug.StoreAuthority{Store: store}, zap.NewNop()),
	})
	sess, err := sites.Open(ctx, "bistro")
	require.NoError(t, err)
	store.during = func() { sess.Remove(ctx, "C") }

	saved, err := sess.Publish(ctx)
	require.NoError(t, err)
	assert.Len(t, saved.Layout, 3)

	stored, err := f.store.LoadByRestaurant(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, stored.Layout, 3)
	assert.Equal(t, []string{"A", "B"}, layoutIDs(sess.Snapshot()))
	assert.True(t, sess.Dirty(), "the mid-save edit is still unpublished")

	store.during = nil
	_, err = sess.Publish(ctx)
	require.NoError(t, err)
	assert.False(t, sess.Dirty())
}
