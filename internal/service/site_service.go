package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/layout"
	"storefront/internal/nav"
	"storefront/internal/registry"
	"storefront/internal/render"
	"storefront/internal/slug"
	"storefront/internal/storage"
	"storefront/internal/theme"
)

// History persists the edit journal of a session. storage.UndoStore is the
// production implementation.
type History interface {
	Push(ctx context.Context, restaurantID, parentID, label string, snapshot *domain.SiteConfiguration) (*storage.UndoNode, error)
	GoTo(ctx context.Context, restaurantID, nodeID string) error
	LoadTree(ctx context.Context, restaurantID string) (*storage.UndoTree, error)
	Clear(ctx context.Context, restaurantID string) error
}

// defaultLayout is the block sequence given to a freshly onboarded site.
var defaultLayout = []domain.BlockType{
	domain.BlockTypeBanner,
	domain.BlockTypeMenu,
	domain.BlockTypeText,
	domain.BlockTypeContact,
	domain.BlockTypeFooter,
}

// ─────────────────────────────────────────────────────────────
// SiteService: editing sessions over the site store
// ─────────────────────────────────────────────────────────────

// Deps are the collaborators of a SiteService. History and Emitter are optional.
type Deps struct {
	Store    domain.SiteStore
	Registry *registry.Registry
	Slugs    *slug.Service
	Editor   *layout.Editor
	History  History
	Emitter  EventEmitter
	Logger   *zap.Logger
}

// SiteService opens editing sessions, one per restaurant, and serves the
// read-only storefront views.
type SiteService struct {
	store    domain.SiteStore
	registry *registry.Registry
	slugs    *slug.Service
	editor   *layout.Editor
	history  History
	emitter  EventEmitter
	logger   *zap.Logger

	publishing inflight

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSiteService(d Deps) *SiteService {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Emitter == nil {
		d.Emitter = LogEmitter{Logger: d.Logger}
	}
	if d.Editor == nil {
		d.Editor = layout.NewEditor(d.Registry)
	}
	if d.Slugs == nil {
		d.Slugs = slug.NewService(slug.StoreAuthority{Store: d.Store}, d.Logger)
	}
	return &SiteService{
		store:    d.Store,
		registry: d.Registry,
		slugs:    d.Slugs,
		editor:   d.Editor,
		history:  d.History,
		emitter:  d.Emitter,
		logger:   d.Logger,
		sessions: make(map[string]*Session),
	}
}

// Registry returns the block catalog the service edits against.
func (s *SiteService) Registry() *registry.Registry { return s.registry }

// Slugs returns the slug service.
func (s *SiteService) Slugs() *slug.Service { return s.slugs }

// Open loads the site addressed by slugValue and starts (or restarts) its
// editing session.
func (s *SiteService) Open(ctx context.Context, slugValue string) (*Session, error) {
	cfg, err := s.store.LoadBySlug(ctx, slugValue)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", slugValue, err)
	}
	return s.startSession(ctx, cfg)
}

// OpenByRestaurant is Open keyed by restaurant id.
func (s *SiteService) OpenByRestaurant(ctx context.Context, restaurantID string) (*Session, error) {
	cfg, err := s.store.LoadByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("open restaurant %q: %w", restaurantID, err)
	}
	return s.startSession(ctx, cfg)
}

func (s *SiteService) startSession(ctx context.Context, cfg *domain.SiteConfiguration) (*Session, error) {
	if err := layout.Validate(cfg.Layout); err != nil {
		return nil, fmt.Errorf("open restaurant %q: %w", cfg.RestaurantID, err)
	}
	if cfg.Layout == nil {
		cfg.Layout = domain.Layout{}
	}
	sess := newSession(s, cfg)
	sess.startJournal(ctx)

	s.mu.Lock()
	s.sessions[cfg.RestaurantID] = sess
	s.mu.Unlock()

	s.logger.Info("editing session opened",
		zap.String("restaurant_id", cfg.RestaurantID),
		zap.String("slug", cfg.Slug),
		zap.Int("blocks", len(cfg.Layout)))
	return sess, nil
}

// Session returns the open session of a restaurant.
func (s *SiteService) Session(restaurantID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[restaurantID]
	if !ok {
		return nil, fmt.Errorf("restaurant %q: %w", restaurantID, domain.ErrNoSession)
	}
	return sess, nil
}

// SessionBySlug finds an open session by its current, possibly unpublished, slug.
func (s *SiteService) SessionBySlug(slugValue string) (*Session, error) {
	key := slug.Key(slugValue)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if slug.Key(sess.Snapshot().Slug) == key {
			return sess, nil
		}
	}
	return nil, fmt.Errorf("slug %q: %w", slugValue, domain.ErrNoSession)
}

// CloseSession discards a session without saving.
func (s *SiteService) CloseSession(restaurantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, restaurantID)
}

// Public renders the published storefront for slugValue.
func (s *SiteService) Public(ctx context.Context, slugValue string) (render.Page, error) {
	cfg, err := s.store.LoadBySlug(ctx, slugValue)
	if err != nil {
		return render.Page{}, err
	}
	return render.Public(cfg, s.registry), nil
}

// Navigation derives the navigation of the published site for slugValue.
func (s *SiteService) Navigation(ctx context.Context, slugValue string) ([]domain.NavLink, error) {
	cfg, err := s.store.LoadBySlug(ctx, slugValue)
	if err != nil {
		return nil, err
	}
	return nav.Generate(cfg.Layout, s.registry), nil
}

// Onboard creates the starter configuration of a new restaurant: default
// styles, the default block sequence and a free slug derived from slugHint,
// or from name when no hint is given. An existing configuration is returned
// unchanged.
func (s *SiteService) Onboard(ctx context.Context, restaurantID, name, slugHint string) (*domain.SiteConfiguration, error) {
	existing, err := s.store.LoadByRestaurant(ctx, restaurantID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrSiteNotFound) {
		return nil, fmt.Errorf("onboard %q: %w", restaurantID, err)
	}

	source := slugHint
	if source == "" {
		source = name
	}
	slugValue, err := s.slugs.Unique(ctx, source, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("onboard %q: %w", restaurantID, err)
	}

	cfg := &domain.SiteConfiguration{
		RestaurantID: restaurantID,
		Slug:         slugValue,
		GlobalStyles: theme.DefaultStyles(),
		Layout:       s.DefaultLayout(),
	}
	cfg.ThemeColor = cfg.GlobalStyles.Palette.Primary

	saved, err := s.store.Save(ctx, restaurantID, domain.FullUpdate(cfg))
	if err != nil {
		return nil, fmt.Errorf("onboard %q: %w", restaurantID, err)
	}
	s.emitter.Emit(ctx, EventOnboarded, map[string]string{"restaurantId": restaurantID, "slug": saved.Slug})
	s.logger.Info("site onboarded", zap.String("restaurant_id", restaurantID), zap.String("slug", saved.Slug))
	return saved, nil
}

// DefaultLayout builds the starter blocks from the catalog defaults. Types
// missing from the catalog are skipped.
func (s *SiteService) DefaultLayout() domain.Layout {
	l := domain.Layout{}
	for _, t := range defaultLayout {
		l, _, _ = s.editor.Add(l, t, "")
	}
	return l
}

// WaitForPublishes blocks until in-flight publishes finish or ctx is done.
func (s *SiteService) WaitForPublishes(ctx context.Context) error {
	return s.publishing.drain(ctx)
}
