package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/layout"
	"storefront/internal/nav"
	"storefront/internal/render"
	"storefront/internal/slug"
	"storefront/internal/storage"
	"storefront/internal/theme"
)

// MaxUndo bounds the undo stack of a session.
const MaxUndo = 40

type snapshot struct {
	cfg    *domain.SiteConfiguration
	nodeID string
}

// Session is the editing state of one restaurant's storefront. Edits are
// applied serially to the current snapshot; each one keeps the previous
// snapshot for undo. Nothing reaches the store until Publish.
type Session struct {
	svc     *SiteService
	checker *slug.Checker

	mu       sync.Mutex
	current  *domain.SiteConfiguration
	nodeID   string
	undo     []snapshot
	redo     []snapshot
	viewport domain.Viewport
	dirty    bool
}

func newSession(svc *SiteService, cfg *domain.SiteConfiguration) *Session {
	return &Session{
		svc:     svc,
		checker: slug.NewChecker(svc.slugs),
		current: cfg.Clone(),
	}
}

// RestaurantID identifies the site being edited.
func (s *Session) RestaurantID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.RestaurantID
}

// Snapshot returns a copy of the current configuration.
func (s *Session) Snapshot() *domain.SiteConfiguration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Dirty reports whether there are edits that have not been published.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// ─────────────────────────────────────────────────────────────
// Structural edits
// ─────────────────────────────────────────────────────────────

func (s *Session) MoveUp(ctx context.Context, id string) *domain.SiteConfiguration {
	return s.editLayout(ctx, "move "+id+" up", func(l domain.Layout) domain.Layout {
		return layout.MoveUp(l, id)
	})
}

func (s *Session) MoveDown(ctx context.Context, id string) *domain.SiteConfiguration {
	return s.editLayout(ctx, "move "+id+" down", func(l domain.Layout) domain.Layout {
		return layout.MoveDown(l, id)
	})
}

func (s *Session) Duplicate(ctx context.Context, id string) *domain.SiteConfiguration {
	return s.editLayout(ctx, "duplicate "+id, func(l domain.Layout) domain.Layout {
		return s.svc.editor.Duplicate(l, id)
	})
}

func (s *Session) Remove(ctx context.Context, id string) *domain.SiteConfiguration {
	return s.editLayout(ctx, "remove "+id, func(l domain.Layout) domain.Layout {
		return layout.Remove(l, id)
	})
}

func (s *Session) SetActive(ctx context.Context, id string, active bool) *domain.SiteConfiguration {
	label := "hide " + id
	if active {
		label = "show " + id
	}
	return s.editLayout(ctx, label, func(l domain.Layout) domain.Layout {
		return layout.SetActive(l, id, active)
	})
}

func (s *Session) SwapType(ctx context.Context, id string, t domain.BlockType, preserveCommon bool) *domain.SiteConfiguration {
	return s.editLayout(ctx, fmt.Sprintf("swap %s to %s", id, t), func(l domain.Layout) domain.Layout {
		return s.svc.editor.SwapType(l, id, t, preserveCommon)
	})
}

// Add inserts a new block of type t after the block with id after (or at the
// end). ok is false for types the catalog does not know.
func (s *Session) Add(ctx context.Context, t domain.BlockType, after string) (cfg *domain.SiteConfiguration, id string, ok bool) {
	cfg = s.editLayout(ctx, "add "+string(t), func(l domain.Layout) domain.Layout {
		var out domain.Layout
		out, id, ok = s.svc.editor.Add(l, t, after)
		return out
	})
	return cfg, id, ok
}

func (s *Session) ApplyVariant(ctx context.Context, id, variant string) *domain.SiteConfiguration {
	return s.editLayout(ctx, fmt.Sprintf("apply %s to %s", variant, id), func(l domain.Layout) domain.Layout {
		return s.svc.editor.ApplyVariant(l, id, variant)
	})
}

func (s *Session) UpdateProps(ctx context.Context, id string, patch domain.Props) *domain.SiteConfiguration {
	return s.editLayout(ctx, "edit "+id, func(l domain.Layout) domain.Layout {
		return layout.UpdateProps(l, id, patch)
	})
}

// editLayout applies op to a copy of the current layout. Editor operations
// return their input when they are no-ops, and those leave no history entry.
func (s *Session) editLayout(ctx context.Context, label string, op func(domain.Layout) domain.Layout) *domain.SiteConfiguration {
	return s.edit(ctx, label, func(next *domain.SiteConfiguration) bool {
		before := next.Layout
		after := op(before)
		if sameLayout(before, after) {
			return false
		}
		next.Layout = after
		return true
	})
}

func sameLayout(a, b domain.Layout) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}

// ─────────────────────────────────────────────────────────────
// Theme and identity
// ─────────────────────────────────────────────────────────────

func (s *Session) SetThemeColor(ctx context.Context, value string) *domain.SiteConfiguration {
	return s.edit(ctx, "theme color", func(next *domain.SiteConfiguration) bool {
		if next.ThemeColor == value {
			return false
		}
		next.ThemeColor = value
		return true
	})
}

// SetPaletteColor assigns a colour to one of the semantic palette roles.
func (s *Session) SetPaletteColor(ctx context.Context, role, value string) (*domain.SiteConfiguration, error) {
	if !theme.IsRole(role) {
		return nil, fmt.Errorf("%w: palette role %q", domain.ErrUnknownRole, role)
	}
	return s.edit(ctx, "palette "+role, func(next *domain.SiteConfiguration) bool {
		p, _ := next.GlobalStyles.Palette.With(role, value)
		if p == next.GlobalStyles.Palette {
			return false
		}
		next.GlobalStyles.Palette = p
		return true
	}), nil
}

// SetTypography assigns the heading or body font.
func (s *Session) SetTypography(ctx context.Context, token, font string) (*domain.SiteConfiguration, error) {
	var field func(*domain.Typography) *string
	switch token {
	case domain.FontHeading:
		field = func(t *domain.Typography) *string { return &t.Heading }
	case domain.FontBody:
		field = func(t *domain.Typography) *string { return &t.Body }
	default:
		return nil, fmt.Errorf("%w: typography token %q", domain.ErrUnknownRole, token)
	}
	return s.edit(ctx, "font "+token, func(next *domain.SiteConfiguration) bool {
		f := field(&next.GlobalStyles.Typography)
		if *f == font {
			return false
		}
		*f = font
		return true
	}), nil
}

// SetSlug changes the slug the site will publish under. Only the format is
// checked here; availability is confirmed by CheckSlug and again on Publish.
func (s *Session) SetSlug(ctx context.Context, value string) (*domain.SiteConfiguration, error) {
	if err := slug.Validate(value); err != nil {
		return nil, err
	}
	return s.edit(ctx, "slug "+value, func(next *domain.SiteConfiguration) bool {
		if next.Slug == value {
			return false
		}
		next.Slug = value
		return true
	}), nil
}

// SetViewport selects the preview breakpoint. It is not part of the document
// and is not recorded in history.
func (s *Session) SetViewport(v domain.Viewport) error {
	if !v.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidViewport, v)
	}
	s.mu.Lock()
	s.viewport = v
	s.mu.Unlock()
	return nil
}

func (s *Session) Viewport() domain.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport
}

// ─────────────────────────────────────────────────────────────
// History
// ─────────────────────────────────────────────────────────────

// edit runs mutate on a deep copy of the current snapshot. When mutate reports
// a change the copy becomes current and the old snapshot is kept for undo.
func (s *Session) edit(ctx context.Context, label string, mutate func(next *domain.SiteConfiguration) bool) *domain.SiteConfiguration {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Clone()
	if !mutate(next) {
		return s.current.Clone()
	}

	s.undo = append(s.undo, snapshot{cfg: s.current, nodeID: s.nodeID})
	if len(s.undo) > MaxUndo {
		s.undo = s.undo[len(s.undo)-MaxUndo:]
	}
	s.redo = nil
	s.current = next
	s.dirty = true
	s.journalLocked(ctx, label)

	s.svc.emitter.Emit(ctx, EventLayoutChanged, map[string]any{
		"restaurantId": next.RestaurantID,
		"change":       label,
	})
	return next.Clone()
}

// Undo restores the snapshot before the last edit.
func (s *Session) Undo(ctx context.Context) (*domain.SiteConfiguration, error) {
	return s.step(ctx, &s.undo, &s.redo, domain.ErrNothingToUndo)
}

// Redo re-applies the last undone edit.
func (s *Session) Redo(ctx context.Context) (*domain.SiteConfiguration, error) {
	return s.step(ctx, &s.redo, &s.undo, domain.ErrNothingToRedo)
}

func (s *Session) step(ctx context.Context, from, to *[]snapshot, empty error) (*domain.SiteConfiguration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(*from) == 0 {
		return nil, empty
	}
	prev := (*from)[len(*from)-1]
	*from = (*from)[:len(*from)-1]
	*to = append(*to, snapshot{cfg: s.current, nodeID: s.nodeID})

	s.current = prev.cfg
	s.nodeID = prev.nodeID
	s.dirty = true
	if s.svc.history != nil && prev.nodeID != "" {
		if err := s.svc.history.GoTo(ctx, s.current.RestaurantID, prev.nodeID); err != nil {
			s.svc.logger.Warn("journal move failed", zap.String("restaurant_id", s.current.RestaurantID), zap.Error(err))
		}
	}
	s.svc.emitter.Emit(ctx, EventLayoutChanged, map[string]any{
		"restaurantId": s.current.RestaurantID,
		"change":       "history",
	})
	return s.current.Clone(), nil
}

// UndoDepth and RedoDepth report how many steps each stack holds.
func (s *Session) UndoDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo)
}

func (s *Session) RedoDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redo)
}

// startJournal drops any journal left by an earlier session and records the
// opened state as its root.
func (s *Session) startJournal(ctx context.Context) {
	if s.svc.history == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.svc.history.Clear(ctx, s.current.RestaurantID); err != nil {
		s.svc.logger.Warn("journal reset failed", zap.String("restaurant_id", s.current.RestaurantID), zap.Error(err))
	}
	s.journalLocked(ctx, "open")
}

func (s *Session) journalLocked(ctx context.Context, label string) {
	if s.svc.history == nil {
		return
	}
	node, err := s.svc.history.Push(ctx, s.current.RestaurantID, s.nodeID, label, s.current)
	if err != nil {
		s.svc.logger.Warn("journal write failed",
			zap.String("restaurant_id", s.current.RestaurantID),
			zap.String("change", label),
			zap.Error(err))
		return
	}
	s.nodeID = node.ID
}

// History returns the persisted edit journal, or nil when journaling is off.
func (s *Session) History(ctx context.Context) (*storage.UndoTree, error) {
	if s.svc.history == nil {
		return nil, nil
	}
	return s.svc.history.LoadTree(ctx, s.RestaurantID())
}

// ─────────────────────────────────────────────────────────────
// Slug, preview and publish
// ─────────────────────────────────────────────────────────────

// CheckSlug checks availability for this restaurant. A check superseded by a
// later one returns current=false and must be ignored by the caller.
func (s *Session) CheckSlug(ctx context.Context, value string) (slug.Result, bool) {
	res, current := s.checker.Check(ctx, value, s.RestaurantID())
	if current {
		s.svc.emitter.Emit(ctx, EventSlugChecked, res)
	}
	return res, current
}

// Navigation derives the navigation of the current snapshot.
func (s *Session) Navigation() []domain.NavLink {
	return nav.Generate(s.Snapshot().Layout, s.svc.registry)
}

// Preview renders the current snapshot at the selected viewport.
func (s *Session) Preview() render.Page {
	s.mu.Lock()
	cfg, vp := s.current.Clone(), s.viewport
	s.mu.Unlock()
	return render.Preview(cfg, s.svc.registry, vp)
}

// Publish validates the slug and saves the whole configuration as it stood
// when Publish was called. Saves are last-write-wins: a concurrent editor of
// the same restaurant elsewhere is overwritten.
func (s *Session) Publish(ctx context.Context) (*domain.SiteConfiguration, error) {
	s.mu.Lock()
	base := s.current
	cfg := base.Clone()
	s.mu.Unlock()
	rid := cfg.RestaurantID
	if !s.svc.publishing.acquire(rid) {
		return nil, fmt.Errorf("restaurant %q: %w", rid, domain.ErrPublishInProgress)
	}
	defer s.svc.publishing.release(rid)

	if err := slug.Validate(cfg.Slug); err != nil {
		return nil, err
	}
	if !s.svc.slugs.IsAvailable(ctx, cfg.Slug, rid) {
		return nil, fmt.Errorf("%w: %q", domain.ErrSlugUnavailable, cfg.Slug)
	}
	saved, err := s.svc.store.Save(ctx, rid, domain.FullUpdate(cfg))
	if err != nil {
		return nil, fmt.Errorf("publish %q: %w", rid, err)
	}

	s.mu.Lock()
	if s.current != base {
		// Edited while the save was in flight: the newer snapshot is not
		// what was stored, so the session stays dirty and keeps its journal.
		s.mu.Unlock()
		s.svc.logger.Info("site edited during publish; newer edits remain unpublished", zap.String("restaurant_id", rid))
		s.svc.emitter.Emit(ctx, EventPublished, map[string]string{"restaurantId": rid, "slug": saved.Slug})
		return saved, nil
	}
	s.current.UpdatedAt = saved.UpdatedAt
	s.dirty = false
	if s.svc.history != nil {
		if err := s.svc.history.Clear(ctx, rid); err != nil {
			s.svc.logger.Warn("journal clear failed", zap.String("restaurant_id", rid), zap.Error(err))
		}
		s.nodeID = ""
		forgetNodes(s.undo)
		forgetNodes(s.redo)
		s.journalLocked(ctx, "publish")
	}
	s.mu.Unlock()

	s.svc.emitter.Emit(ctx, EventPublished, map[string]string{"restaurantId": rid, "slug": saved.Slug})
	s.svc.logger.Info("site published", zap.String("restaurant_id", rid), zap.String("slug", saved.Slug))
	return saved, nil
}

func forgetNodes(stack []snapshot) {
	for i := range stack {
		stack[i].nodeID = ""
	}
}

// SaveTheme persists only the theme colour and global styles, leaving the
// stored layout and slug as they are.
func (s *Session) SaveTheme(ctx context.Context) (*domain.SiteConfiguration, error) {
	cfg := s.Snapshot()
	saved, err := s.svc.store.Save(ctx, cfg.RestaurantID, domain.SiteUpdate{
		ThemeColor:   &cfg.ThemeColor,
		GlobalStyles: &cfg.GlobalStyles,
	})
	if err != nil {
		return nil, fmt.Errorf("save theme %q: %w", cfg.RestaurantID, err)
	}
	return saved, nil
}
