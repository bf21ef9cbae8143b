package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"storefront/internal/domain"
	"storefront/internal/slug"
)

// SQLStore persists site configurations as JSON documents in a SQL table. The
// slug is mirrored into indexed columns so that lookups and the uniqueness
// check never parse documents.
type SQLStore struct {
	db     *DB
	logger *zap.Logger
	now    func() time.Time
}

var _ domain.SiteStore = (*SQLStore)(nil)

func NewSQLStore(db *DB, logger *zap.Logger) *SQLStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLStore{db: db, logger: logger, now: time.Now}
}

func (s *SQLStore) q(query string) string {
	return s.db.dialect.rebind(query)
}

// LoadBySlug returns the configuration whose slug matches case-insensitively.
func (s *SQLStore) LoadBySlug(ctx context.Context, slugValue string) (*domain.SiteConfiguration, error) {
	row := s.db.Conn().QueryRowContext(ctx,
		s.q(`SELECT doc FROM site_configs WHERE slug_lower = ?`), slug.Key(slugValue))
	return scanSite(row)
}

func (s *SQLStore) LoadByRestaurant(ctx context.Context, restaurantID string) (*domain.SiteConfiguration, error) {
	row := s.db.Conn().QueryRowContext(ctx,
		s.q(`SELECT doc FROM site_configs WHERE restaurant_id = ?`), restaurantID)
	return scanSite(row)
}

func scanSite(row *sql.Row) (*domain.SiteConfiguration, error) {
	var doc string
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSiteNotFound
		}
		return nil, fmt.Errorf("load site: %w", err)
	}
	var cfg domain.SiteConfiguration
	if err := json.Unmarshal([]byte(doc), &cfg); err != nil {
		return nil, fmt.Errorf("decode site: %w", err)
	}
	return &cfg, nil
}

// Save applies u to the stored configuration (or to a new one) inside a single
// transaction. A slug held by another restaurant fails with ErrSlugTaken.
func (s *SQLStore) Save(ctx context.Context, restaurantID string, u domain.SiteUpdate) (*domain.SiteConfiguration, error) {
	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	cfg, err := scanSite(tx.QueryRowContext(ctx,
		s.q(`SELECT doc FROM site_configs WHERE restaurant_id = ?`+s.db.dialect.lockSuffix), restaurantID))
	switch {
	case errors.Is(err, domain.ErrSiteNotFound):
		cfg = &domain.SiteConfiguration{RestaurantID: restaurantID, Layout: domain.Layout{}}
	case err != nil:
		return nil, err
	}

	u.Apply(cfg)
	cfg.RestaurantID = restaurantID
	cfg.UpdatedAt = s.now().UTC()

	var slugCol, keyCol sql.NullString
	if cfg.Slug != "" {
		key := slug.Key(cfg.Slug)
		var owner string
		err := tx.QueryRowContext(ctx,
			s.q(`SELECT restaurant_id FROM site_configs WHERE slug_lower = ? AND restaurant_id <> ?`),
			key, restaurantID).Scan(&owner)
		switch {
		case err == nil:
			return nil, fmt.Errorf("%w: %q", domain.ErrSlugTaken, cfg.Slug)
		case !errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("check slug: %w", err)
		}
		slugCol = sql.NullString{String: cfg.Slug, Valid: true}
		keyCol = sql.NullString{String: key, Valid: true}
	}

	doc, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode site: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.q(s.db.dialect.upsert),
		restaurantID, slugCol, keyCol, string(doc), cfg.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %q", domain.ErrSlugTaken, cfg.Slug)
		}
		return nil, fmt.Errorf("write site: %w", err)
	}
	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %q", domain.ErrSlugTaken, cfg.Slug)
		}
		return nil, fmt.Errorf("commit save: %w", err)
	}

	s.logger.Debug("site saved",
		zap.String("restaurant_id", restaurantID),
		zap.String("slug", cfg.Slug),
		zap.Int("blocks", len(cfg.Layout)))
	return cfg, nil
}

// isUniqueViolation reports whether err is the engine rejecting a duplicate
// key. The slug pre-check runs in the same transaction, so this only fires
// when another writer claims the slug between the check and the write.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

// CheckSlugAvailable reports whether slugValue is free or already held by
// excludingRestaurantID.
func (s *SQLStore) CheckSlugAvailable(ctx context.Context, slugValue, excludingRestaurantID string) (bool, error) {
	var owner string
	err := s.db.Conn().QueryRowContext(ctx,
		s.q(`SELECT restaurant_id FROM site_configs WHERE slug_lower = ?`), slug.Key(slugValue)).Scan(&owner)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return true, nil
	case err != nil:
		return false, fmt.Errorf("check slug: %w", err)
	}
	return owner == excludingRestaurantID, nil
}

func (s *SQLStore) ListSlugs(ctx context.Context) ([]domain.SlugOwner, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT slug, restaurant_id FROM site_configs WHERE slug IS NOT NULL ORDER BY slug_lower`)
	if err != nil {
		return nil, fmt.Errorf("list slugs: %w", err)
	}
	defer rows.Close()

	var out []domain.SlugOwner
	for rows.Next() {
		var o domain.SlugOwner
		if err := rows.Scan(&o.Slug, &o.RestaurantID); err != nil {
			return nil, fmt.Errorf("scan slug: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
