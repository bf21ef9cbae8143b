package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/domain"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "storefront.db"))
	require.NoError(t, err)
	s := NewSQLStore(db, zap.NewNop())
	t.Cleanup(func() { s.Close() })
	return s
}

func setupMockDB(t *testing.T, driver Driver) (sqlmock.Sqlmock, *SQLStore) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	s := NewSQLStore(&DB{conn: conn, dialect: dialects[driver]}, zap.NewNop())
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return mock, s
}

func strPtr(s string) *string { return &s }

func TestSQLStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	_, err := s.LoadBySlug(ctx, "nowhere")
	assert.ErrorIs(t, err, domain.ErrSiteNotFound)

	saved, err := s.Save(ctx, "r1", domain.SiteUpdate{
		Slug:       strPtr("Trattoria"),
		ThemeColor: strPtr("#b3261e"),
		Layout: domain.Layout{
			{ID: "a", Type: domain.BlockTypeBanner, IsActive: true, Props: domain.Props{"title": "Ciao", "columns": 2}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "r1", saved.RestaurantID)
	assert.False(t, saved.UpdatedAt.IsZero())

	got, err := s.LoadBySlug(ctx, "trattoria")
	require.NoError(t, err)
	assert.Equal(t, "Trattoria", got.Slug)
	assert.Equal(t, "#b3261e", got.ThemeColor)
	require.Len(t, got.Layout, 1)
	assert.Equal(t, "Ciao", got.Layout[0].Props["title"])
	assert.Equal(t, float64(2), got.Layout[0].Props["columns"])

	byID, err := s.LoadByRestaurant(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, got.Slug, byID.Slug)
}

func TestSQLStore_PartialUpdateKeepsOtherFields(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	_, err := s.Save(ctx, "r1", domain.SiteUpdate{
		Slug:   strPtr("pizzeria"),
		Layout: domain.Layout{{ID: "a", Type: domain.BlockTypeText}},
	})
	require.NoError(t, err)

	styles := domain.GlobalStyles{Palette: domain.Palette{Primary: "#000"}}
	cfg, err := s.Save(ctx, "r1", domain.SiteUpdate{GlobalStyles: &styles})
	require.NoError(t, err)
	assert.Equal(t, "pizzeria", cfg.Slug)
	assert.Len(t, cfg.Layout, 1)
	assert.Equal(t, "#000", cfg.GlobalStyles.Palette.Primary)

	cfg, err = s.Save(ctx, "r1", domain.SiteUpdate{Layout: domain.Layout{}})
	require.NoError(t, err)
	assert.Empty(t, cfg.Layout)
}

func TestSQLStore_SlugUniqueness(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	_, err := s.Save(ctx, "r1", domain.SiteUpdate{Slug: strPtr("sushi-bar")})
	require.NoError(t, err)

	_, err = s.Save(ctx, "r2", domain.SiteUpdate{Slug: strPtr("Sushi-Bar")})
	assert.ErrorIs(t, err, domain.ErrSlugTaken)

	_, err = s.Save(ctx, "r1", domain.SiteUpdate{Slug: strPtr("sushi-bar")})
	assert.NoError(t, err, "re-saving own slug is allowed")

	ok, err := s.CheckSlugAvailable(ctx, "SUSHI-BAR", "r2")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.CheckSlugAvailable(ctx, "sushi-bar", "r1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.CheckSlugAvailable(ctx, "ramen", "r2")
	require.NoError(t, err)
	assert.True(t, ok)

	// Sites without a slug do not collide with each other.
	_, err = s.Save(ctx, "r3", domain.SiteUpdate{ThemeColor: strPtr("#fff")})
	require.NoError(t, err)
	_, err = s.Save(ctx, "r4", domain.SiteUpdate{ThemeColor: strPtr("#000")})
	require.NoError(t, err)
}

func TestSQLStore_ListSlugs(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	for id, sl := range map[string]string{"r1": "zeta", "r2": "Alpha"} {
		_, err := s.Save(ctx, id, domain.SiteUpdate{Slug: strPtr(sl)})
		require.NoError(t, err)
	}
	_, err := s.Save(ctx, "r3", domain.SiteUpdate{ThemeColor: strPtr("#fff")})
	require.NoError(t, err)

	owners, err := s.ListSlugs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.SlugOwner{
		{Slug: "Alpha", RestaurantID: "r2"},
		{Slug: "zeta", RestaurantID: "r1"},
	}, owners)
}

func TestSQLStore_PostgresSave(t *testing.T) {
	mock, s := setupMockDB(t, DriverPostgres)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT doc FROM site_configs WHERE restaurant_id = \$1 FOR UPDATE`).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"doc"}))
	mock.ExpectQuery(`SELECT restaurant_id FROM site_configs WHERE slug_lower = \$1 AND restaurant_id <> \$2`).
		WithArgs("trattoria", "r1").
		WillReturnRows(sqlmock.NewRows([]string{"restaurant_id"}))
	mock.ExpectExec(`INSERT INTO site_configs .* ON CONFLICT \(restaurant_id\) DO UPDATE`).
		WithArgs("r1", "Trattoria", "trattoria", sqlmock.AnyArg(), time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	cfg, err := s.Save(context.Background(), "r1", domain.SiteUpdate{Slug: strPtr("Trattoria")})
	require.NoError(t, err)
	assert.Equal(t, "Trattoria", cfg.Slug)
	assert.NotNil(t, cfg.Layout)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_PostgresSlugTaken(t *testing.T) {
	mock, s := setupMockDB(t, DriverPostgres)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT doc FROM site_configs WHERE restaurant_id = \$1 FOR UPDATE`).
		WithArgs("r2").
		WillReturnRows(sqlmock.NewRows([]string{"doc"}).AddRow(`{"restaurantId":"r2","slug":"old","layout":[]}`))
	mock.ExpectQuery(`SELECT restaurant_id FROM site_configs WHERE slug_lower = \$1 AND restaurant_id <> \$2`).
		WithArgs("trattoria", "r2").
		WillReturnRows(sqlmock.NewRows([]string{"restaurant_id"}).AddRow("r1"))
	mock.ExpectRollback()

	_, err := s.Save(context.Background(), "r2", domain.SiteUpdate{Slug: strPtr("trattoria")})
	assert.ErrorIs(t, err, domain.ErrSlugTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_ConcurrentSlugClaimMapsToTaken(t *testing.T) {
	tests := []struct {
		name   string
		driver Driver
		lock   string
		err    error
	}{
		{"postgres", DriverPostgres, `SELECT doc FROM site_configs WHERE restaurant_id = \$1 FOR UPDATE`, &pq.Error{Code: "23505"}},
		{"mysql", DriverMySQL, `SELECT doc FROM site_configs WHERE restaurant_id = \? FOR UPDATE`, &mysql.MySQLError{Number: 1062}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, s := setupMockDB(t, tt.driver)

			mock.ExpectBegin()
			mock.ExpectQuery(tt.lock).
				WithArgs("r2").
				WillReturnRows(sqlmock.NewRows([]string{"doc"}))
			mock.ExpectQuery(`SELECT restaurant_id FROM site_configs WHERE slug_lower`).
				WillReturnRows(sqlmock.NewRows([]string{"restaurant_id"}))
			mock.ExpectExec(`INSERT INTO site_configs`).WillReturnError(tt.err)
			mock.ExpectRollback()

			_, err := s.Save(context.Background(), "r2", domain.SiteUpdate{Slug: strPtr("trattoria")})
			assert.ErrorIs(t, err, domain.ErrSlugTaken)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLStore_OtherWriteErrorsPassThrough(t *testing.T) {
	mock, s := setupMockDB(t, DriverPostgres)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT doc FROM site_configs`).WillReturnRows(sqlmock.NewRows([]string{"doc"}))
	mock.ExpectQuery(`SELECT restaurant_id FROM site_configs`).WillReturnRows(sqlmock.NewRows([]string{"restaurant_id"}))
	mock.ExpectExec(`INSERT INTO site_configs`).WillReturnError(&pq.Error{Code: "53100"})
	mock.ExpectRollback()

	_, err := s.Save(context.Background(), "r2", domain.SiteUpdate{Slug: strPtr("trattoria")})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSlugTaken)
	assert.ErrorContains(t, err, "write site")
}

func TestSQLStore_MySQLLoadBySlug(t *testing.T) {
	mock, s := setupMockDB(t, DriverMySQL)

	mock.ExpectQuery(`SELECT doc FROM site_configs WHERE slug_lower = \?`).
		WithArgs("bistro").
		WillReturnRows(sqlmock.NewRows([]string{"doc"}).
			AddRow(`{"restaurantId":"r9","slug":"Bistro","layout":[{"id":"a","type":"menu","props":{},"isActive":true}]}`))

	cfg, err := s.LoadBySlug(context.Background(), " Bistro ")
	require.NoError(t, err)
	assert.Equal(t, "r9", cfg.RestaurantID)
	require.Len(t, cfg.Layout, 1)
	assert.True(t, cfg.Layout[0].IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDialect_Rebind(t *testing.T) {
	q := `SELECT a FROM t WHERE x = ? AND y = ?`
	assert.Equal(t, q, dialects[DriverSQLite].rebind(q))
	assert.Equal(t, q, dialects[DriverMySQL].rebind(q))
	assert.Equal(t, `SELECT a FROM t WHERE x = $1 AND y = $2`, dialects[DriverPostgres].rebind(q))
}

func TestBuildDSN(t *testing.T) {
	o := Options{Host: "db", User: "u", Password: "p", Database: "shop"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=shop sslmode=disable", buildPostgresDSN(o))
	assert.Equal(t, "u:p@tcp(db:3306)/shop?parseTime=true&charset=utf8mb4", buildMySQLDSN(o))

	o.SSLMode, o.Port = "require", 3307
	assert.Equal(t, "u:p@tcp(db:3307)/shop?parseTime=true&charset=utf8mb4&tls=true", buildMySQLDSN(o))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "oracle"}, nil)
	assert.ErrorContains(t, err, "unsupported driver")
}
