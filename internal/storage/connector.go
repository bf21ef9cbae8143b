package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"storefront/internal/domain"
)

// Options selects and configures the site store backend.
type Options struct {
	Driver   Driver
	DataDir  string // SQLite file location; also home of the edit journal
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MongoURI string
}

// SQLitePath is where the SQLite backend keeps its data under dataDir.
func SQLitePath(dataDir string) string {
	return filepath.Join(dataDir, "storefront.db")
}

// JournalPath is where the edit journal lives under dataDir.
func JournalPath(dataDir string) string {
	return filepath.Join(dataDir, "journal.db")
}

// Open connects to the configured backend and returns a ready store.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (domain.SiteStore, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		db, err := OpenSQLite(SQLitePath(opts.DataDir))
		if err != nil {
			return nil, err
		}
		return NewSQLStore(db, logger), nil
	case DriverPostgres:
		db, err := OpenSQL(DriverPostgres, buildPostgresDSN(opts))
		if err != nil {
			return nil, err
		}
		return NewSQLStore(db, logger), nil
	case DriverMySQL:
		db, err := OpenSQL(DriverMySQL, buildMySQLDSN(opts))
		if err != nil {
			return nil, err
		}
		return NewSQLStore(db, logger), nil
	case DriverMongo:
		return OpenMongo(ctx, opts.MongoURI, opts.Database, logger)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", opts.Driver)
	}
}

func buildPostgresDSN(o Options) string {
	port := o.Port
	if port == 0 {
		port = 5432
	}
	sslMode := o.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		o.Host, port, o.User, o.Password, o.Database, sslMode,
	)
}

func buildMySQLDSN(o Options) string {
	port := o.Port
	if port == 0 {
		port = 3306
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		o.User, o.Password, o.Host, port, o.Database,
	)
	if o.SSLMode == "require" {
		dsn += "&tls=true"
	}
	return dsn
}
