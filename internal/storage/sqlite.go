package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// DB wraps a SQL connection together with the dialect it speaks.
type DB struct {
	conn    *sql.DB
	dialect dialect
}

// OpenSQLite opens (or creates) the SQLite file at dbPath and migrates it.
func OpenSQLite(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite only supports one writer; a single connection avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	return wrap(conn, DriverSQLite)
}

// OpenSQL opens a postgres or mysql database from a DSN and migrates it.
func OpenSQL(driver Driver, dsn string) (*DB, error) {
	d, ok := dialects[driver]
	if !ok || driver == DriverSQLite {
		return nil, fmt.Errorf("unsupported sql driver: %s", driver)
	}
	conn, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return wrap(conn, driver)
}

func wrap(conn *sql.DB, driver Driver) (*DB, error) {
	db := &DB{conn: conn, dialect: dialects[driver]}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Driver reports which SQL dialect the database speaks.
func (db *DB) Driver() Driver {
	return db.dialect.driver
}

func (db *DB) migrate() error {
	for _, m := range db.dialect.migrations() {
		if _, err := db.conn.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %s: %w", firstLine(m), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
