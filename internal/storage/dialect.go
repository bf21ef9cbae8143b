package storage

import (
	"strconv"
	"strings"
)

// Driver selects the storage backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
	DriverMongo    Driver = "mongo"
)

// dialect captures the SQL differences between the supported engines. Queries
// are written with ? placeholders and rebound per dialect.
type dialect struct {
	driver     Driver
	driverName string
	numbered   bool   // $1, $2 placeholders instead of ?
	lockSuffix string // row lock for read-modify-write inside a transaction
	upsert     string
	textType   string
}

var dialects = map[Driver]dialect{
	DriverSQLite: {
		driver:     DriverSQLite,
		driverName: "sqlite",
		upsert: `INSERT INTO site_configs (restaurant_id, slug, slug_lower, doc, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(restaurant_id) DO UPDATE SET
		   slug = excluded.slug, slug_lower = excluded.slug_lower,
		   doc = excluded.doc, updated_at = excluded.updated_at`,
		textType: "TEXT",
	},
	DriverPostgres: {
		driver:     DriverPostgres,
		driverName: "postgres",
		numbered:   true,
		lockSuffix: " FOR UPDATE",
		upsert: `INSERT INTO site_configs (restaurant_id, slug, slug_lower, doc, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (restaurant_id) DO UPDATE SET
		   slug = EXCLUDED.slug, slug_lower = EXCLUDED.slug_lower,
		   doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at`,
		textType: "TEXT",
	},
	DriverMySQL: {
		driver:     DriverMySQL,
		driverName: "mysql",
		lockSuffix: " FOR UPDATE",
		upsert: `INSERT INTO site_configs (restaurant_id, slug, slug_lower, doc, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE
		   slug = VALUES(slug), slug_lower = VALUES(slug_lower),
		   doc = VALUES(doc), updated_at = VALUES(updated_at)`,
		textType: "LONGTEXT",
	},
}

func (d dialect) migrations() []string {
	m := []string{
		`CREATE TABLE IF NOT EXISTS site_configs (
			restaurant_id VARCHAR(64) PRIMARY KEY,
			slug VARCHAR(64),
			slug_lower VARCHAR(64) UNIQUE,
			doc ` + d.textType + ` NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}
	if d.driver == DriverSQLite {
		// The edit journal only lives in the local SQLite file.
		m = append(m,
			`CREATE TABLE IF NOT EXISTS undo_nodes (
			id TEXT PRIMARY KEY,
			restaurant_id TEXT NOT NULL,
			parent_id TEXT,
			label TEXT NOT NULL,
			snapshot_json TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
			`CREATE INDEX IF NOT EXISTS idx_undo_nodes_restaurant ON undo_nodes(restaurant_id)`,
			`CREATE TABLE IF NOT EXISTS undo_state (
			restaurant_id TEXT PRIMARY KEY,
			current_node_id TEXT NOT NULL REFERENCES undo_nodes(id)
		)`,
		)
	}
	return m
}

// rebind rewrites ? placeholders for dialects that number them.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
