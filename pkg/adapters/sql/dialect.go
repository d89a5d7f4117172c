package sql

import (
	"fmt"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect captures the SQL differences between the supported drivers.
type Dialect struct {
	// Driver is the database/sql driver name.
	Driver string
	// Schema creates the pages table when it does not exist.
	Schema string
	// Upsert inserts a page or replaces its body, bumping the version.
	Upsert string
	// numbered placeholders ($1) instead of "?".
	numbered bool
}

var (
	SQLite = Dialect{
		Driver: "sqlite",
		Schema: `CREATE TABLE IF NOT EXISTS tessera_pages (
			ref TEXT PRIMARY KEY,
			body TEXT NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		Upsert: `INSERT INTO tessera_pages (ref, body, version, updated_at) VALUES (?, ?, 1, CURRENT_TIMESTAMP)
			ON CONFLICT(ref) DO UPDATE SET body = excluded.body, version = tessera_pages.version + 1, updated_at = CURRENT_TIMESTAMP`,
	}

	Postgres = Dialect{
		Driver: "postgres",
		Schema: `CREATE TABLE IF NOT EXISTS tessera_pages (
			ref TEXT PRIMARY KEY,
			body TEXT NOT NULL,
			version BIGINT NOT NULL DEFAULT 1,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		Upsert: `INSERT INTO tessera_pages (ref, body, version, updated_at) VALUES (?, ?, 1, NOW())
			ON CONFLICT (ref) DO UPDATE SET body = EXCLUDED.body, version = tessera_pages.version + 1, updated_at = NOW()`,
		numbered: true,
	}

	MySQL = Dialect{
		Driver: "mysql",
		Schema: `CREATE TABLE IF NOT EXISTS tessera_pages (
			ref VARCHAR(255) PRIMARY KEY,
			body LONGTEXT NOT NULL,
			version BIGINT NOT NULL DEFAULT 1,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		Upsert: `INSERT INTO tessera_pages (ref, body, version, updated_at) VALUES (?, ?, 1, CURRENT_TIMESTAMP)
			ON DUPLICATE KEY UPDATE body = VALUES(body), version = version + 1, updated_at = CURRENT_TIMESTAMP`,
	}
)

// DialectFor returns the dialect registered under a driver name.
// "sqlite3" and "postgresql" are accepted as aliases.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	}
	return Dialect{}, fmt.Errorf("unsupported sql driver %q", driver)
}

// rebind rewrites "?" placeholders for drivers that number them.
func (d Dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
