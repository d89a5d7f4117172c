// Package sql provides a SchemaStore over database/sql.
//
// SQLite (modernc.org/sqlite), PostgreSQL (lib/pq) and MySQL
// (go-sql-driver/mysql) are supported through a Dialect.
package sql
