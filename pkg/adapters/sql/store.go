package sql

import (
	"context"
	stdsql "database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/tessera/pkg/domain"
)

// Store implements ports.SchemaStore on a relational database.
// Each page is one row holding the schema JSON and a version counter.
type Store struct {
	db      *stdsql.DB
	dialect Dialect
	owned   bool
}

// Open connects with the named driver, applies the table migration and returns a store.
// For sqlite, dsn is a file path and the pool is limited to one writer.
func Open(driver, dsn string) (*Store, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	if dialect.Driver == SQLite.Driver {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := stdsql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect.Driver, err)
	}
	if dialect.Driver == SQLite.Driver {
		db.SetMaxOpenConns(1)
	}

	store, err := NewFromDB(context.Background(), db, dialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	store.owned = true
	return store, nil
}

// NewFromDB wraps an existing connection pool and runs the migration.
// The caller keeps ownership of db.
func NewFromDB(ctx context.Context, db *stdsql.DB, dialect Dialect) (*Store, error) {
	if _, err := db.ExecContext(ctx, dialect.Schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, dialect: dialect}, nil
}

// Save upserts the page row.
func (s *Store) Save(ctx context.Context, pageRef string, schema domain.Schema) error {
	data, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.rebind(s.dialect.Upsert), pageRef, string(data)); err != nil {
		return fmt.Errorf("save page %s: %w", pageRef, err)
	}
	return nil
}

// Load reads the page row.
func (s *Store) Load(ctx context.Context, pageRef string) (domain.Schema, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		s.dialect.rebind(`SELECT body FROM tessera_pages WHERE ref = ?`), pageRef,
	).Scan(&body)
	if err != nil {
		if errors.Is(err, stdsql.ErrNoRows) {
			return domain.Schema{}, domain.ErrPageNotFound
		}
		return domain.Schema{}, fmt.Errorf("load page %s: %w", pageRef, err)
	}

	var schema domain.Schema
	if err := json.Unmarshal([]byte(body), &schema); err != nil {
		return domain.Schema{}, fmt.Errorf("failed to unmarshal schema: %w", err)
	}
	if schema.Kind == "" {
		schema.Kind = domain.KindPage
	}
	return schema, nil
}

// Version returns how many times the page has been saved.
func (s *Store) Version(ctx context.Context, pageRef string) (int64, error) {
	var version int64
	err := s.db.QueryRowContext(ctx,
		s.dialect.rebind(`SELECT version FROM tessera_pages WHERE ref = ?`), pageRef,
	).Scan(&version)
	if errors.Is(err, stdsql.ErrNoRows) {
		return 0, domain.ErrPageNotFound
	}
	return version, err
}

// Delete removes the page row. Missing pages are not an error.
func (s *Store) Delete(ctx context.Context, pageRef string) error {
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(`DELETE FROM tessera_pages WHERE ref = ?`), pageRef)
	if err != nil {
		return fmt.Errorf("delete page %s: %w", pageRef, err)
	}
	return nil
}

// List returns every page reference in ascending order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ref FROM tessera_pages ORDER BY ref`)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("scan page ref: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// Close releases the pool when the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
