/*
Package sqlite provides a SQLite-backed implementation of pricing.Store.

PURPOSE:
  Persists the catalog, the migration path catalog and quotes so a server
  restart keeps saved work. The pricing engine never touches the database;
  the quote service reads and writes through the pricing.Store interface.

INTERFACES IMPLEMENTED:
  pricing.CatalogStore: Catalog products with their rate plans
  pricing.PathStore:    Migration paths with their target products
  pricing.QuoteStore:   Quotes with their line items

STORAGE FORMAT:
  Each aggregate is one row. Nested trees (rate plans, charges, line items)
  are stored as JSON in a *_json column; decimals serialize as strings so
  no precision is lost. Scalar columns exist for listing and ordering.

KEY TABLES:
  catalog_products: One row per catalog product
  migration_paths:  One row per migration path
  quotes:           One row per quote, line items in products_json

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, on top of SQLite's own locking.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/cpq.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := quote.NewService(engine, store, logger)

SEE ALSO:
  - pricing/store.go: Interface definitions
  - pricing/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/cpq-engine/pricing"
)

// Store implements pricing.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ pricing.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to ":memory:" is its own database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS catalog_products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT,
		product_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS migration_paths (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		path_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS quotes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		customer TEXT,
		products_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_quotes_created_at
		ON quotes(created_at, id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CATALOG
// =============================================================================

func (s *Store) SaveCatalogProduct(ctx context.Context, p pricing.CatalogProduct) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	productJSON, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode catalog product %s: %w", p.ID, err)
	}

	query := `
		INSERT INTO catalog_products (id, name, category, product_json, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			product_json = excluded.product_json,
			updated_at = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, query, p.ID, p.Name, p.Category, string(productJSON), nowString())
	return err
}

func (s *Store) GetCatalogProduct(ctx context.Context, id string) (pricing.CatalogProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT product_json FROM catalog_products WHERE id = ?", id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return pricing.CatalogProduct{}, fmt.Errorf("catalog product %s: %w", id, pricing.ErrCatalogProductNotFound)
	}
	if err != nil {
		return pricing.CatalogProduct{}, err
	}

	var p pricing.CatalogProduct
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return pricing.CatalogProduct{}, fmt.Errorf("decode catalog product %s: %w", id, err)
	}
	return p, nil
}

func (s *Store) ListCatalogProducts(ctx context.Context) ([]pricing.CatalogProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT product_json FROM catalog_products ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []pricing.CatalogProduct{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var p pricing.CatalogProduct
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("decode catalog product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// =============================================================================
// MIGRATION PATHS
// =============================================================================

func (s *Store) SavePath(ctx context.Context, p pricing.MigrationPath) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pathJSON, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode migration path %s: %w", p.ID, err)
	}

	query := `
		INSERT INTO migration_paths (id, title, path_json, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			path_json = excluded.path_json,
			updated_at = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, query, p.ID, p.Title, string(pathJSON), nowString())
	return err
}

func (s *Store) GetPath(ctx context.Context, id string) (pricing.MigrationPath, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT path_json FROM migration_paths WHERE id = ?", id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return pricing.MigrationPath{}, fmt.Errorf("migration path %s: %w", id, pricing.ErrPathNotFound)
	}
	if err != nil {
		return pricing.MigrationPath{}, err
	}

	var p pricing.MigrationPath
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return pricing.MigrationPath{}, fmt.Errorf("decode migration path %s: %w", id, err)
	}
	return p, nil
}

func (s *Store) ListPaths(ctx context.Context) ([]pricing.MigrationPath, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT path_json FROM migration_paths ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	paths := []pricing.MigrationPath{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var p pricing.MigrationPath
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("decode migration path: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// =============================================================================
// QUOTES
// =============================================================================

func (s *Store) SaveQuote(ctx context.Context, q pricing.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := q.Products
	if products == nil {
		products = []pricing.Product{}
	}
	productsJSON, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("encode quote %s: %w", q.ID, err)
	}

	query := `
		INSERT INTO quotes (id, name, customer, products_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			customer = excluded.customer,
			products_json = excluded.products_json,
			updated_at = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		q.ID, q.Name, q.Customer, string(productsJSON),
		formatTime(q.CreatedAt), formatTime(q.UpdatedAt),
	)
	return err
}

func (s *Store) GetQuote(ctx context.Context, id string) (pricing.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, customer, products_json, created_at, updated_at FROM quotes WHERE id = ?", id,
	)
	q, err := scanQuote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pricing.Quote{}, fmt.Errorf("quote %s: %w", id, pricing.ErrQuoteNotFound)
	}
	return q, err
}

func (s *Store) ListQuotes(ctx context.Context) ([]pricing.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, customer, products_json, created_at, updated_at FROM quotes ORDER BY created_at, id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quotes := []pricing.Quote{}
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanQuote(row scanner) (pricing.Quote, error) {
	var q pricing.Quote
	var customer sql.NullString
	var productsJSON, createdAt, updatedAt string

	if err := row.Scan(&q.ID, &q.Name, &customer, &productsJSON, &createdAt, &updatedAt); err != nil {
		return pricing.Quote{}, err
	}
	if err := json.Unmarshal([]byte(productsJSON), &q.Products); err != nil {
		return pricing.Quote{}, fmt.Errorf("decode quote %s: %w", q.ID, err)
	}

	q.Customer = customer.String
	var err error
	if q.CreatedAt, err = parseTime(createdAt); err != nil {
		return pricing.Quote{}, fmt.Errorf("decode quote %s created_at: %w", q.ID, err)
	}
	if q.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return pricing.Quote{}, fmt.Errorf("decode quote %s updated_at: %w", q.ID, err)
	}
	return q, nil
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset removes all data. Used by the demo scenario loader.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"quotes", "migration_paths", "catalog_products"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func nowString() string {
	return formatTime(time.Now())
}

// timeLayout keeps all nine fractional digits so stored timestamps sort
// correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime also reads rows written with trimmed fractions.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
