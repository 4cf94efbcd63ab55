/*
store.go - Persistence interfaces consumed by the quote service

PURPOSE:
  The engine performs no I/O. These interfaces describe the collaborators
  that supply catalog trees and persist priced quotes, so the quote service
  can run against SQLite in production and memory in tests.

KEY INTERFACES:
  CatalogStore: Catalog products with their rate plans and charges
  PathStore:    Migration path catalogs
  QuoteStore:   Quotes with their configured line items

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - pricing/store/memory.go: In-memory for testing

SEE ALSO:
  - quote/service.go: Uses these interfaces
*/
package pricing

import (
	"context"
	"fmt"
	"time"
)

// CatalogStore persists catalog products.
type CatalogStore interface {
	SaveCatalogProduct(ctx context.Context, p CatalogProduct) error

	// GetCatalogProduct returns ErrCatalogProductNotFound when missing.
	GetCatalogProduct(ctx context.Context, id string) (CatalogProduct, error)

	// ListCatalogProducts returns products ordered by id.
	ListCatalogProducts(ctx context.Context) ([]CatalogProduct, error)
}

// PathStore persists migration path catalogs.
type PathStore interface {
	SavePath(ctx context.Context, p MigrationPath) error

	// GetPath returns ErrPathNotFound when missing.
	GetPath(ctx context.Context, id string) (MigrationPath, error)
	ListPaths(ctx context.Context) ([]MigrationPath, error)
}

// Quote is an ordered sequence of configured line items.
type Quote struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Customer  string    `json:"customer,omitempty"`
	Products  []Product `json:"products"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QuoteStore persists quotes. Saving an existing id replaces it.
type QuoteStore interface {
	SaveQuote(ctx context.Context, q Quote) error

	// GetQuote returns ErrQuoteNotFound when missing.
	GetQuote(ctx context.Context, id string) (Quote, error)

	// ListQuotes returns quotes ordered by creation time.
	ListQuotes(ctx context.Context) ([]Quote, error)
}

// Store is everything the quote service needs.
type Store interface {
	CatalogStore
	PathStore
	QuoteStore

	// Reset removes all data. Demo scenarios only.
	Reset(ctx context.Context) error
}

// AddProduct appends a configured line item. Line ids must be unique within
// the quote.
func (q *Quote) AddProduct(p Product) {
	q.Products = append(q.Products, p)
}

// RemoveProduct removes the line item with the given id.
func (q *Quote) RemoveProduct(id string) error {
	for i, p := range q.Products {
		if p.ID == id {
			q.Products = append(q.Products[:i:i], q.Products[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("quote %s line %s: %w", q.ID, id, ErrProductNotFound)
}

// Summary folds the quote's line items.
func (q Quote) Summary() Summary {
	return SummarizeProducts(q.Products)
}
