// Package store provides pricing.Store implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/cpq-engine/pricing"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	catalog map[string]pricing.CatalogProduct
	paths   map[string]pricing.MigrationPath
	quotes  map[string]pricing.Quote
}

var _ pricing.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		catalog: make(map[string]pricing.CatalogProduct),
		paths:   make(map[string]pricing.MigrationPath),
		quotes:  make(map[string]pricing.Quote),
	}
}

func (m *Memory) SaveCatalogProduct(_ context.Context, p pricing.CatalogProduct) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog[p.ID] = p
	return nil
}

func (m *Memory) GetCatalogProduct(_ context.Context, id string) (pricing.CatalogProduct, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.catalog[id]
	if !ok {
		return pricing.CatalogProduct{}, fmt.Errorf("catalog product %s: %w", id, pricing.ErrCatalogProductNotFound)
	}
	return p, nil
}

func (m *Memory) ListCatalogProducts(_ context.Context) ([]pricing.CatalogProduct, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]pricing.CatalogProduct, 0, len(m.catalog))
	for _, p := range m.catalog {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) SavePath(_ context.Context, p pricing.MigrationPath) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.Products = pricing.CloneProducts(p.Products)
	m.paths[p.ID] = p
	return nil
}

// GetPath returns a copy; callers may mutate the products freely.
func (m *Memory) GetPath(_ context.Context, id string) (pricing.MigrationPath, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.paths[id]
	if !ok {
		return pricing.MigrationPath{}, fmt.Errorf("path %s: %w", id, pricing.ErrPathNotFound)
	}
	p.Products = pricing.CloneProducts(p.Products)
	return p, nil
}

func (m *Memory) ListPaths(_ context.Context) ([]pricing.MigrationPath, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]pricing.MigrationPath, 0, len(m.paths))
	for _, p := range m.paths {
		p.Products = pricing.CloneProducts(p.Products)
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) SaveQuote(_ context.Context, q pricing.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q.Products = pricing.CloneProducts(q.Products)
	m.quotes[q.ID] = q
	return nil
}

func (m *Memory) GetQuote(_ context.Context, id string) (pricing.Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quotes[id]
	if !ok {
		return pricing.Quote{}, fmt.Errorf("quote %s: %w", id, pricing.ErrQuoteNotFound)
	}
	q.Products = pricing.CloneProducts(q.Products)
	return q, nil
}

func (m *Memory) ListQuotes(_ context.Context) ([]pricing.Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]pricing.Quote, 0, len(m.quotes))
	for _, q := range m.quotes {
		q.Products = pricing.CloneProducts(q.Products)
		result = append(result, q)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog = make(map[string]pricing.CatalogProduct)
	m.paths = make(map[string]pricing.MigrationPath)
	m.quotes = make(map[string]pricing.Quote)
	return nil
}
