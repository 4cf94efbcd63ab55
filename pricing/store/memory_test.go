package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cpq-engine/pricing"
)

func TestMemory_QuotesAreCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	q := pricing.Quote{ID: "q1", Name: "Acme", CreatedAt: time.Now()}
	q.AddProduct(pricing.Product{ID: "l1", Name: "Line", Price: decimal.NewFromInt(10)})
	require.NoError(t, m.SaveQuote(ctx, q))

	// Mutating the caller's copy does not leak into the store
	q.Products[0].Price = decimal.NewFromInt(99)

	got, err := m.GetQuote(ctx, "q1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(got.Products[0].Price))
}

func TestMemory_NotFoundAndReset(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.GetQuote(ctx, "missing")
	assert.True(t, pricing.IsNotFound(err))
	_, err = m.GetCatalogProduct(ctx, "missing")
	assert.True(t, pricing.IsNotFound(err))
	_, err = m.GetPath(ctx, "missing")
	assert.True(t, pricing.IsNotFound(err))

	require.NoError(t, m.SaveCatalogProduct(ctx, pricing.CatalogProduct{ID: "p"}))
	require.NoError(t, m.SavePath(ctx, pricing.MigrationPath{ID: "path"}))
	require.NoError(t, m.Reset(ctx))

	products, err := m.ListCatalogProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
	paths, err := m.ListPaths(ctx)
	require.NoError(t, err)
	assert.Empty(t, paths)
}
