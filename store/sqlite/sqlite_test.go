package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cpq-engine/catalog"
	"github.com/warp/cpq-engine/pricing"
	"github.com/warp/cpq-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_CatalogRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	// GIVEN: The demo catalog installed in SQLite
	require.NoError(t, catalog.DemoCatalog().Install(ctx, s, s))

	// WHEN: Reading a tiered product back
	p, err := s.GetCatalogProduct(ctx, "document-archive")
	require.NoError(t, err)

	// THEN: Tiers survive, including the open-ended last one
	rp, ok := p.RatePlan("da-cloud")
	require.True(t, ok)
	c, ok := rp.Charge("da-cloud-invoices")
	require.True(t, ok)
	tiers := c.Pricing[0].Tiers
	require.Len(t, tiers, 3)
	assert.True(t, tiers[2].OpenEnded())
	assert.False(t, tiers[1].OpenEnded())

	// AND: The engine prices the stored copy like the original
	engine := pricing.NewEngine(pricing.DefaultConfig())
	got := engine.ChargeAmount(c, decimal.NewFromInt(45))
	assert.True(t, decimal.NewFromInt(1900).Equal(got), got.String())

	all, err := s.ListCatalogProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "discount-line", all[0].ID)
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.GetCatalogProduct(ctx, "x")
	assert.ErrorIs(t, err, pricing.ErrCatalogProductNotFound)

	_, err = s.GetPath(ctx, "x")
	assert.ErrorIs(t, err, pricing.ErrPathNotFound)

	_, err = s.GetQuote(ctx, "x")
	assert.ErrorIs(t, err, pricing.ErrQuoteNotFound)
}

func TestStore_QuoteUpsertAndOrdering(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	second := pricing.Quote{ID: "q-b", Name: "Second", CreatedAt: base.Add(time.Hour), UpdatedAt: base.Add(time.Hour)}
	first := pricing.Quote{ID: "q-a", Name: "First", Customer: "Acme", CreatedAt: base, UpdatedAt: base}
	require.NoError(t, s.SaveQuote(ctx, second))
	require.NoError(t, s.SaveQuote(ctx, first))

	// Replace line items of the first quote
	first.Products = []pricing.Product{{
		ID:            "line-1",
		Name:          "Support",
		Price:         decimal.RequireFromString("1200"),
		CustomerPrice: decimal.NewNullDecimal(decimal.RequireFromString("999.99")),
	}}
	first.UpdatedAt = base.Add(2 * time.Hour)
	require.NoError(t, s.SaveQuote(ctx, first))

	got, err := s.GetQuote(ctx, "q-a")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Customer)
	assert.True(t, base.Equal(got.CreatedAt))
	assert.True(t, first.UpdatedAt.Equal(got.UpdatedAt))
	require.Len(t, got.Products, 1)
	require.True(t, got.Products[0].CustomerPrice.Valid)
	assert.Equal(t, "999.99", got.Products[0].CustomerPrice.Decimal.String())

	list, err := s.ListQuotes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "q-a", list[0].ID)
	assert.Equal(t, "q-b", list[1].ID)
	assert.Empty(t, list[1].Products)
}

func TestStore_ListQuotes_SubSecondOrdering(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	base := time.Date(2026, 3, 1, 9, 0, 5, 0, time.UTC)

	// GIVEN: Two quotes in the same second, the earlier one on a whole second
	later := pricing.Quote{ID: "q-a", Name: "Later", CreatedAt: base.Add(500 * time.Millisecond), UpdatedAt: base}
	earlier := pricing.Quote{ID: "q-b", Name: "Earlier", CreatedAt: base, UpdatedAt: base}
	require.NoError(t, s.SaveQuote(ctx, later))
	require.NoError(t, s.SaveQuote(ctx, earlier))

	// WHEN: Listing
	list, err := s.ListQuotes(ctx)
	require.NoError(t, err)

	// THEN: Creation time wins over id
	require.Len(t, list, 2)
	assert.Equal(t, "q-b", list[0].ID)
	assert.Equal(t, "q-a", list[1].ID)
	assert.True(t, base.Add(500*time.Millisecond).Equal(list[1].CreatedAt))
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, catalog.DemoCatalog().Install(ctx, s, s))
	require.NoError(t, s.SaveQuote(ctx, pricing.Quote{ID: "q", Name: "q", CreatedAt: time.Now()}))

	require.NoError(t, s.Reset(ctx))

	products, err := s.ListCatalogProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
	paths, err := s.ListPaths(ctx)
	require.NoError(t, err)
	assert.Empty(t, paths)
	quotes, err := s.ListQuotes(ctx)
	require.NoError(t, err)
	assert.Empty(t, quotes)
}
