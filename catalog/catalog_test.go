package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cpq-engine/catalog"
	"github.com/warp/cpq-engine/pricing"
)

const archiveYAML = `
products:
  - id: archive
    name: Archive
    rate_plans:
      - id: archive-cloud
        name: Archive Cloud
        infrastructure: Cloud
        unit_of_measure: Fatture
        charges:
          - id: invoices
            name: Invoices
            type: Recurring
            model: Volume
            pricing:
              - currency: eur
                tiers:
                  - {starting_unit: 0, ending_unit: 30, price: 500}
                  - {starting_unit: 31, ending_unit: null, price: 20}
migration_paths:
  - id: p1
    title: Path one
    products:
      - {id: t1, name: Target, price: 100, customer_price: 90, replaces_product_id: s1}
`

func TestParseYAML(t *testing.T) {
	cat, err := catalog.NewParser().ParseYAML([]byte(archiveYAML))
	require.NoError(t, err)

	p, ok := cat.Product("archive")
	require.True(t, ok)
	rp, ok := p.RatePlan("archive-cloud")
	require.True(t, ok)
	c, ok := rp.Charge("invoices")
	require.True(t, ok)

	assert.Equal(t, pricing.ModelVolume, c.Model)
	require.Len(t, c.Pricing, 1)
	assert.Equal(t, "EUR", c.Pricing[0].Currency)
	require.Len(t, c.Pricing[0].Tiers, 2)
	assert.True(t, c.Pricing[0].Tiers[1].OpenEnded())

	engine := pricing.NewEngine(pricing.DefaultConfig())
	assert.True(t, decimal.NewFromInt(20).Equal(engine.ChargeAmount(c, decimal.NewFromInt(45))))

	require.Len(t, cat.Paths, 1)
	assert.Equal(t, "s1", cat.Paths[0].Products[0].ReplacesProductID)
	assert.True(t, decimal.NewFromInt(90).Equal(cat.Paths[0].TotalValue), "total defaults to customer total")
}

func TestParseJSON_DemoRoundTrip(t *testing.T) {
	cat, err := catalog.NewParser().ParseJSON([]byte(catalog.DemoCatalogJSON()))
	require.NoError(t, err)

	assert.Len(t, cat.Products, 4)
	assert.Len(t, cat.Paths, 2)

	p, ok := cat.Product("energy-billing")
	require.True(t, ok)
	groups := p.RatePlansByInfrastructure()
	assert.Len(t, groups["Cloud"], 1)
	assert.Len(t, groups["On-Premise"], 1)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yml")
	require.NoError(t, os.WriteFile(path, []byte(archiveYAML), 0o644))

	cat, err := catalog.NewParser().LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, cat.Products, 1)

	_, err = catalog.NewParser().LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestFromDocument_Validation(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	charge := func(c catalog.ChargeJSON) catalog.Document {
		return catalog.Document{Products: []catalog.ProductJSON{{
			ID: "p", RatePlans: []catalog.RatePlanJSON{{ID: "rp", Charges: []catalog.ChargeJSON{c}}},
		}}}
	}

	tests := []struct {
		name string
		doc  catalog.Document
	}{
		{"missing product id", catalog.Document{Products: []catalog.ProductJSON{{Name: "x"}}}},
		{"duplicate product id", catalog.Document{Products: []catalog.ProductJSON{{ID: "a"}, {ID: "a"}}}},
		{"unknown charge type", charge(catalog.ChargeJSON{ID: "c", Type: "Weekly", Model: "FlatFee"})},
		{"unknown charge model", charge(catalog.ChargeJSON{ID: "c", Type: "Recurring", Model: "Stairstep"})},
		{"open tier not last", charge(catalog.ChargeJSON{ID: "c", Type: "Recurring", Model: "Volume",
			Pricing: []catalog.PricingJSON{{Currency: "EUR", Tiers: []catalog.TierJSON{
				{StartingUnit: 0, Price: 1}, {StartingUnit: 10, EndingUnit: f(20), Price: 2},
			}}}})},
		{"overlapping tiers", charge(catalog.ChargeJSON{ID: "c", Type: "Recurring", Model: "Volume",
			Pricing: []catalog.PricingJSON{{Currency: "EUR", Tiers: []catalog.TierJSON{
				{StartingUnit: 0, EndingUnit: f(30), Price: 1}, {StartingUnit: 20, Price: 2},
			}}}})},
		{"inverted tier", charge(catalog.ChargeJSON{ID: "c", Type: "Recurring", Model: "Volume",
			Pricing: []catalog.PricingJSON{{Currency: "EUR", Tiers: []catalog.TierJSON{
				{StartingUnit: 10, EndingUnit: f(5), Price: 1},
			}}}})},
		{"path without product id", catalog.Document{MigrationPaths: []catalog.PathJSON{{ID: "p", Products: []catalog.PathProductJSON{{Name: "x"}}}}}},
		{"negative path quantity", catalog.Document{MigrationPaths: []catalog.PathJSON{{ID: "p", Products: []catalog.PathProductJSON{{ID: "x", Quantity: pricing.QuantityOf(-1)}}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.NewParser().FromDocument(tt.doc)
			require.Error(t, err)
			assert.ErrorIs(t, err, pricing.ErrInvalidCatalog)

			var verr *pricing.CatalogValidationError
			assert.ErrorAs(t, err, &verr)
			assert.True(t, pricing.IsClientError(err))
		})
	}
}

func TestDemoCatalog_PricesEveryModel(t *testing.T) {
	cat := catalog.DemoCatalog()
	engine := pricing.NewEngine(pricing.DefaultConfig())

	eb, _ := cat.Product("energy-billing")
	cloud, _ := eb.RatePlan("eb-cloud")
	values := pricing.SeedChargeValues(cloud)
	values["eb-cloud-pdl"] = "118"
	totals := engine.AggregateChargeValues(cloud, values)

	assert.Equal(t, "415.36", totals.Recurring.StringFixed(2))
	assert.Equal(t, "2915.36", totals.Grand.StringFixed(2))

	da, _ := cat.Product("document-archive")
	archive, _ := da.RatePlan("da-cloud")
	archiveTotals := engine.AggregateChargeValues(archive, pricing.ChargeValues{"da-cloud-invoices": "45"})
	assert.Equal(t, "1900.00", archiveTotals.Recurring.StringFixed(2))
}
