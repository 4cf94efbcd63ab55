package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cpq-engine/pricing"
)

// =============================================================================
// PRODUCT-LIST TOTALS
// =============================================================================

func TestSummarizeProducts_Empty(t *testing.T) {
	s := pricing.SummarizeProducts(nil)

	assertDecimal(t, "0", s.ListTotal)
	assertDecimal(t, "0", s.CustomerTotal)
	assertDecimal(t, "0", s.DiscountPercent)
}

func TestSummarizeProducts_Scenario(t *testing.T) {
	products := []pricing.Product{
		{ID: "a", Price: dec("1000"), Quantity: pricing.QuantityOf(1)},
		{ID: "b", Price: dec("500"), CustomerPrice: nd("400"), Quantity: pricing.QuantityOf(1)},
	}

	s := pricing.SummarizeProducts(products)

	assertDecimal(t, "1500", s.ListTotal)
	assertDecimal(t, "1400", s.CustomerTotal)
	assertDecimal(t, "6.67", s.DiscountPercent)
}

func TestSummarizeProducts_QuantityDefaultsToOne(t *testing.T) {
	products := []pricing.Product{
		{ID: "a", Price: dec("100")},
		{ID: "b", Price: dec("50"), CustomerPrice: nd("40"), Quantity: pricing.QuantityOf(3)},
	}

	s := pricing.SummarizeProducts(products)

	assertDecimal(t, "250", s.ListTotal)
	assertDecimal(t, "220", s.CustomerTotal)
}

func TestSummarizeProducts_ExplicitZeroQuantity(t *testing.T) {
	// GIVEN: A line whose quantity was set to 0, next to one without quantity
	products := []pricing.Product{
		{ID: "a", Price: dec("100"), Quantity: pricing.QuantityOf(0)},
		{ID: "b", Price: dec("50")},
	}

	// WHEN: Folding
	s := pricing.SummarizeProducts(products)

	// THEN: The zero line contributes nothing
	assertDecimal(t, "50", s.ListTotal)
	assertDecimal(t, "50", s.CustomerTotal)
}

func TestValidateQuantity(t *testing.T) {
	assert.NoError(t, pricing.ValidateQuantity(nil))
	assert.NoError(t, pricing.ValidateQuantity(pricing.QuantityOf(0)))
	assert.ErrorIs(t, pricing.ValidateQuantity(pricing.QuantityOf(-2)), pricing.ErrInvalidQuantity)
}

func TestSummarizeProducts_NoDiscountWhenCustomerAboveList(t *testing.T) {
	products := []pricing.Product{{ID: "a", Price: dec("100"), CustomerPrice: nd("120")}}

	s := pricing.SummarizeProducts(products)

	assertDecimal(t, "120", s.CustomerTotal)
	assertDecimal(t, "0", s.DiscountPercent)
}

func TestSummarizeProducts_NegativeDiscountLine(t *testing.T) {
	products := []pricing.Product{
		{ID: "a", Price: dec("1000")},
		{ID: "discount", Price: dec("0"), CustomerPrice: nd("-100")},
	}

	s := pricing.SummarizeProducts(products)

	assertDecimal(t, "1000", s.ListTotal)
	assertDecimal(t, "900", s.CustomerTotal)
	assertDecimal(t, "10", s.DiscountPercent)
}

func TestQuote_AddRemoveProduct(t *testing.T) {
	q := pricing.Quote{ID: "q1"}
	q.AddProduct(pricing.Product{ID: "l1", Price: dec("10")})
	q.AddProduct(pricing.Product{ID: "l2", Price: dec("20")})
	q.AddProduct(pricing.Product{ID: "l3", Price: dec("30")})

	require.NoError(t, q.RemoveProduct("l2"))
	assert.Equal(t, []string{"l1", "l3"}, []string{q.Products[0].ID, q.Products[1].ID})
	assertDecimal(t, "40", q.Summary().ListTotal)

	err := q.RemoveProduct("missing")
	assert.ErrorIs(t, err, pricing.ErrProductNotFound)
	assert.True(t, pricing.IsNotFound(err))
}

// =============================================================================
// MIGRATION PATH COMPARATOR
// =============================================================================

func TestCompareMigration_Scenario(t *testing.T) {
	source := []pricing.Product{{ID: "legacy", Price: dec("16000"), CustomerPrice: nd("15760.40")}}
	target := []pricing.Product{{ID: "cloud", Price: dec("17000"), CustomerPrice: nd("16642.28"), ReplacesProductID: "legacy"}}

	cmp := pricing.CompareMigration(source, target, nil)

	assertDecimal(t, "15760.40", cmp.Current.CustomerTotal)
	assertDecimal(t, "16642.28", cmp.Target.CustomerTotal)
	assert.Equal(t, "+5.6%", cmp.PercentChangeLabel)
	assert.Equal(t, map[string]string{"legacy": "cloud"}, cmp.Replacements)
}

func TestCompareMigration_NoCurrentSpend(t *testing.T) {
	cmp := pricing.CompareMigration(nil, []pricing.Product{{ID: "t", Price: dec("10")}}, nil)

	assert.Equal(t, "+100%", cmp.PercentChangeLabel)
}

func TestCompareMigration_Decrease(t *testing.T) {
	source := []pricing.Product{{ID: "s", Price: dec("1000")}}
	target := []pricing.Product{{ID: "t", Price: dec("968")}}

	cmp := pricing.CompareMigration(source, target, nil)

	assert.Equal(t, "-3.2%", cmp.PercentChangeLabel)
}

func TestCompareMigration_ReplacedAndExcludedStillCount(t *testing.T) {
	source := []pricing.Product{
		{ID: "s1", Price: dec("100")},
		{ID: "s2", Price: dec("200")},
		{ID: "s3", Price: dec("300")},
	}
	target := []pricing.Product{{ID: "t1", Price: dec("150"), ReplacesProductID: "s1"}}

	cmp := pricing.CompareMigration(source, target, map[string]bool{"s3": true, "other": true})

	assertDecimal(t, "600", cmp.Current.ListTotal, "no proration for replaced or non-migratable")
	assert.Equal(t, []string{"s3"}, cmp.NonMigratable)
	assert.Equal(t, "t1", cmp.Replacements["s1"])
}

func TestFormatSignedPercent(t *testing.T) {
	assert.Equal(t, "+0.0%", pricing.FormatSignedPercent(dec("0")))
	assert.Equal(t, "+0.0%", pricing.FormatSignedPercent(dec("-0.04")))
	assert.Equal(t, "+12.3%", pricing.FormatSignedPercent(dec("12.345")))
	assert.Equal(t, "-7.5%", pricing.FormatSignedPercent(dec("-7.46")))
}
