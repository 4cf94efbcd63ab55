/*
Package pricing provides the pricing resolution engine.

PURPOSE:
  Turns a selected rate plan, its charges and user-entered quantities into
  concrete monetary amounts. The same engine prices a single product in the
  configuration drawer, sums a quote, and compares a customer's current
  products against a migration path.

KEY CONCEPTS IN THIS FILE (types.go):
  - Charge:   A billable line governed by a pricing model
  - Pricing:  Per-currency price or tier table of a charge
  - Tier:     Quantity range with a flat price (Volume model)
  - RatePlan: Priced configuration of a catalog product
  - Product:  A quote line item (list price + optional customer price)

DESIGN PRINCIPLES:
  1. Purity: Every engine function is deterministic and performs no I/O
  2. Precision: Uses decimal.Decimal for money and quantities
  3. Leniency: Malformed input degrades to zero, it never fails
  4. Immutability: Catalog data is never mutated, results are new values

USAGE:
  engine := pricing.NewEngine(pricing.DefaultConfig())
  values := pricing.SeedChargeValues(ratePlan)
  values["chg-pdl"] = "118"
  totals := engine.AggregateChargeValues(ratePlan, values)

SEE ALSO:
  - charge.go: Charge Pricing Resolver
  - rateplan.go: Rate Plan Aggregator
  - summary.go: Product-list totals
  - migration.go: Migration Path Comparator
*/
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CHARGE CLASSIFICATION
// =============================================================================

// ChargeType decides which total a charge contributes to.
type ChargeType string

const (
	ChargeRecurring ChargeType = "Recurring"
	ChargeOneTime   ChargeType = "OneTime"
	ChargeUsage     ChargeType = "Usage"
)

// ChargeModel decides how a charge turns a quantity into an amount.
type ChargeModel string

const (
	ModelFlatFee ChargeModel = "FlatFee"
	ModelPerUnit ChargeModel = "PerUnit"
	ModelVolume  ChargeModel = "Volume"
	ModelUsage   ChargeModel = "Usage"
)

// Valid reports whether t is a known charge type.
func (t ChargeType) Valid() bool {
	switch t {
	case ChargeRecurring, ChargeOneTime, ChargeUsage:
		return true
	}
	return false
}

// Valid reports whether m is a known charge model.
func (m ChargeModel) Valid() bool {
	switch m {
	case ModelFlatFee, ModelPerUnit, ModelVolume, ModelUsage:
		return true
	}
	return false
}

// =============================================================================
// CATALOG DATA - Immutable, supplied by the catalog provider
// =============================================================================

// Tier is a quantity range with a flat price.
// An invalid EndingUnit denotes the open-ended final tier.
type Tier struct {
	StartingUnit decimal.Decimal     `json:"starting_unit"`
	EndingUnit   decimal.NullDecimal `json:"ending_unit"`
	Price        decimal.Decimal     `json:"price"`
}

// OpenEnded reports whether the tier has no upper bound.
func (t Tier) OpenEnded() bool { return !t.EndingUnit.Valid }

// Contains reports whether quantity falls within the tier bounds (inclusive).
func (t Tier) Contains(quantity decimal.Decimal) bool {
	if quantity.LessThan(t.StartingUnit) {
		return false
	}
	return t.OpenEnded() || quantity.LessThanOrEqual(t.EndingUnit.Decimal)
}

// Pricing is the price of a charge in one currency.
type Pricing struct {
	Currency string              `json:"currency"`
	Price    decimal.NullDecimal `json:"price"`
	Tiers    []Tier              `json:"tiers,omitempty"`
}

// Charge is one priced component of a rate plan. It is never modified by
// the engine.
type Charge struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Type    ChargeType  `json:"type"`
	Model   ChargeModel `json:"model"`
	UOM     string      `json:"uom,omitempty"`
	Pricing []Pricing   `json:"pricing"`
}

// RatePlan is a priced configuration of a catalog product.
type RatePlan struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Infrastructure string   `json:"infrastructure,omitempty"` // deployment tag
	UnitOfMeasure  string   `json:"unit_of_measure,omitempty"`
	SalesModel     string   `json:"sales_model,omitempty"` // free-text catalog field
	Charges        []Charge `json:"charges"`
}

// Charge returns the charge with the given id.
func (rp RatePlan) Charge(id string) (Charge, bool) {
	for _, c := range rp.Charges {
		if c.ID == id {
			return c, true
		}
	}
	return Charge{}, false
}

// CatalogProduct is a sellable catalog entry exposing one or more rate plans.
type CatalogProduct struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`

	// AllowNegativePrice marks "discount line item" products whose customer
	// price may be negative.
	AllowNegativePrice bool       `json:"allow_negative_price,omitempty"`
	RatePlans          []RatePlan `json:"rate_plans"`
}

// RatePlan returns the rate plan with the given id.
func (p CatalogProduct) RatePlan(id string) (RatePlan, bool) {
	for _, rp := range p.RatePlans {
		if rp.ID == id {
			return rp, true
		}
	}
	return RatePlan{}, false
}

// RatePlansByInfrastructure groups rate plans by deployment tag, preserving
// catalog order inside each group.
func (p CatalogProduct) RatePlansByInfrastructure() map[string][]RatePlan {
	groups := make(map[string][]RatePlan)
	for _, rp := range p.RatePlans {
		groups[rp.Infrastructure] = append(groups[rp.Infrastructure], rp)
	}
	return groups
}

// =============================================================================
// QUOTE LINE ITEMS
// =============================================================================

// ChargeLine is the derived price of one charge. The source charge is copied,
// never modified.
type ChargeLine struct {
	Charge          Charge          `json:"charge"`
	EnteredValue    string          `json:"entered_value,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	CalculatedPrice decimal.Decimal `json:"calculated_price"`

	// Informational lines (Usage) are shown but never summed.
	Informational bool `json:"informational,omitempty"`
}

// Product is the unit a quote line item is built from.
type Product struct {
	ID                string              `json:"id"`
	CatalogID         string              `json:"catalog_id,omitempty"`
	Name              string              `json:"name"`
	Category          string              `json:"category,omitempty"`
	Price             decimal.Decimal     `json:"price"`
	CustomerPrice     decimal.NullDecimal `json:"customer_price"`
	Quantity          *int                `json:"quantity,omitempty"` // nil counts as 1
	RatePlan          *RatePlan           `json:"rate_plan,omitempty"`
	Charges           []ChargeLine        `json:"charges,omitempty"`
	ReplacesProductID string              `json:"replaces_product_id,omitempty"`
}

// EffectiveQuantity returns the line quantity. An absent quantity counts as
// 1; an explicit 0 counts as 0.
func (p Product) EffectiveQuantity() decimal.Decimal {
	if p.Quantity == nil {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(int64(*p.Quantity))
}

// QuantityOf returns a line quantity for Product.Quantity.
func QuantityOf(n int) *int { return &n }

// ValidateQuantity rejects negative line quantities. nil is valid.
func ValidateQuantity(q *int) error {
	if q != nil && *q < 0 {
		return fmt.Errorf("quantity %d: %w", *q, ErrInvalidQuantity)
	}
	return nil
}

// EffectiveCustomerPrice returns the customer price, or the list price when
// no override is set.
func (p Product) EffectiveCustomerPrice() decimal.Decimal {
	if p.CustomerPrice.Valid {
		return p.CustomerPrice.Decimal
	}
	return p.Price
}

// MigrationPath is a named bundle of target products proposed to replace
// some or all of a customer's current products.
type MigrationPath struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	TotalValue decimal.Decimal `json:"total_value"`
	Products   []Product       `json:"products"`
}

// CloneProducts deep-copies a product list so callers can mutate the copy
// without touching the source (e.g. a path catalog).
func CloneProducts(products []Product) []Product {
	if products == nil {
		return nil
	}
	out := make([]Product, len(products))
	for i, p := range products {
		out[i] = p
		if p.Quantity != nil {
			out[i].Quantity = QuantityOf(*p.Quantity)
		}
		if p.RatePlan != nil {
			rp := *p.RatePlan
			out[i].RatePlan = &rp
		}
		if p.Charges != nil {
			out[i].Charges = append([]ChargeLine(nil), p.Charges...)
		}
	}
	return out
}

// =============================================================================
// ROUNDING
// =============================================================================

var hundred = decimal.NewFromInt(100)

// Round2 rounds to two decimal places (half away from zero).
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }
