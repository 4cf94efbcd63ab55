// Package quote implements the quoting workflow around the pricing engine:
// product configuration sessions, migration sessions and the quote service.
package quote

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/cpq-engine/pricing"
)

// =============================================================================
// CONFIGURATION SESSION - One product drawer
// =============================================================================

// ConfigSession holds the transient state of configuring one catalog
// product: the selected rate plan, the raw charge values and the customer
// price override. It is owned by a single caller and is not safe for
// concurrent use.
type ConfigSession struct {
	engine  *pricing.Engine
	product pricing.CatalogProduct

	ratePlan *pricing.RatePlan
	values   pricing.ChargeValues
	override pricing.CustomerPrice
}

// NewConfigSession starts configuring product. No rate plan is selected.
func NewConfigSession(engine *pricing.Engine, product pricing.CatalogProduct) *ConfigSession {
	return &ConfigSession{engine: engine, product: product}
}

// CatalogProduct returns the catalog product being configured.
func (s *ConfigSession) CatalogProduct() pricing.CatalogProduct { return s.product }

// RatePlan returns the selected rate plan, if any.
func (s *ConfigSession) RatePlan() (pricing.RatePlan, bool) {
	if s.ratePlan == nil {
		return pricing.RatePlan{}, false
	}
	return *s.ratePlan, true
}

// SelectRatePlan switches the rate plan. Charge values are reseeded from
// scratch and the override is cleared; nothing carries over.
func (s *ConfigSession) SelectRatePlan(id string) error {
	rp, ok := s.product.RatePlan(id)
	if !ok {
		return fmt.Errorf("product %s rate plan %s: %w", s.product.ID, id, pricing.ErrRatePlanNotFound)
	}
	s.ratePlan = &rp
	s.values = pricing.SeedChargeValues(rp)
	s.override = pricing.CustomerPrice{}
	return nil
}

// ChargeValues returns a copy of the raw values.
func (s *ConfigSession) ChargeValues() pricing.ChargeValues {
	return s.values.Clone()
}

// SetChargeValue records the raw text typed for a charge of the selected plan.
func (s *ConfigSession) SetChargeValue(chargeID, raw string) error {
	if s.ratePlan == nil {
		return pricing.ErrNoRatePlanSelected
	}
	if _, ok := s.ratePlan.Charge(chargeID); !ok {
		return fmt.Errorf("rate plan %s charge %s: %w", s.ratePlan.ID, chargeID, pricing.ErrChargeNotFound)
	}
	s.values[chargeID] = raw
	return nil
}

// Totals recomputes the selected plan end to end. Without a plan every total
// is zero.
func (s *ConfigSession) Totals() pricing.RatePlanTotals {
	if s.ratePlan == nil {
		return pricing.RatePlanTotals{}
	}
	return s.engine.AggregateChargeValues(*s.ratePlan, s.values)
}

// SetCustomerPrice applies a typed override against the current grand total.
// Rejected input leaves the previous override in place.
func (s *ConfigSession) SetCustomerPrice(raw string) pricing.OverrideResult {
	res := pricing.ApplyCustomerPrice(s.Totals().Grand, raw, s.override, s.product.AllowNegativePrice)
	s.override = res.CustomerPrice
	return res
}

// CustomerPrice returns the committed override.
func (s *ConfigSession) CustomerPrice() pricing.CustomerPrice { return s.override }

// Build turns the session into a quote line item. The list price is the
// first-year grand total.
func (s *ConfigSession) Build(lineID string, quantity *int) (pricing.Product, error) {
	if s.ratePlan == nil {
		return pricing.Product{}, fmt.Errorf("product %s: %w", s.product.ID, pricing.ErrNoRatePlanSelected)
	}
	if err := pricing.ValidateQuantity(quantity); err != nil {
		return pricing.Product{}, fmt.Errorf("product %s: %w", s.product.ID, err)
	}
	totals := s.Totals()
	rp := *s.ratePlan

	return pricing.Product{
		ID:            lineID,
		CatalogID:     s.product.ID,
		Name:          s.product.Name,
		Category:      s.product.Category,
		Price:         totals.Grand,
		CustomerPrice: s.override.Decimal(),
		Quantity:      quantity,
		RatePlan:      &rp,
		Charges:       totals.Lines,
	}, nil
}

// Discount returns the discount of the committed override.
func (s *ConfigSession) Discount() decimal.Decimal {
	grand := s.Totals().Grand
	if !s.override.Set {
		return decimal.Zero
	}
	return pricing.DiscountPercent(grand, s.override.Value)
}
