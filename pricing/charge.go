/*
charge.go - Charge Pricing Resolver

PURPOSE:
  Computes the amount of a single charge from a parsed quantity. Dispatches
  on the charge model:

    FlatFee: selected price, quantity ignored
    PerUnit: quantity * selected price
    Volume:  price of the tier containing quantity (threshold, not cumulative)
    Usage:   unit price, informational only, never multiplied

CURRENCY SELECTION:
  A charge may carry one Pricing entry per currency. The engine picks the
  entry matching Config.PreferredCurrency, falls back to the first entry,
  and prices at zero when the charge has no entries at all.

LENIENCY:
  No function here returns an error. A partially configured charge
  contributes zero rather than blocking the caller.

SEE ALSO:
  - tier.go: ResolveTier
  - input.go: Raw string -> quantity adapter
  - rateplan.go: Sums charge amounts per rate plan
*/
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the preferred currency when none is configured.
const DefaultCurrency = "EUR"

// Config holds engine settings. The zero value is usable.
type Config struct {
	// PreferredCurrency selects the Pricing entry of a charge.
	PreferredCurrency string `json:"preferred_currency"`

	// PerUnitUOMs lists the rate-plan units of measure that get a per-unit
	// cost breakdown (matched case-insensitively).
	PerUnitUOMs []string `json:"per_unit_uoms"`
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{
		PreferredCurrency: DefaultCurrency,
		PerUnitUOMs:       []string{"PDL", "Fatture"},
	}
}

// Engine is the pricing resolution engine. It holds configuration only and
// is safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine with the given configuration.
func NewEngine(cfg Config) *Engine {
	if cfg.PreferredCurrency == "" {
		cfg.PreferredCurrency = DefaultCurrency
	}
	return &Engine{cfg: cfg}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// SelectPricing returns the preferred-currency entry, else the first entry.
func (e *Engine) SelectPricing(c Charge) (Pricing, bool) {
	for _, p := range c.Pricing {
		if strings.EqualFold(p.Currency, e.cfg.PreferredCurrency) {
			return p, true
		}
	}
	if len(c.Pricing) > 0 {
		return c.Pricing[0], true
	}
	return Pricing{}, false
}

// UnitPrice returns the display unit price of a charge: the selected flat
// price, or the first tier price for tier-only pricing.
func (e *Engine) UnitPrice(c Charge) decimal.Decimal {
	p, ok := e.SelectPricing(c)
	if !ok {
		return decimal.Zero
	}
	if p.Price.Valid {
		return p.Price.Decimal
	}
	if len(p.Tiers) > 0 {
		return p.Tiers[0].Price
	}
	return decimal.Zero
}

// ChargeAmount returns the calculated amount of one charge for quantity.
func (e *Engine) ChargeAmount(c Charge, quantity decimal.Decimal) decimal.Decimal {
	p, ok := e.SelectPricing(c)
	if !ok {
		return decimal.Zero
	}

	switch c.Model {
	case ModelFlatFee:
		return priceOf(p)

	case ModelPerUnit:
		if !quantity.IsPositive() {
			return decimal.Zero
		}
		return quantity.Mul(priceOf(p))

	case ModelVolume:
		if !quantity.IsPositive() {
			return decimal.Zero
		}
		tier, ok := ResolveTier(quantity, p.Tiers)
		if !ok {
			return decimal.Zero
		}
		return tier.Price

	case ModelUsage:
		return e.UnitPrice(c)
	}
	return decimal.Zero
}

// ChargeLine prices a charge and keeps the raw input alongside the result.
func (e *Engine) ChargeLine(c Charge, entered string) ChargeLine {
	qty := ParseQuantity(entered)
	return ChargeLine{
		Charge:          c,
		EnteredValue:    entered,
		Quantity:        qty,
		CalculatedPrice: e.ChargeAmount(c, qty),
		Informational:   isInformational(c),
	}
}

func priceOf(p Pricing) decimal.Decimal {
	if !p.Price.Valid {
		return decimal.Zero
	}
	return p.Price.Decimal
}

// isInformational reports whether a charge is shown without being summed.
func isInformational(c Charge) bool {
	return c.Model == ModelUsage || c.Type == ChargeUsage
}
