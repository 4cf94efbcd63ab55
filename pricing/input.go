package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RAW INPUT ADAPTER - Text inputs -> parsed values
// =============================================================================
// UI inputs arrive as strings so partial edits ("-", "12,") survive between
// keystrokes. Parsing happens here and nowhere else; the engine itself works
// on parsed decimals.

// ChargeValues maps a charge id to the raw quantity typed for it.
// It lives for one configuration session and is reset, never merged, when
// the selected rate plan changes.
type ChargeValues map[string]string

// Quantities maps a charge id to its parsed quantity.
type Quantities map[string]decimal.Decimal

// NegativeToken is the in-progress input accepted while a negative customer
// price is being typed.
const NegativeToken = "-"

// SeedChargeValues returns fresh values for a rate plan: "1" for PerUnit and
// Volume charges, "" for everything else.
func SeedChargeValues(rp RatePlan) ChargeValues {
	values := make(ChargeValues, len(rp.Charges))
	for _, c := range rp.Charges {
		switch c.Model {
		case ModelPerUnit, ModelVolume:
			values[c.ID] = "1"
		default:
			values[c.ID] = ""
		}
	}
	return values
}

// Quantities parses every raw value.
func (v ChargeValues) Quantities() Quantities {
	q := make(Quantities, len(v))
	for id, raw := range v {
		q[id] = ParseQuantity(raw)
	}
	return q
}

// Clone returns an independent copy.
func (v ChargeValues) Clone() ChargeValues {
	out := make(ChargeValues, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// ParseQuantity parses a non-negative quantity. Empty, unparseable and
// negative inputs all yield zero.
func ParseQuantity(raw string) decimal.Decimal {
	d, ok := parseDecimal(raw)
	if !ok || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// CustomerPrice is a customer-facing price override as typed by the user.
type CustomerPrice struct {
	Raw   string
	Value decimal.Decimal

	// Set is false while no override has been entered.
	Set bool

	// Pending is true for the in-progress negative token.
	Pending bool
}

// Decimal returns the override as a nullable decimal, invalid when unset or
// still pending.
func (c CustomerPrice) Decimal() decimal.NullDecimal {
	if !c.Set || c.Pending {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(c.Value)
}

// ParseCustomerPrice validates a raw override. It returns false when the
// input must be rejected: unparseable text, or a negative value on a product
// that does not allow one.
func ParseCustomerPrice(raw string, allowNegative bool) (CustomerPrice, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return CustomerPrice{}, true
	}
	if trimmed == NegativeToken {
		if !allowNegative {
			return CustomerPrice{}, false
		}
		return CustomerPrice{Raw: raw, Set: true, Pending: true}, true
	}

	d, ok := parseDecimal(trimmed)
	if !ok {
		return CustomerPrice{}, false
	}
	if d.IsNegative() && !allowNegative {
		return CustomerPrice{}, false
	}
	return CustomerPrice{Raw: raw, Value: d, Set: true}, true
}

// Bounds on typed numbers. Exponent notation is refused outright so a short
// input cannot expand into a huge coefficient.
const (
	maxInputLength   = 32
	maxInputExponent = 12
)

// parseDecimal accepts "." or "," as decimal separator.
func parseDecimal(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || len(s) > maxInputLength || strings.ContainsAny(s, "eE") {
		return decimal.Zero, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp < -maxInputExponent || exp > maxInputExponent {
		return decimal.Zero, false
	}
	return d, true
}
