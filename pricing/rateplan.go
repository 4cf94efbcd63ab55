/*
rateplan.go - Rate Plan Aggregator

PURPOSE:
  Sums every charge of a selected rate plan into recurring, one-time and
  grand totals, and derives the per-unit cost shown for PDL / invoice based
  plans.

TOTALS:
  Recurring      = sum of Recurring charges
  OneTime        = sum of OneTime charges
  Grand          = Recurring + OneTime   (first year: setup + one period)
  FromSecondYear = Recurring             (one-time charges do not repeat)

  Usage charges are listed for display and never summed.

PER-UNIT COST:
  When the plan's unit of measure is configured for a breakdown and a
  Recurring charge carries that UOM, the quantity typed for that charge is
  the unit count:

    PerUnitCost = Recurring / units               (subscription plans)
    PerUnitCost = (Recurring + OneTime) / units   (license + fee plans)

  A plan is "license + fee" when its sales model mentions "licenza".

SEE ALSO:
  - charge.go: ChargeAmount
  - input.go: ChargeValues / Quantities
*/
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// licenseFeeMarker classifies license + fee sales models.
const licenseFeeMarker = "licenza"

// RatePlanTotals is the aggregated price of one rate plan.
type RatePlanTotals struct {
	Recurring      decimal.Decimal `json:"recurring_total"`
	OneTime        decimal.Decimal `json:"one_time_total"`
	Grand          decimal.Decimal `json:"grand_total"`
	FromSecondYear decimal.Decimal `json:"from_second_year"`
	PerUnitCost    decimal.Decimal `json:"per_unit_cost"`
	PerUnitUOM     string          `json:"per_unit_uom,omitempty"`
	Lines          []ChargeLine    `json:"lines"`
}

// IsLicenseFee reports whether a sales model is "license + fee".
func IsLicenseFee(salesModel string) bool {
	return strings.Contains(strings.ToLower(salesModel), licenseFeeMarker)
}

// AggregateRatePlan prices every charge of rp. Charges missing from
// quantities are priced with a zero quantity.
func (e *Engine) AggregateRatePlan(rp RatePlan, quantities Quantities) RatePlanTotals {
	totals := RatePlanTotals{
		Recurring: decimal.Zero,
		OneTime:   decimal.Zero,
		Lines:     make([]ChargeLine, 0, len(rp.Charges)),
	}

	for _, c := range rp.Charges {
		qty := quantities[c.ID]
		line := ChargeLine{
			Charge:          c,
			Quantity:        qty,
			CalculatedPrice: e.ChargeAmount(c, qty),
			Informational:   isInformational(c),
		}
		totals.Lines = append(totals.Lines, line)

		if line.Informational {
			continue
		}
		switch c.Type {
		case ChargeRecurring:
			totals.Recurring = totals.Recurring.Add(line.CalculatedPrice)
		case ChargeOneTime:
			totals.OneTime = totals.OneTime.Add(line.CalculatedPrice)
		}
	}

	totals.Grand = totals.Recurring.Add(totals.OneTime)
	totals.FromSecondYear = totals.Recurring
	totals.PerUnitCost, totals.PerUnitUOM = e.perUnitCost(rp, quantities, totals)
	return totals
}

// AggregateChargeValues parses raw values and aggregates. The entered text is
// kept on each line.
func (e *Engine) AggregateChargeValues(rp RatePlan, values ChargeValues) RatePlanTotals {
	totals := e.AggregateRatePlan(rp, values.Quantities())
	for i := range totals.Lines {
		totals.Lines[i].EnteredValue = values[totals.Lines[i].Charge.ID]
	}
	return totals
}

func (e *Engine) perUnitCost(rp RatePlan, quantities Quantities, totals RatePlanTotals) (decimal.Decimal, string) {
	uom, ok := e.perUnitUOM(rp.UnitOfMeasure)
	if !ok {
		return decimal.Zero, ""
	}

	var units decimal.Decimal
	found := false
	for _, c := range rp.Charges {
		if c.Type == ChargeRecurring && strings.EqualFold(c.UOM, uom) {
			units = quantities[c.ID]
			found = true
			break
		}
	}
	if !found || !units.IsPositive() {
		return decimal.Zero, ""
	}

	cost := totals.Recurring
	if IsLicenseFee(rp.SalesModel) {
		cost = cost.Add(totals.OneTime)
	}
	return Round2(cost.Div(units)), uom
}

func (e *Engine) perUnitUOM(planUOM string) (string, bool) {
	if planUOM == "" {
		return "", false
	}
	for _, u := range e.cfg.PerUnitUOMs {
		if strings.EqualFold(u, planUOM) {
			return planUOM, true
		}
	}
	return "", false
}
