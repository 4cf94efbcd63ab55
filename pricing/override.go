package pricing

import "github.com/shopspring/decimal"

// =============================================================================
// CUSTOMER PRICE OVERRIDE & DISCOUNT
// =============================================================================

// OverrideResult is the outcome of applying a typed customer price.
type OverrideResult struct {
	// CustomerPrice is the committed override. On rejection it is the
	// previous value, unchanged.
	CustomerPrice CustomerPrice

	// Effective is the price attached to the line item: the override when
	// set, otherwise the list total.
	Effective       decimal.Decimal
	DiscountPercent decimal.Decimal
	Rejected        bool
}

// ApplyCustomerPrice validates raw against the product's sign constraint and
// derives the discount against listTotal. It never alters the underlying
// charges, only the number attached to the line item.
func ApplyCustomerPrice(listTotal decimal.Decimal, raw string, previous CustomerPrice, allowNegative bool) OverrideResult {
	cp, ok := ParseCustomerPrice(raw, allowNegative)
	rejected := !ok
	if rejected {
		cp = previous
	}

	effective := listTotal
	if cp.Set {
		effective = cp.Value
	}

	return OverrideResult{
		CustomerPrice:   cp,
		Effective:       effective,
		DiscountPercent: DiscountPercent(listTotal, discountBasis(cp, listTotal)),
		Rejected:        rejected,
	}
}

// DiscountPercent is round2((list - customer) / list * 100) when
// 0 < customer < list, and 0 otherwise. It is never negative.
func DiscountPercent(listTotal, customerPrice decimal.Decimal) decimal.Decimal {
	if !customerPrice.IsPositive() || !customerPrice.LessThan(listTotal) {
		return decimal.Zero
	}
	return Round2(listTotal.Sub(customerPrice).Div(listTotal).Mul(hundred))
}

func discountBasis(cp CustomerPrice, listTotal decimal.Decimal) decimal.Decimal {
	if !cp.Set {
		return listTotal
	}
	return cp.Value
}
