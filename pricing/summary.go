package pricing

import "github.com/shopspring/decimal"

// Summary is the folded total of a product list. Quotes and migration paths
// use the same fold so totals reconcile between screens.
type Summary struct {
	ListTotal       decimal.Decimal `json:"list_total"`
	CustomerTotal   decimal.Decimal `json:"customer_total"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// SummarizeProducts sums list and customer prices, each multiplied by the
// line quantity.
func SummarizeProducts(products []Product) Summary {
	list := decimal.Zero
	customer := decimal.Zero
	for _, p := range products {
		qty := p.EffectiveQuantity()
		list = list.Add(p.Price.Mul(qty))
		customer = customer.Add(p.EffectiveCustomerPrice().Mul(qty))
	}

	discount := decimal.Zero
	if list.IsPositive() && list.GreaterThan(customer) {
		discount = Round2(list.Sub(customer).Div(list).Mul(hundred))
	}

	return Summary{
		ListTotal:       list,
		CustomerTotal:   customer,
		DiscountPercent: discount,
	}
}
