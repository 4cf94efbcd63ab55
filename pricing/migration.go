package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MIGRATION PATH COMPARATOR
// =============================================================================

// MigrationComparison contrasts a customer's current products with the
// target products of one migration path.
type MigrationComparison struct {
	Current            Summary         `json:"current"`
	Target             Summary         `json:"target"`
	PercentChange      decimal.Decimal `json:"percent_change"`
	PercentChangeLabel string          `json:"percent_change_label"`

	// Replacements maps source product id -> target product id. Annotation
	// only: replaced sources still count fully in Current.
	Replacements map[string]string `json:"replacements"`

	// NonMigratable lists the source ids found in the exclusion set.
	// Annotation only, they are not removed from Current.
	NonMigratable []string `json:"non_migratable,omitempty"`
}

// fullChangeLabel is shown when there is no current spend to compare with.
const fullChangeLabel = "+100%"

// CompareMigration folds both product sets with SummarizeProducts and
// reports the customer-total change.
func CompareMigration(source, target []Product, nonMigratable map[string]bool) MigrationComparison {
	cmp := MigrationComparison{
		Current:      SummarizeProducts(source),
		Target:       SummarizeProducts(target),
		Replacements: make(map[string]string),
	}

	if cmp.Current.CustomerTotal.IsZero() {
		cmp.PercentChange = hundred
		cmp.PercentChangeLabel = fullChangeLabel
	} else {
		cmp.PercentChange = cmp.Target.CustomerTotal.Sub(cmp.Current.CustomerTotal).
			Div(cmp.Current.CustomerTotal).Mul(hundred)
		cmp.PercentChangeLabel = FormatSignedPercent(cmp.PercentChange)
	}

	for _, t := range target {
		if t.ReplacesProductID != "" {
			cmp.Replacements[t.ReplacesProductID] = t.ID
		}
	}

	for _, s := range source {
		if nonMigratable[s.ID] {
			cmp.NonMigratable = append(cmp.NonMigratable, s.ID)
		}
	}
	sort.Strings(cmp.NonMigratable)

	return cmp
}

// FormatSignedPercent formats to one decimal with an explicit sign:
// "+5.6%", "-3.2%", "+0.0%".
func FormatSignedPercent(pct decimal.Decimal) string {
	rounded := pct.Round(1)
	if rounded.IsNegative() {
		return rounded.StringFixed(1) + "%"
	}
	return "+" + rounded.StringFixed(1) + "%"
}
