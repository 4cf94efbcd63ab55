package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TIER RESOLVER
// =============================================================================

// ResolveTier returns the first tier whose bounds contain quantity.
//
// Pricing is threshold style: the matched tier's price applies to the whole
// quantity, nothing is summed across crossed boundaries. A quantity below the
// first tier, or above every finite tier when no open-ended tier exists,
// matches nothing.
func ResolveTier(quantity decimal.Decimal, tiers []Tier) (Tier, bool) {
	for _, t := range tiers {
		if t.Contains(quantity) {
			return t, true
		}
	}
	return Tier{}, false
}

// =============================================================================
// TIER DISPLAY CLASSIFICATION
// =============================================================================

// TierStyle is how a tier table is described to the user.
type TierStyle string

const (
	TierStyleFlat       TierStyle = "flat"
	TierStyleThreshold  TierStyle = "threshold"  // "soglie": next tier starts one unit after the previous end
	TierStyleCumulative TierStyle = "cumulative" // "scaglioni": consecutive tiers share the boundary value
)

// ClassifyTiers compares consecutive tier boundaries to pick display wording.
//
// NOTE: this only drives display text. ChargeAmount always bills with
// threshold semantics, even for tables classified as cumulative.
func ClassifyTiers(tiers []Tier) TierStyle {
	if len(tiers) < 2 {
		return TierStyleFlat
	}
	for i := 1; i < len(tiers); i++ {
		prev := tiers[i-1]
		if prev.OpenEnded() {
			break
		}
		if tiers[i].StartingUnit.Equal(prev.EndingUnit.Decimal) {
			return TierStyleCumulative
		}
	}
	return TierStyleThreshold
}

// DescribeTiers renders one display line per tier, e.g. "0 - 30: 500" and
// "from 31: 20".
func DescribeTiers(tiers []Tier, currency string) []string {
	lines := make([]string, 0, len(tiers))
	for _, t := range tiers {
		price := strings.TrimSpace(fmt.Sprintf("%s %s", t.Price.StringFixed(2), currency))
		if t.OpenEnded() {
			lines = append(lines, fmt.Sprintf("from %s: %s", t.StartingUnit, price))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s - %s: %s", t.StartingUnit, t.EndingUnit.Decimal, price))
	}
	return lines
}
