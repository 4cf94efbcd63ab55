/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the pricing model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Amounts are shopspring decimals and serialize as JSON strings ("415.36")
  so clients never see float rounding. Requests accept numbers or strings.

TYPES:
  Catalog:
    CatalogProductDTO, RatePlanDTO, ChargeDTO, CatalogImportDTO

  Pricing:
    PriceRatePlanRequest, RatePlanPriceDTO, ChargeLineDTO, SummaryRequest

  Quotes:
    QuoteDTO, ProductDTO, CreateQuoteRequest

  Migration:
    MigrationPathDTO, CompareMigrationRequest, MigrationComparisonDTO

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers and the quote service, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
  - pricing/types.go: Domain types
*/
package api

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/cpq-engine/pricing"
	"github.com/warp/cpq-engine/quote"
)

// =============================================================================
// CATALOG
// =============================================================================

// CatalogProductDTO represents a catalog product in API responses.
type CatalogProductDTO struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Category           string        `json:"category,omitempty"`
	Description        string        `json:"description,omitempty"`
	AllowNegativePrice bool          `json:"allow_negative_price"`
	RatePlans          []RatePlanDTO `json:"rate_plans"`
}

// RatePlanDTO represents a rate plan, grouped by infrastructure in the UI.
type RatePlanDTO struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Infrastructure string      `json:"infrastructure,omitempty"`
	UnitOfMeasure  string      `json:"unit_of_measure,omitempty"`
	SalesModel     string      `json:"sales_model,omitempty"`
	LicenseFee     bool        `json:"license_fee"`
	Charges        []ChargeDTO `json:"charges"`
}

// ChargeDTO is a charge with its resolved pricing entry.
type ChargeDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Model    string `json:"model"`
	UOM      string `json:"uom,omitempty"`
	Currency string `json:"currency,omitempty"`

	// UnitPrice is the flat price of the selected entry, or its first tier price.
	UnitPrice decimal.Decimal `json:"unit_price"`

	// TierStyle and Tiers describe volume pricing for display.
	TierStyle string   `json:"tier_style,omitempty"`
	Tiers     []string `json:"tiers,omitempty"`

	// DefaultValue is the seeded raw input for a fresh configuration.
	DefaultValue string `json:"default_value"`
}

// CatalogImportDTO reports what a catalog import installed.
type CatalogImportDTO struct {
	Products       int `json:"products"`
	MigrationPaths int `json:"migration_paths"`
}

// =============================================================================
// PRICING
// =============================================================================

// PriceRatePlanRequest is a product configuration as typed in the UI.
// Charge values and the customer price are raw strings.
type PriceRatePlanRequest struct {
	CatalogProductID string            `json:"catalog_product_id"`
	RatePlanID       string            `json:"rate_plan_id"`
	ChargeValues     map[string]string `json:"charge_values"`
	CustomerPrice    string            `json:"customer_price"`
	Quantity         *int              `json:"quantity,omitempty"`
}

func (r PriceRatePlanRequest) toConfigure() quote.ConfigureRequest {
	return quote.ConfigureRequest{
		CatalogProductID: r.CatalogProductID,
		RatePlanID:       r.RatePlanID,
		ChargeValues:     r.ChargeValues,
		CustomerPrice:    r.CustomerPrice,
		Quantity:         r.Quantity,
	}
}

// RatePlanPriceDTO is the priced configuration.
type RatePlanPriceDTO struct {
	Recurring      decimal.Decimal `json:"recurring"`
	OneTime        decimal.Decimal `json:"one_time"`
	Grand          decimal.Decimal `json:"grand"`
	FromSecondYear decimal.Decimal `json:"from_second_year"`
	PerUnitCost    decimal.Decimal `json:"per_unit_cost"`
	PerUnitUOM     string          `json:"per_unit_uom,omitempty"`
	Lines          []ChargeLineDTO `json:"lines"`

	CustomerPrice    decimal.NullDecimal `json:"customer_price"`
	Effective        decimal.Decimal     `json:"effective"`
	DiscountPercent  decimal.Decimal     `json:"discount_percent"`
	OverrideRejected bool                `json:"override_rejected"`
	OverridePending  bool                `json:"override_pending,omitempty"`
}

// ChargeLineDTO is one computed charge line.
type ChargeLineDTO struct {
	ChargeID        string          `json:"charge_id"`
	Name            string          `json:"name"`
	Type            string          `json:"type"`
	Model           string          `json:"model"`
	EnteredValue    string          `json:"entered_value"`
	Quantity        decimal.Decimal `json:"quantity"`
	CalculatedPrice decimal.Decimal `json:"calculated_price"`
	Informational   bool            `json:"informational,omitempty"`
}

// SummaryRequest is an ad-hoc product list to fold.
type SummaryRequest struct {
	Products []ProductInput `json:"products"`
}

// ProductInput is a product line supplied by the client.
type ProductInput struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Price         decimal.Decimal     `json:"price"`
	CustomerPrice decimal.NullDecimal `json:"customer_price"`
	Quantity      *int                `json:"quantity,omitempty"`
}

// =============================================================================
// QUOTES
// =============================================================================

// CreateQuoteRequest is the request to create a quote.
type CreateQuoteRequest struct {
	Name     string `json:"name"`
	Customer string `json:"customer"`
}

// QuoteDTO represents a quote with its folded totals.
type QuoteDTO struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Customer  string          `json:"customer,omitempty"`
	Products  []ProductDTO    `json:"products"`
	Summary   pricing.Summary `json:"summary"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

// ProductDTO represents a quote or path line item.
type ProductDTO struct {
	ID                string              `json:"id"`
	CatalogID         string              `json:"catalog_id,omitempty"`
	Name              string              `json:"name"`
	Category          string              `json:"category,omitempty"`
	RatePlanID        string              `json:"rate_plan_id,omitempty"`
	RatePlanName      string              `json:"rate_plan_name,omitempty"`
	Price             decimal.Decimal     `json:"price"`
	CustomerPrice     decimal.NullDecimal `json:"customer_price"`
	Quantity          *int                `json:"quantity,omitempty"`
	Charges           []ChargeLineDTO     `json:"charges,omitempty"`
	ReplacesProductID string              `json:"replaces_product_id,omitempty"`
}

// =============================================================================
// MIGRATION
// =============================================================================

// MigrationPathDTO represents a migration path.
type MigrationPathDTO struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	TotalValue decimal.Decimal `json:"total_value"`
	Products   []ProductDTO    `json:"products"`
}

// CompareMigrationRequest selects a path for a quote.
type CompareMigrationRequest struct {
	PathID         string   `json:"path_id"`
	RemovedTargets []string `json:"removed_targets"`
	NonMigratable  []string `json:"non_migratable"`
}

// MigrationComparisonDTO is the before/after view of a migration.
type MigrationComparisonDTO struct {
	PathID             string            `json:"path_id"`
	PathTitle          string            `json:"path_title"`
	Target             []ProductDTO      `json:"target"`
	Current            pricing.Summary   `json:"current"`
	TargetSummary      pricing.Summary   `json:"target_summary"`
	PercentChange      decimal.Decimal   `json:"percent_change"`
	PercentChangeLabel string            `json:"percent_change_label"`
	Replacements       map[string]string `json:"replacements"`
	NonMigratable      []string          `json:"non_migratable"`
}

// =============================================================================
// SCENARIOS & ERRORS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the request to load a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toCatalogProductDTO(engine *pricing.Engine, p pricing.CatalogProduct) CatalogProductDTO {
	dto := CatalogProductDTO{
		ID:                 p.ID,
		Name:               p.Name,
		Category:           p.Category,
		Description:        p.Description,
		AllowNegativePrice: p.AllowNegativePrice,
		RatePlans:          make([]RatePlanDTO, 0, len(p.RatePlans)),
	}
	for _, rp := range p.RatePlans {
		dto.RatePlans = append(dto.RatePlans, toRatePlanDTO(engine, rp))
	}
	return dto
}

func toRatePlanDTO(engine *pricing.Engine, rp pricing.RatePlan) RatePlanDTO {
	seed := pricing.SeedChargeValues(rp)
	dto := RatePlanDTO{
		ID:             rp.ID,
		Name:           rp.Name,
		Infrastructure: rp.Infrastructure,
		UnitOfMeasure:  rp.UnitOfMeasure,
		SalesModel:     rp.SalesModel,
		LicenseFee:     pricing.IsLicenseFee(rp.SalesModel),
		Charges:        make([]ChargeDTO, 0, len(rp.Charges)),
	}
	for _, c := range rp.Charges {
		charge := ChargeDTO{
			ID:           c.ID,
			Name:         c.Name,
			Type:         string(c.Type),
			Model:        string(c.Model),
			UOM:          c.UOM,
			UnitPrice:    engine.UnitPrice(c),
			DefaultValue: seed[c.ID],
		}
		if entry, ok := engine.SelectPricing(c); ok {
			charge.Currency = entry.Currency
			if len(entry.Tiers) > 0 {
				charge.TierStyle = string(pricing.ClassifyTiers(entry.Tiers))
				charge.Tiers = pricing.DescribeTiers(entry.Tiers, entry.Currency)
			}
		}
		dto.Charges = append(dto.Charges, charge)
	}
	return dto
}

func toChargeLineDTOs(lines []pricing.ChargeLine) []ChargeLineDTO {
	dtos := make([]ChargeLineDTO, len(lines))
	for i, l := range lines {
		dtos[i] = ChargeLineDTO{
			ChargeID:        l.Charge.ID,
			Name:            l.Charge.Name,
			Type:            string(l.Charge.Type),
			Model:           string(l.Charge.Model),
			EnteredValue:    l.EnteredValue,
			Quantity:        l.Quantity,
			CalculatedPrice: l.CalculatedPrice,
			Informational:   l.Informational,
		}
	}
	return dtos
}

// NewRatePlanPriceDTO converts a priced configuration for output.
func NewRatePlanPriceDTO(priced quote.PricedConfiguration) RatePlanPriceDTO {
	t := priced.Totals
	return RatePlanPriceDTO{
		Recurring:        t.Recurring,
		OneTime:          t.OneTime,
		Grand:            t.Grand,
		FromSecondYear:   t.FromSecondYear,
		PerUnitCost:      t.PerUnitCost,
		PerUnitUOM:       t.PerUnitUOM,
		Lines:            toChargeLineDTOs(t.Lines),
		CustomerPrice:    priced.Override.CustomerPrice.Decimal(),
		Effective:        priced.Override.Effective,
		DiscountPercent:  priced.Override.DiscountPercent,
		OverrideRejected: priced.Override.Rejected,
		OverridePending:  priced.Override.CustomerPrice.Pending,
	}
}

func toProductDTO(p pricing.Product) ProductDTO {
	dto := ProductDTO{
		ID:                p.ID,
		CatalogID:         p.CatalogID,
		Name:              p.Name,
		Category:          p.Category,
		Price:             p.Price,
		CustomerPrice:     p.CustomerPrice,
		Quantity:          p.Quantity,
		ReplacesProductID: p.ReplacesProductID,
	}
	if p.RatePlan != nil {
		dto.RatePlanID = p.RatePlan.ID
		dto.RatePlanName = p.RatePlan.Name
	}
	if len(p.Charges) > 0 {
		dto.Charges = toChargeLineDTOs(p.Charges)
	}
	return dto
}

func toProductDTOs(products []pricing.Product) []ProductDTO {
	dtos := make([]ProductDTO, len(products))
	for i, p := range products {
		dtos[i] = toProductDTO(p)
	}
	return dtos
}

func toQuoteDTO(q pricing.Quote) QuoteDTO {
	return QuoteDTO{
		ID:        q.ID,
		Name:      q.Name,
		Customer:  q.Customer,
		Products:  toProductDTOs(q.Products),
		Summary:   q.Summary(),
		CreatedAt: q.CreatedAt.Format(time.RFC3339),
		UpdatedAt: q.UpdatedAt.Format(time.RFC3339),
	}
}

func toMigrationPathDTO(p pricing.MigrationPath) MigrationPathDTO {
	return MigrationPathDTO{
		ID:         p.ID,
		Title:      p.Title,
		TotalValue: p.TotalValue,
		Products:   toProductDTOs(p.Products),
	}
}

// NewMigrationComparisonDTO converts a migration result for output.
func NewMigrationComparisonDTO(res quote.MigrationResult) MigrationComparisonDTO {
	cmp := res.Comparison
	nonMigratable := cmp.NonMigratable
	if nonMigratable == nil {
		nonMigratable = []string{}
	}
	return MigrationComparisonDTO{
		PathID:             res.Path.ID,
		PathTitle:          res.Path.Title,
		Target:             toProductDTOs(res.Target),
		Current:            cmp.Current,
		TargetSummary:      cmp.Target,
		PercentChange:      cmp.PercentChange,
		PercentChangeLabel: cmp.PercentChangeLabel,
		Replacements:       cmp.Replacements,
		NonMigratable:      nonMigratable,
	}
}

func (in ProductInput) toProduct() (pricing.Product, error) {
	if err := pricing.ValidateQuantity(in.Quantity); err != nil {
		return pricing.Product{}, fmt.Errorf("product %s: %w", in.ID, err)
	}
	return pricing.Product{
		ID:            in.ID,
		Name:          in.Name,
		Price:         in.Price,
		CustomerPrice: in.CustomerPrice,
		Quantity:      in.Quantity,
	}, nil
}
