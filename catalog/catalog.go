/*
Package catalog provides catalog document to Go conversion.

PURPOSE:
  Converts JSON or YAML catalog documents into pricing.CatalogProduct and
  pricing.MigrationPath trees. Product managers maintain the catalog as a
  document; the parser validates it and builds the structs the engine
  prices.

DOCUMENT SCHEMA (JSON shown, YAML uses the same keys):
  {
    "products": [{
      "id": "energy-billing",
      "name": "Energy Billing",
      "category": "Billing",
      "rate_plans": [{
        "id": "eb-cloud",
        "name": "Energy Billing Cloud",
        "infrastructure": "Cloud",
        "unit_of_measure": "PDL",
        "sales_model": "Canone",
        "charges": [{
          "id": "eb-cloud-pdl",
          "name": "PDL",
          "type": "Recurring",
          "model": "PerUnit",
          "uom": "PDL",
          "pricing": [{"currency": "EUR", "price": 3.52}]
        }]
      }]
    }],
    "migration_paths": [{
      "id": "to-cloud",
      "title": "Move to Cloud",
      "products": [{"id": "t1", "name": "...", "price": 1000, "replaces_product_id": "s1"}]
    }]
  }

VALIDATION:
  - ids are required and unique per level
  - charge type and model must be known
  - tiers must be sorted by starting unit, non-overlapping, and only the
    last tier may be open-ended

USAGE:
  parser := catalog.NewParser()
  cat, err := parser.LoadFile("catalog.yaml")
  if err != nil { ... }
  err = cat.Install(ctx, store)

SEE ALSO:
  - pricing/types.go: Target types
  - catalog/presets.go: Built-in demo catalog
*/
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/cpq-engine/pricing"
)

// =============================================================================
// DOCUMENT SCHEMA TYPES
// =============================================================================

// Document is the serialized catalog.
type Document struct {
	Products       []ProductJSON `json:"products" yaml:"products"`
	MigrationPaths []PathJSON    `json:"migration_paths,omitempty" yaml:"migration_paths,omitempty"`
}

// ProductJSON represents a catalog product.
type ProductJSON struct {
	ID                 string         `json:"id" yaml:"id"`
	Name               string         `json:"name" yaml:"name"`
	Category           string         `json:"category,omitempty" yaml:"category,omitempty"`
	Description        string         `json:"description,omitempty" yaml:"description,omitempty"`
	AllowNegativePrice bool           `json:"allow_negative_price,omitempty" yaml:"allow_negative_price,omitempty"`
	RatePlans          []RatePlanJSON `json:"rate_plans" yaml:"rate_plans"`
}

// RatePlanJSON represents a rate plan.
type RatePlanJSON struct {
	ID             string       `json:"id" yaml:"id"`
	Name           string       `json:"name" yaml:"name"`
	Infrastructure string       `json:"infrastructure,omitempty" yaml:"infrastructure,omitempty"`
	UnitOfMeasure  string       `json:"unit_of_measure,omitempty" yaml:"unit_of_measure,omitempty"`
	SalesModel     string       `json:"sales_model,omitempty" yaml:"sales_model,omitempty"`
	Charges        []ChargeJSON `json:"charges" yaml:"charges"`
}

// ChargeJSON represents a charge.
type ChargeJSON struct {
	ID      string        `json:"id" yaml:"id"`
	Name    string        `json:"name" yaml:"name"`
	Type    string        `json:"type" yaml:"type"`   // Recurring, OneTime, Usage
	Model   string        `json:"model" yaml:"model"` // FlatFee, PerUnit, Volume, Usage
	UOM     string        `json:"uom,omitempty" yaml:"uom,omitempty"`
	Pricing []PricingJSON `json:"pricing" yaml:"pricing"`
}

// PricingJSON represents the price of a charge in one currency.
type PricingJSON struct {
	Currency string     `json:"currency" yaml:"currency"`
	Price    *float64   `json:"price,omitempty" yaml:"price,omitempty"`
	Tiers    []TierJSON `json:"tiers,omitempty" yaml:"tiers,omitempty"`
}

// TierJSON represents a volume tier. A nil EndingUnit is open-ended.
type TierJSON struct {
	StartingUnit float64  `json:"starting_unit" yaml:"starting_unit"`
	EndingUnit   *float64 `json:"ending_unit" yaml:"ending_unit"`
	Price        float64  `json:"price" yaml:"price"`
}

// PathJSON represents a migration path.
type PathJSON struct {
	ID         string            `json:"id" yaml:"id"`
	Title      string            `json:"title" yaml:"title"`
	TotalValue float64           `json:"total_value,omitempty" yaml:"total_value,omitempty"`
	Products   []PathProductJSON `json:"products" yaml:"products"`
}

// PathProductJSON represents a target product of a migration path.
type PathProductJSON struct {
	ID                string   `json:"id" yaml:"id"`
	CatalogID         string   `json:"catalog_id,omitempty" yaml:"catalog_id,omitempty"`
	Name              string   `json:"name" yaml:"name"`
	Category          string   `json:"category,omitempty" yaml:"category,omitempty"`
	Price             float64  `json:"price" yaml:"price"`
	CustomerPrice     *float64 `json:"customer_price,omitempty" yaml:"customer_price,omitempty"`
	Quantity          *int     `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	ReplacesProductID string   `json:"replaces_product_id,omitempty" yaml:"replaces_product_id,omitempty"`
}

// Catalog is a parsed, validated catalog.
type Catalog struct {
	Products []pricing.CatalogProduct
	Paths    []pricing.MigrationPath
}

// Product returns the catalog product with the given id.
func (c *Catalog) Product(id string) (pricing.CatalogProduct, bool) {
	for _, p := range c.Products {
		if p.ID == id {
			return p, true
		}
	}
	return pricing.CatalogProduct{}, false
}

// Install saves every product and path into the stores.
func (c *Catalog) Install(ctx context.Context, catalogs pricing.CatalogStore, paths pricing.PathStore) error {
	for _, p := range c.Products {
		if err := catalogs.SaveCatalogProduct(ctx, p); err != nil {
			return fmt.Errorf("save catalog product %s: %w", p.ID, err)
		}
	}
	for _, p := range c.Paths {
		if err := paths.SavePath(ctx, p); err != nil {
			return fmt.Errorf("save migration path %s: %w", p.ID, err)
		}
	}
	return nil
}

// =============================================================================
// PARSER
// =============================================================================

// Parser converts catalog documents to Go structs.
type Parser struct{}

// NewParser creates a new catalog parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseJSON parses a JSON catalog document.
func (p *Parser) ParseJSON(data []byte) (*Catalog, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse JSON: %v", pricing.ErrInvalidCatalog, err)
	}
	return p.FromDocument(doc)
}

// ParseYAML parses a YAML catalog document.
func (p *Parser) ParseYAML(data []byte) (*Catalog, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse YAML: %v", pricing.ErrInvalidCatalog, err)
	}
	return p.FromDocument(doc)
}

// LoadFile reads a catalog file, choosing the format from its extension.
func (p *Parser) LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return p.ParseYAML(data)
	default:
		return p.ParseJSON(data)
	}
}

// FromDocument validates a document and converts it.
func (p *Parser) FromDocument(doc Document) (*Catalog, error) {
	cat := &Catalog{}

	productIDs := make(map[string]bool)
	for i, pj := range doc.Products {
		where := fmt.Sprintf("products[%d]", i)
		if pj.ID == "" {
			return nil, invalid(where, "id is required")
		}
		if productIDs[pj.ID] {
			return nil, invalid(where, "duplicate product id "+pj.ID)
		}
		productIDs[pj.ID] = true

		product, err := parseProduct(where, pj)
		if err != nil {
			return nil, err
		}
		cat.Products = append(cat.Products, product)
	}

	pathIDs := make(map[string]bool)
	for i, mj := range doc.MigrationPaths {
		where := fmt.Sprintf("migration_paths[%d]", i)
		if mj.ID == "" {
			return nil, invalid(where, "id is required")
		}
		if pathIDs[mj.ID] {
			return nil, invalid(where, "duplicate path id "+mj.ID)
		}
		pathIDs[mj.ID] = true

		path, err := parsePath(where, mj)
		if err != nil {
			return nil, err
		}
		cat.Paths = append(cat.Paths, path)
	}

	return cat, nil
}

func parseProduct(where string, pj ProductJSON) (pricing.CatalogProduct, error) {
	product := pricing.CatalogProduct{
		ID:                 pj.ID,
		Name:               pj.Name,
		Category:           pj.Category,
		Description:        pj.Description,
		AllowNegativePrice: pj.AllowNegativePrice,
	}

	planIDs := make(map[string]bool)
	for i, rj := range pj.RatePlans {
		at := fmt.Sprintf("%s.rate_plans[%d]", where, i)
		if rj.ID == "" {
			return product, invalid(at, "id is required")
		}
		if planIDs[rj.ID] {
			return product, invalid(at, "duplicate rate plan id "+rj.ID)
		}
		planIDs[rj.ID] = true

		rp, err := parseRatePlan(at, rj)
		if err != nil {
			return product, err
		}
		product.RatePlans = append(product.RatePlans, rp)
	}
	return product, nil
}

func parseRatePlan(where string, rj RatePlanJSON) (pricing.RatePlan, error) {
	rp := pricing.RatePlan{
		ID:             rj.ID,
		Name:           rj.Name,
		Infrastructure: rj.Infrastructure,
		UnitOfMeasure:  rj.UnitOfMeasure,
		SalesModel:     rj.SalesModel,
	}

	chargeIDs := make(map[string]bool)
	for i, cj := range rj.Charges {
		at := fmt.Sprintf("%s.charges[%d]", where, i)
		if cj.ID == "" {
			return rp, invalid(at, "id is required")
		}
		if chargeIDs[cj.ID] {
			return rp, invalid(at, "duplicate charge id "+cj.ID)
		}
		chargeIDs[cj.ID] = true

		c, err := parseCharge(at, cj)
		if err != nil {
			return rp, err
		}
		rp.Charges = append(rp.Charges, c)
	}
	return rp, nil
}

func parseCharge(where string, cj ChargeJSON) (pricing.Charge, error) {
	c := pricing.Charge{
		ID:    cj.ID,
		Name:  cj.Name,
		Type:  pricing.ChargeType(cj.Type),
		Model: pricing.ChargeModel(cj.Model),
		UOM:   cj.UOM,
	}
	if !c.Type.Valid() {
		return c, invalid(where, fmt.Sprintf("unknown charge type %q", cj.Type))
	}
	if !c.Model.Valid() {
		return c, invalid(where, fmt.Sprintf("unknown charge model %q", cj.Model))
	}

	for i, pj := range cj.Pricing {
		at := fmt.Sprintf("%s.pricing[%d]", where, i)
		entry := pricing.Pricing{Currency: strings.ToUpper(pj.Currency)}
		if pj.Price != nil {
			entry.Price = decimal.NewNullDecimal(decimal.NewFromFloat(*pj.Price))
		}
		tiers, err := parseTiers(at, pj.Tiers)
		if err != nil {
			return c, err
		}
		entry.Tiers = tiers
		c.Pricing = append(c.Pricing, entry)
	}
	return c, nil
}

func parseTiers(where string, tjs []TierJSON) ([]pricing.Tier, error) {
	if len(tjs) == 0 {
		return nil, nil
	}
	tiers := make([]pricing.Tier, len(tjs))
	for i, tj := range tjs {
		at := fmt.Sprintf("%s.tiers[%d]", where, i)
		t := pricing.Tier{
			StartingUnit: decimal.NewFromFloat(tj.StartingUnit),
			Price:        decimal.NewFromFloat(tj.Price),
		}
		if tj.EndingUnit != nil {
			end := decimal.NewFromFloat(*tj.EndingUnit)
			if end.LessThan(t.StartingUnit) {
				return nil, invalid(at, "ending unit before starting unit")
			}
			t.EndingUnit = decimal.NewNullDecimal(end)
		} else if i != len(tjs)-1 {
			return nil, invalid(at, "only the last tier may be open-ended")
		}

		if i > 0 {
			prev := tiers[i-1]
			if t.StartingUnit.LessThan(prev.EndingUnit.Decimal) {
				return nil, invalid(at, "tier overlaps the previous one")
			}
		}
		tiers[i] = t
	}
	return tiers, nil
}

func parsePath(where string, mj PathJSON) (pricing.MigrationPath, error) {
	path := pricing.MigrationPath{
		ID:         mj.ID,
		Title:      mj.Title,
		TotalValue: decimal.NewFromFloat(mj.TotalValue),
	}
	seen := make(map[string]bool)
	for i, pj := range mj.Products {
		at := fmt.Sprintf("%s.products[%d]", where, i)
		if pj.ID == "" {
			return path, invalid(at, "id is required")
		}
		if seen[pj.ID] {
			return path, invalid(at, "duplicate product id "+pj.ID)
		}
		seen[pj.ID] = true
		if pj.Quantity != nil && *pj.Quantity < 0 {
			return path, invalid(at, "quantity must not be negative")
		}

		product := pricing.Product{
			ID:                pj.ID,
			CatalogID:         pj.CatalogID,
			Name:              pj.Name,
			Category:          pj.Category,
			Price:             decimal.NewFromFloat(pj.Price),
			Quantity:          pj.Quantity,
			ReplacesProductID: pj.ReplacesProductID,
		}
		if pj.CustomerPrice != nil {
			product.CustomerPrice = decimal.NewNullDecimal(decimal.NewFromFloat(*pj.CustomerPrice))
		}
		path.Products = append(path.Products, product)
	}
	if path.TotalValue.IsZero() {
		path.TotalValue = pricing.SummarizeProducts(path.Products).CustomerTotal
	}
	return path, nil
}

func invalid(path, msg string) error {
	return &pricing.CatalogValidationError{Path: path, Message: msg}
}
