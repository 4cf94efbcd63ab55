/*
service.go - Quote service

PURPOSE:
  Orchestrates the pricing engine, the catalog and the quote store for
  callers that are not interactive (HTTP API, CLI). Each call replays a
  whole configuration session from the request: select the rate plan,
  enter the charge values, apply the customer price, build the line item.

LOGGING:
  The engine never logs. The service logs around it: one debug entry per
  priced configuration, info entries for quote mutations.

CONCURRENCY:
  Service holds no mutable state of its own; it is safe for concurrent use
  when the store is.

SEE ALSO:
  - session.go: ConfigSession
  - migration.go: MigrationSession
  - api/handlers.go: HTTP surface
*/
package quote

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/cpq-engine/pricing"
)

// ConfigureRequest describes one product configuration.
type ConfigureRequest struct {
	CatalogProductID string
	RatePlanID       string
	ChargeValues     map[string]string
	CustomerPrice    string
	Quantity         *int // nil counts as 1
}

// PricedConfiguration is the outcome of a configuration replay.
type PricedConfiguration struct {
	Totals   pricing.RatePlanTotals
	Override pricing.OverrideResult
	Product  pricing.Product
}

// MigrationRequest selects a path for a quote and optionally drops target
// lines before comparing.
type MigrationRequest struct {
	QuoteID        string
	PathID         string
	RemovedTargets []string
	NonMigratable  []string
}

// MigrationResult is a comparison together with the target list it used.
type MigrationResult struct {
	Path       pricing.MigrationPath
	Target     []pricing.Product
	Comparison pricing.MigrationComparison
}

// Service is the quote workflow entry point.
type Service struct {
	engine *pricing.Engine
	store  pricing.Store
	logger *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewService creates a service. A nil logger disables logging.
func NewService(engine *pricing.Engine, store pricing.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		engine: engine,
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Engine returns the pricing engine.
func (s *Service) Engine() *pricing.Engine { return s.engine }

// Store returns the underlying store.
func (s *Service) Store() pricing.Store { return s.store }

// =============================================================================
// CONFIGURATION
// =============================================================================

// PriceConfiguration replays a configuration without saving anything.
func (s *Service) PriceConfiguration(ctx context.Context, req ConfigureRequest) (PricedConfiguration, error) {
	product, err := s.store.GetCatalogProduct(ctx, req.CatalogProductID)
	if err != nil {
		return PricedConfiguration{}, err
	}

	session := NewConfigSession(s.engine, product)
	if err := session.SelectRatePlan(req.RatePlanID); err != nil {
		return PricedConfiguration{}, err
	}

	// Sorted so a bad charge id is reported deterministically.
	ids := make([]string, 0, len(req.ChargeValues))
	for id := range req.ChargeValues {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := session.SetChargeValue(id, req.ChargeValues[id]); err != nil {
			return PricedConfiguration{}, err
		}
	}

	override := session.SetCustomerPrice(req.CustomerPrice)
	line, err := session.Build(s.newID(), req.Quantity)
	if err != nil {
		return PricedConfiguration{}, err
	}
	totals := session.Totals()

	s.logger.Debug("priced configuration",
		zap.String("product", product.ID),
		zap.String("rate_plan", req.RatePlanID),
		zap.String("grand_total", totals.Grand.String()),
		zap.Bool("override_rejected", override.Rejected),
	)

	return PricedConfiguration{Totals: totals, Override: override, Product: line}, nil
}

// =============================================================================
// QUOTES
// =============================================================================

// CreateQuote creates and saves an empty quote.
func (s *Service) CreateQuote(ctx context.Context, name, customer string) (pricing.Quote, error) {
	now := s.now()
	q := pricing.Quote{
		ID:        s.newID(),
		Name:      name,
		Customer:  customer,
		Products:  []pricing.Product{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.SaveQuote(ctx, q); err != nil {
		return pricing.Quote{}, fmt.Errorf("save quote: %w", err)
	}
	s.logger.Info("quote created", zap.String("quote", q.ID), zap.String("customer", customer))
	return q, nil
}

func (s *Service) GetQuote(ctx context.Context, id string) (pricing.Quote, error) {
	return s.store.GetQuote(ctx, id)
}

func (s *Service) ListQuotes(ctx context.Context) ([]pricing.Quote, error) {
	return s.store.ListQuotes(ctx)
}

// AddConfiguredProduct prices a configuration and appends it to a quote.
func (s *Service) AddConfiguredProduct(ctx context.Context, quoteID string, req ConfigureRequest) (pricing.Quote, pricing.Product, error) {
	q, err := s.store.GetQuote(ctx, quoteID)
	if err != nil {
		return pricing.Quote{}, pricing.Product{}, err
	}

	priced, err := s.PriceConfiguration(ctx, req)
	if err != nil {
		return pricing.Quote{}, pricing.Product{}, err
	}

	q.AddProduct(priced.Product)
	q.UpdatedAt = s.now()
	if err := s.store.SaveQuote(ctx, q); err != nil {
		return pricing.Quote{}, pricing.Product{}, fmt.Errorf("save quote %s: %w", q.ID, err)
	}

	s.logger.Info("product added to quote",
		zap.String("quote", q.ID),
		zap.String("line", priced.Product.ID),
		zap.String("product", req.CatalogProductID),
	)
	return q, priced.Product, nil
}

// RemoveProduct removes a line item from a quote.
func (s *Service) RemoveProduct(ctx context.Context, quoteID, lineID string) (pricing.Quote, error) {
	q, err := s.store.GetQuote(ctx, quoteID)
	if err != nil {
		return pricing.Quote{}, err
	}
	if err := q.RemoveProduct(lineID); err != nil {
		return pricing.Quote{}, err
	}
	q.UpdatedAt = s.now()
	if err := s.store.SaveQuote(ctx, q); err != nil {
		return pricing.Quote{}, fmt.Errorf("save quote %s: %w", q.ID, err)
	}
	s.logger.Info("product removed from quote", zap.String("quote", q.ID), zap.String("line", lineID))
	return q, nil
}

// =============================================================================
// MIGRATION
// =============================================================================

// CompareMigration compares a quote's products against a migration path.
func (s *Service) CompareMigration(ctx context.Context, req MigrationRequest) (MigrationResult, error) {
	q, err := s.store.GetQuote(ctx, req.QuoteID)
	if err != nil {
		return MigrationResult{}, err
	}
	path, err := s.store.GetPath(ctx, req.PathID)
	if err != nil {
		return MigrationResult{}, err
	}

	session := NewMigrationSession(q.Products, req.NonMigratable)
	session.SelectPath(path)
	for _, id := range req.RemovedTargets {
		if err := session.RemoveTarget(id); err != nil {
			return MigrationResult{}, err
		}
	}

	cmp, err := session.Compare()
	if err != nil {
		return MigrationResult{}, err
	}

	s.logger.Debug("migration compared",
		zap.String("quote", q.ID),
		zap.String("path", path.ID),
		zap.String("change", cmp.PercentChangeLabel),
	)

	return MigrationResult{Path: path, Target: session.Target(), Comparison: cmp}, nil
}
