/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	data for testing and demos. Every scenario installs the demo catalog;
	most also create quotes that exercise specific pricing features.

AVAILABLE SCENARIOS:

	demo-catalog:     Catalog and migration paths only, no quotes
	new-quote:        A quote with per-unit, volume and overridden lines
	legacy-migration: A customer on legacy products, ready to compare paths

HOW SCENARIOS WORK:
 1. Reset store (clear all data)
 2. Install the demo catalog
 3. Create quotes through the quote service

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "legacy-migration"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Quote handlers
  - catalog/presets.go: Demo catalog
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/cpq-engine/catalog"
	"github.com/warp/cpq-engine/pricing"
	"github.com/warp/cpq-engine/quote"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "demo-catalog",
		Name:        "Demo Catalog",
		Description: "Catalog products and migration paths, no quotes",
	},
	{
		ID:          "new-quote",
		Name:        "New Business Quote",
		Description: "Per-unit cloud billing, volume-tiered archive and a discounted support line",
	},
	{
		ID:          "legacy-migration",
		Name:        "Legacy Migration",
		Description: "Customer on legacy on-premise products, compare the Cloud First and Hybrid paths",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var load func(context.Context) error
	switch req.ScenarioID {
	case "demo-catalog":
		load = func(context.Context) error { return nil }
	case "new-quote":
		load = h.loadNewQuoteScenario
	case "legacy-migration":
		load = h.loadLegacyMigrationScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	store := h.Service.Store()
	if err := store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}
	h.currentScenario = ""

	if err := catalog.DemoCatalog().Install(ctx, store, store); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to install demo catalog", err)
		return
	}
	if err := load(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	// Reset dropped the configured catalog file too; put it back over the demo
	// catalog. Quotes already built by the loader are unaffected.
	if h.Refresher != nil && !h.Refresher.Reinstall(ctx) {
		h.logger.Warn("catalog file not reinstalled after scenario load", zap.String("path", h.Refresher.Path))
	}

	h.currentScenario = req.ScenarioID
	h.logger.Info("scenario loaded", zap.String("scenario", req.ScenarioID))

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadNewQuoteScenario(ctx context.Context) error {
	q, err := h.Service.CreateQuote(ctx, "Rossi Energia - new business", "Rossi Energia")
	if err != nil {
		return err
	}

	lines := []quote.ConfigureRequest{
		{
			// 118 PDL x 3.52 + 2500 setup
			CatalogProductID: "energy-billing",
			RatePlanID:       "eb-cloud",
			ChargeValues:     map[string]string{"eb-cloud-pdl": "118"},
		},
		{
			// 45 invoices land in the 31-10000 tier
			CatalogProductID: "document-archive",
			RatePlanID:       "da-cloud",
			ChargeValues:     map[string]string{"da-cloud-invoices": "45", "da-cloud-storage": "200"},
		},
		{
			CatalogProductID: "support-premium",
			RatePlanID:       "support-premium-std",
			CustomerPrice:    "1000",
		},
	}
	for _, req := range lines {
		if _, _, err := h.Service.AddConfiguredProduct(ctx, q.ID, req); err != nil {
			return fmt.Errorf("add %s: %w", req.CatalogProductID, err)
		}
	}
	return nil
}

func (h *Handler) loadLegacyMigrationScenario(ctx context.Context) error {
	q, err := h.Service.CreateQuote(ctx, "Acme Utilities - legacy renewal", "Acme Utilities")
	if err != nil {
		return err
	}

	// Legacy products are not in the catalog; they only carry prices.
	q.Products = []pricing.Product{
		{
			ID:            "legacy-billing",
			Name:          "Legacy Billing On-Premise",
			Category:      "Billing",
			Price:         decimal.NewFromInt(9500),
			CustomerPrice: decimal.NewNullDecimal(decimal.NewFromInt(9000)),
		},
		{
			ID:       "legacy-archive",
			Name:     "Legacy Archive",
			Category: "Archive",
			Price:    decimal.NewFromInt(4000),
		},
	}
	return h.Service.Store().SaveQuote(ctx, q)
}
