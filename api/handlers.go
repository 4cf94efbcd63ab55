/*
handlers.go - HTTP API handlers for the CPQ pricing engine

PURPOSE:
  Exposes catalog browsing, rate plan pricing, quotes and migration
  comparisons via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to the quote service.

ENDPOINTS:
  Catalog:
    GET    /api/catalog                   List catalog products
    GET    /api/catalog/{id}              Get catalog product
    POST   /api/catalog                   Import catalog document (JSON or YAML)
    GET    /api/catalog/refreshes         Recent catalog file refreshes

  Pricing:
    POST   /api/pricing/rate-plan         Price a configuration (nothing saved)
    POST   /api/pricing/summary           Fold an ad-hoc product list

  Quotes:
    GET    /api/quotes                    List quotes
    POST   /api/quotes                    Create quote
    GET    /api/quotes/{id}               Get quote with summary
    POST   /api/quotes/{id}/products      Configure and add a product
    DELETE /api/quotes/{id}/products/{lineID}

  Migration:
    GET    /api/migration-paths           List migration paths
    POST   /api/quotes/{id}/migration     Compare a quote against a path

ARCHITECTURE:
  Handler holds the quote service (engine + store) and the catalog parser.
  Handlers are stateless apart from the currently loaded demo scenario.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, invalid catalog
  - 404: Resource not found
  - 500: Internal errors (logged)

  Invalid numeric input is NOT an error: the engine degrades it to zero and
  a rejected customer price is reported with override_rejected=true.

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/cpq-engine/catalog"
	"github.com/warp/cpq-engine/internal/metrics"
	"github.com/warp/cpq-engine/pricing"
	"github.com/warp/cpq-engine/quote"
)

// maxCatalogBytes bounds catalog import bodies.
const maxCatalogBytes = 4 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *quote.Service
	Parser  *catalog.Parser

	// Refresher is optional; when nil the refresh history is empty.
	Refresher *CatalogRefreshScheduler

	// Metrics is optional; when nil nothing is recorded and /metrics is not mounted.
	Metrics *metrics.Metrics

	logger *zap.Logger

	mu              sync.RWMutex
	currentScenario string
}

// NewHandler creates a new handler around the quote service.
func NewHandler(svc *quote.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Service: svc,
		Parser:  catalog.NewParser(),
		logger:  logger,
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// ListCatalog returns all catalog products.
func (h *Handler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.Store().ListCatalogProducts(r.Context())
	if err != nil {
		h.fail(w, "Failed to list catalog", err)
		return
	}

	engine := h.Service.Engine()
	result := make([]CatalogProductDTO, 0, len(products))
	for _, p := range products {
		result = append(result, toCatalogProductDTO(engine, p))
	}
	writeJSON(w, http.StatusOK, result)
}

// GetCatalogProduct returns one catalog product.
func (h *Handler) GetCatalogProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.Service.Store().GetCatalogProduct(r.Context(), id)
	if err != nil {
		h.fail(w, "Failed to get catalog product", err)
		return
	}

	writeJSON(w, http.StatusOK, toCatalogProductDTO(h.Service.Engine(), p))
}

// ImportCatalog parses a catalog document and installs it. Existing
// products and paths with the same ids are replaced.
func (h *Handler) ImportCatalog(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCatalogBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var cat *catalog.Catalog
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		cat, err = h.Parser.ParseYAML(body)
	} else {
		cat, err = h.Parser.ParseJSON(body)
	}
	if err != nil {
		h.fail(w, "Invalid catalog", err)
		return
	}

	store := h.Service.Store()
	if err := cat.Install(r.Context(), store, store); err != nil {
		h.fail(w, "Failed to install catalog", err)
		return
	}

	h.logger.Info("catalog imported",
		zap.Int("products", len(cat.Products)),
		zap.Int("migration_paths", len(cat.Paths)),
	)
	writeJSON(w, http.StatusCreated, CatalogImportDTO{
		Products:       len(cat.Products),
		MigrationPaths: len(cat.Paths),
	})
}

// ListCatalogRefreshes returns the recent catalog file refresh runs.
func (h *Handler) ListCatalogRefreshes(w http.ResponseWriter, r *http.Request) {
	if h.Refresher == nil {
		writeJSON(w, http.StatusOK, []CatalogRefreshRun{})
		return
	}
	writeJSON(w, http.StatusOK, h.Refresher.Runs())
}

// =============================================================================
// PRICING HANDLERS
// =============================================================================

// PriceRatePlan prices a configuration without saving it. This backs the
// live totals shown while a product is being configured.
func (h *Handler) PriceRatePlan(w http.ResponseWriter, r *http.Request) {
	var req PriceRatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	priced, err := h.Service.PriceConfiguration(r.Context(), req.toConfigure())
	h.Metrics.RecordPricing("rate_plan", err)
	if err != nil {
		h.fail(w, "Failed to price rate plan", err)
		return
	}

	writeJSON(w, http.StatusOK, NewRatePlanPriceDTO(priced))
}

// SummarizeProducts folds an ad-hoc product list.
func (h *Handler) SummarizeProducts(w http.ResponseWriter, r *http.Request) {
	var req SummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	products := make([]pricing.Product, len(req.Products))
	for i, in := range req.Products {
		p, err := in.toProduct()
		if err != nil {
			h.Metrics.RecordPricing("summary", err)
			h.fail(w, "Invalid product", err)
			return
		}
		products[i] = p
	}

	h.Metrics.RecordPricing("summary", nil)
	writeJSON(w, http.StatusOK, pricing.SummarizeProducts(products))
}

// =============================================================================
// QUOTE HANDLERS
// =============================================================================

// ListQuotes returns all quotes, oldest first.
func (h *Handler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.Service.ListQuotes(r.Context())
	if err != nil {
		h.fail(w, "Failed to list quotes", err)
		return
	}

	result := make([]QuoteDTO, len(quotes))
	for i, q := range quotes {
		result[i] = toQuoteDTO(q)
	}
	writeJSON(w, http.StatusOK, result)
}

// CreateQuote creates an empty quote.
func (h *Handler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var req CreateQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	q, err := h.Service.CreateQuote(r.Context(), req.Name, req.Customer)
	if err != nil {
		h.fail(w, "Failed to create quote", err)
		return
	}

	writeJSON(w, http.StatusCreated, toQuoteDTO(q))
}

// GetQuote returns a quote with its summary.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	q, err := h.Service.GetQuote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to get quote", err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteDTO(q))
}

// AddQuoteProduct configures a catalog product and appends it to the quote.
func (h *Handler) AddQuoteProduct(w http.ResponseWriter, r *http.Request) {
	var req PriceRatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	q, _, err := h.Service.AddConfiguredProduct(r.Context(), chi.URLParam(r, "id"), req.toConfigure())
	if err != nil {
		h.fail(w, "Failed to add product", err)
		return
	}

	writeJSON(w, http.StatusCreated, toQuoteDTO(q))
}

// RemoveQuoteProduct removes a line item from the quote.
func (h *Handler) RemoveQuoteProduct(w http.ResponseWriter, r *http.Request) {
	q, err := h.Service.RemoveProduct(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "lineID"))
	if err != nil {
		h.fail(w, "Failed to remove product", err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteDTO(q))
}

// =============================================================================
// MIGRATION HANDLERS
// =============================================================================

// ListMigrationPaths returns the migration path catalog.
func (h *Handler) ListMigrationPaths(w http.ResponseWriter, r *http.Request) {
	paths, err := h.Service.Store().ListPaths(r.Context())
	if err != nil {
		h.fail(w, "Failed to list migration paths", err)
		return
	}

	result := make([]MigrationPathDTO, len(paths))
	for i, p := range paths {
		result[i] = toMigrationPathDTO(p)
	}
	writeJSON(w, http.StatusOK, result)
}

// CompareMigration compares the quote's products against a migration path.
func (h *Handler) CompareMigration(w http.ResponseWriter, r *http.Request) {
	var req CompareMigrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.PathID == "" {
		writeError(w, http.StatusBadRequest, "path_id is required", nil)
		return
	}

	res, err := h.Service.CompareMigration(r.Context(), quote.MigrationRequest{
		QuoteID:        chi.URLParam(r, "id"),
		PathID:         req.PathID,
		RemovedTargets: req.RemovedTargets,
		NonMigratable:  req.NonMigratable,
	})
	h.Metrics.RecordPricing("migration", err)
	if err != nil {
		h.fail(w, "Failed to compare migration", err)
		return
	}

	writeJSON(w, http.StatusOK, NewMigrationComparisonDTO(res))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message, Code: errorCode(status)}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// fail maps a domain error to its HTTP status. Unexpected errors are logged.
func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	switch {
	case pricing.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case pricing.IsClientError(err):
		var verr *pricing.CatalogValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   message,
				Code:    errorCode(http.StatusBadRequest),
				Details: map[string]string{"path": verr.Path, "message": verr.Message},
			})
			return
		}
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.logger.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	default:
		return "internal"
	}
}
