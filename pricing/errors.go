/*
errors.go - Centralized error types for the pricing host layers

PURPOSE:
  The engine itself recognizes no fatal errors: bad input degrades to zero.
  The layers around it (catalog loading, sessions, stores) do fail, and
  their errors live here for consistency and discoverability.

ERROR CATEGORIES:
  1. Not found - Missing quote, catalog product, rate plan, path, line item
  2. State errors - Session operations called in the wrong state
  3. Catalog errors - Structurally invalid catalog documents

USAGE:
  if errors.Is(err, pricing.ErrQuoteNotFound) {
      // 404
  }

SEE ALSO:
  - catalog/catalog.go: Returns CatalogValidationError
  - quote/session.go: Returns state errors
  - api/handlers.go: Maps errors to HTTP status codes
*/
package pricing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrQuoteNotFound          = errors.New("quote not found")
	ErrCatalogProductNotFound = errors.New("catalog product not found")
	ErrRatePlanNotFound       = errors.New("rate plan not found")
	ErrPathNotFound           = errors.New("migration path not found")

	// ErrChargeNotFound is returned when a value is entered for a charge
	// that is not part of the selected rate plan.
	ErrChargeNotFound = errors.New("charge not found")

	// ErrProductNotFound is returned when a line item is not part of a quote
	// or migration target list.
	ErrProductNotFound = errors.New("product not found")

	// ErrNoRatePlanSelected is returned when building a line item before a
	// rate plan was picked.
	ErrNoRatePlanSelected = errors.New("no rate plan selected")

	// ErrNoPathSelected is returned when comparing before a path was picked.
	ErrNoPathSelected = errors.New("no migration path selected")

	ErrInvalidCatalog = errors.New("invalid catalog")

	// ErrInvalidQuantity is returned for negative line quantities.
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// CatalogValidationError pinpoints a structural problem in a catalog document.
type CatalogValidationError struct {
	Path    string // e.g. "products[0].rate_plans[1].charges[2]"
	Message string
}

func (e *CatalogValidationError) Error() string {
	return fmt.Sprintf("invalid catalog at %s: %s", e.Path, e.Message)
}

func (e *CatalogValidationError) Unwrap() error {
	return ErrInvalidCatalog
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrQuoteNotFound) ||
		errors.Is(err, ErrCatalogProductNotFound) ||
		errors.Is(err, ErrRatePlanNotFound) ||
		errors.Is(err, ErrPathNotFound) ||
		errors.Is(err, ErrProductNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidCatalog) ||
		errors.Is(err, ErrChargeNotFound) ||
		errors.Is(err, ErrNoRatePlanSelected) ||
		errors.Is(err, ErrNoPathSelected) ||
		errors.Is(err, ErrInvalidQuantity)
}
