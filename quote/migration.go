package quote

import (
	"fmt"

	"github.com/warp/cpq-engine/pricing"
)

// =============================================================================
// MIGRATION SESSION - State machine
// =============================================================================
//
//   NoPathSelected --SelectPath(p)--> PathSelected(p.ID)
//   PathSelected   --SelectPath(q)--> PathSelected(q.ID)   (target list replaced)
//   PathSelected   --ChangePath()---> NoPathSelected

// MigrationState is the state of a migration session.
type MigrationState string

const (
	StateNoPathSelected MigrationState = "no_path_selected"
	StatePathSelected   MigrationState = "path_selected"
)

// MigrationSession compares a customer's current products against one
// migration path at a time. Not safe for concurrent use.
type MigrationSession struct {
	source        []pricing.Product
	nonMigratable map[string]bool

	path   *pricing.MigrationPath
	target []pricing.Product
}

// NewMigrationSession starts a session over the customer's current products.
// nonMigratable ids are annotated in comparisons, never excluded.
func NewMigrationSession(source []pricing.Product, nonMigratable []string) *MigrationSession {
	excluded := make(map[string]bool, len(nonMigratable))
	for _, id := range nonMigratable {
		excluded[id] = true
	}
	return &MigrationSession{
		source:        pricing.CloneProducts(source),
		nonMigratable: excluded,
	}
}

// State returns the current state.
func (s *MigrationSession) State() MigrationState {
	if s.path == nil {
		return StateNoPathSelected
	}
	return StatePathSelected
}

// PathID returns the selected path id, empty when none is selected.
func (s *MigrationSession) PathID() string {
	if s.path == nil {
		return ""
	}
	return s.path.ID
}

// SelectPath seeds the target list from the path catalog. A previous target
// list is discarded, not merged.
func (s *MigrationSession) SelectPath(path pricing.MigrationPath) {
	p := path
	p.Products = nil
	s.path = &p
	s.target = pricing.CloneProducts(path.Products)
}

// ChangePath returns to NoPathSelected.
func (s *MigrationSession) ChangePath() {
	s.path = nil
	s.target = nil
}

// Target returns a copy of the in-memory target list.
func (s *MigrationSession) Target() []pricing.Product {
	return pricing.CloneProducts(s.target)
}

// RemoveTarget drops a line from the in-memory target list. The path catalog
// it was seeded from is untouched.
func (s *MigrationSession) RemoveTarget(productID string) error {
	if s.path == nil {
		return pricing.ErrNoPathSelected
	}
	for i, p := range s.target {
		if p.ID == productID {
			s.target = append(s.target[:i:i], s.target[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("path %s target %s: %w", s.path.ID, productID, pricing.ErrProductNotFound)
}

// Compare runs the comparator on the current target list.
func (s *MigrationSession) Compare() (pricing.MigrationComparison, error) {
	if s.path == nil {
		return pricing.MigrationComparison{}, pricing.ErrNoPathSelected
	}
	return pricing.CompareMigration(s.source, s.target, s.nonMigratable), nil
}
