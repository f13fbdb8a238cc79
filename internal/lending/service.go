// Package lending implements the item catalog, the request ledger and the
// lifecycle rules that keep the two consistent. Every method that changes
// more than one row runs in a single transaction.
package lending

import (
	"database/sql"

	"github.com/erazemk/borrow/internal/metrics"
)

// Policy holds the configurable lifecycle rules.
type Policy struct {
	// AutoLock marks an item borrowed when its request is approved. Without
	// it approval only changes the request and the owner toggles the item.
	AutoLock bool
}

// DefaultPolicy is the policy used when none is configured.
var DefaultPolicy = Policy{AutoLock: true}

// Service is the lending domain: catalog, ledger and coordinator.
type Service struct {
	db      *sql.DB
	policy  Policy
	metrics metrics.MetricsCollector
}

// NewService returns a Service over db. A nil collector disables metrics.
func NewService(db *sql.DB, policy Policy, collector metrics.MetricsCollector) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{db: db, policy: policy, metrics: collector}
}

// Policy returns the service's lifecycle policy.
func (s *Service) Policy() Policy {
	return s.policy
}
