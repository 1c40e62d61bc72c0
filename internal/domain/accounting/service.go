// Package accounting reconciles the shop ledger: interval aggregates,
// stocktaking baselines, day-weighted mean prices, theoretical stock and
// stocktaking-to-stocktaking balances.
//
// The service never writes. Every public operation runs its reads inside one
// read-only snapshot obtained from tx.ReadOnlyManager.
package accounting

import (
	"time"

	"go.opentelemetry.io/otel"

	"shopledger/internal/core/tx"
	"shopledger/internal/domain/ledger"
)

var tracer = otel.Tracer("shopledger/accounting")

// Service provides the read-only accounting operations.
type Service struct {
	repo     ledger.Repository
	txm      tx.ReadOnlyManager
	now      func() time.Time
	location *time.Location
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now as the source of "now" for TheoreticalStock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the time zone that defines calendar days for mean prices.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// NewService creates a new accounting service.
// A nil txm runs reads without a shared snapshot.
func NewService(repo ledger.Repository, txm tx.ReadOnlyManager, opts ...Option) *Service {
	if txm == nil {
		txm = tx.Passthrough
	}
	s := &Service{
		repo:     repo,
		txm:      txm,
		now:      time.Now,
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the time zone used for calendar days.
func (s *Service) Location() *time.Location {
	return s.location
}
