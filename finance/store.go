/*
store.go - Persistence interface for the finance domain

PURPOSE:
  Defines the boundary between the pure schedule engine and the database.
  The engine computes cycle windows and occurrence sets as values; a Store
  is what the orchestration layer reads inputs from and persists results to.

UNIQUENESS CONTRACT:
  Two invariants are enforced at the store level, not in the engine:
  - one SalaryCycle per (profile, month, year)       → ErrDuplicateCycle
  - one PaymentOccurrence per (payment, month, year) → ErrDuplicateOccurrence
  CreateOccurrence must be atomic with respect to that check so that
  concurrent month expansions cannot insert duplicates. The SQLite
  implementation uses a unique index; the memory implementation a mutex.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - finance/store/memory.go: In-memory for testing

SEE ALSO:
  - errors.go: Sentinel errors returned here
  - schedule: Consumes the values these methods return
*/
package finance

import (
	"context"
	"time"
)

// Store is the persistence boundary for the finance domain.
type Store interface {
	ProfileStore
	CycleStore
	PaymentStore
	OccurrenceStore
}

// ProfileStore persists salary profiles.
type ProfileStore interface {
	// SaveProfile inserts or replaces a profile by ID.
	SaveProfile(ctx context.Context, p SalaryProfile) error

	// ActiveProfile returns the active profile, or nil if none is configured.
	// A nil profile makes the cycle calculator fall back to calendar months,
	// so "no profile yet" is not an error.
	ActiveProfile(ctx context.Context) (*SalaryProfile, error)
}

// CycleStore persists recorded salary cycles.
type CycleStore interface {
	// CreateCycle inserts a cycle. Returns ErrDuplicateCycle if one already
	// exists for (profile, month, year).
	CreateCycle(ctx context.Context, c SalaryCycle) error

	// UpdateCycle replaces an existing cycle by ID. Returns ErrNotFound if
	// the cycle doesn't exist.
	UpdateCycle(ctx context.Context, c SalaryCycle) error

	// LatestCycle returns the most recent cycle for a profile by (year,
	// month), or nil if none has been recorded.
	LatestCycle(ctx context.Context, profileID string) (*SalaryCycle, error)

	// CycleFor returns the cycle for a specific month, or nil.
	CycleFor(ctx context.Context, profileID string, month time.Month, year int) (*SalaryCycle, error)
}

// PaymentStore persists scheduled-payment definitions.
type PaymentStore interface {
	// SavePayment inserts or replaces a payment by ID.
	SavePayment(ctx context.Context, p ScheduledPayment) error

	// GetPayment returns a payment by ID, or ErrNotFound.
	GetPayment(ctx context.Context, id string) (*ScheduledPayment, error)

	// ListPayments returns all payments; onlyActive filters to active ones.
	ListPayments(ctx context.Context, onlyActive bool) ([]ScheduledPayment, error)
}

// OccurrenceStore persists payment occurrences.
type OccurrenceStore interface {
	// CreateOccurrence inserts an occurrence. Returns ErrDuplicateOccurrence
	// if one already exists for (payment, month, year). The existence check
	// and insert are a single atomic step.
	CreateOccurrence(ctx context.Context, o PaymentOccurrence) error

	// GetOccurrence returns an occurrence by ID, or ErrNotFound.
	GetOccurrence(ctx context.Context, id string) (*PaymentOccurrence, error)

	// OccurrencesFor returns all occurrences for a (month, year).
	OccurrencesFor(ctx context.Context, month time.Month, year int) ([]PaymentOccurrence, error)

	// OccurrencesByPayment returns every occurrence of one scheduled payment,
	// across all months. Used to keep one_time payments from re-triggering.
	OccurrencesByPayment(ctx context.Context, paymentID string) ([]PaymentOccurrence, error)

	// SetOccurrenceStatus transitions an occurrence between pending and paid.
	// paidAt is recorded when transitioning to paid and cleared otherwise.
	// Returns ErrNotFound if the occurrence doesn't exist.
	SetOccurrenceStatus(ctx context.Context, id string, status OccurrenceStatus, paidAt *time.Time) error
}
