/*
Package finance provides the domain model for the household finance engine.

PURPOSE:
  This package contains the value types shared by the schedule engine, the
  stores, and the API layer: salary profiles, salary cycles, scheduled
  payments, and payment occurrences. The types are plain values: all of the
  interesting date arithmetic lives in the schedule package, and all mutation
  happens through a Store implementation.

KEY CONCEPTS IN THIS FILE (types.go):
  - SalaryProfile: How a household's payday and financial month are computed
  - SalaryCycle: One month's recorded pay event (expected + actual)
  - ScheduledPayment: A recurring bill definition
  - PaymentOccurrence: One concrete dated instance of a scheduled payment

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for money to avoid floating-point errors
  2. Permissiveness: Unknown rule/frequency strings resolve to documented
     defaults rather than errors
  3. Determinism: Nothing in this package reads the clock; "now" is always
     threaded in by callers

SEE ALSO:
  - store.go: Persistence interface
  - errors.go: Sentinel errors for store implementations
  - schedule: The pure cycle/recurrence computation engine
*/
package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SALARY PROFILE - How payday and the financial month are derived
// =============================================================================

// PaydayRule selects how the payday of a month is computed.
type PaydayRule string

const (
	// RuleLastWorkingDay: the last weekday of the month.
	RuleLastWorkingDay PaydayRule = "last_working_day"

	// RuleFixedDay: a fixed day-of-month, clamped to the month length and
	// shifted backward off weekends.
	RuleFixedDay PaydayRule = "fixed_day"

	// RuleNthWeekday is accepted for forward compatibility but currently
	// resolves the same as RuleLastWorkingDay. No nth-weekday algorithm is
	// implemented yet; WeekdayPreference is stored but unused.
	RuleNthWeekday PaydayRule = "nth_weekday"
)

// CycleStartRule selects where the financial month begins.
type CycleStartRule string

const (
	// CycleStartSalaryDay: the financial month starts on payday.
	CycleStartSalaryDay CycleStartRule = "salary_day"

	// CycleStartFixedDay: the financial month starts on a fixed calendar day.
	CycleStartFixedDay CycleStartRule = "fixed_day"
)

// SalaryProfile holds a household's pay-cycle configuration.
// At most one profile is active at a time in practice; that is a convention
// of the calling layer, not something this package enforces.
type SalaryProfile struct {
	ID string

	// Payday computation
	PaydayRule        PaydayRule
	FixedDay          int // 1-31 when PaydayRule == RuleFixedDay; 0 = unset
	WeekdayPreference int // accepted but unused (see RuleNthWeekday)

	// Financial-month boundary
	MonthCycleStartRule CycleStartRule
	MonthCycleStartDay  int // 1-31 when rule == CycleStartFixedDay; 0 = unset

	// Inactive profiles fall back to plain calendar months.
	IsActive bool

	ExpectedAmount decimal.Decimal
	CreatedAt      time.Time
}

// =============================================================================
// SALARY CYCLE - One recorded pay event per (profile, month, year)
// =============================================================================

// SalaryCycle records one month's pay event. ActualPayDate and ActualAmount
// are filled in once the credit lands; until then the expected values anchor
// cycle-window computation.
//
// INVARIANT: at most one cycle per (SalaryProfileID, Month, Year).
// Stores enforce this with a unique constraint.
type SalaryCycle struct {
	ID              string
	SalaryProfileID string
	Month           time.Month
	Year            int

	ExpectedPayDate time.Time
	ActualPayDate   *time.Time
	ExpectedAmount  decimal.Decimal
	ActualAmount    *decimal.Decimal

	// Optional link to the recorded credit transaction.
	TransactionID string

	CreatedAt time.Time
}

// PayDate returns the best known pay date: actual if recorded, else expected.
// Returns the zero time when neither is known.
func (c *SalaryCycle) PayDate() time.Time {
	if c == nil {
		return time.Time{}
	}
	if c.ActualPayDate != nil {
		return *c.ActualPayDate
	}
	return c.ExpectedPayDate
}

// =============================================================================
// SCHEDULED PAYMENT - Recurring bill definition
// =============================================================================

// Frequency determines which months a scheduled payment falls due in.
type Frequency string

const (
	FreqMonthly    Frequency = "monthly"
	FreqQuarterly  Frequency = "quarterly"
	FreqHalfYearly Frequency = "half_yearly"
	FreqYearly     Frequency = "yearly"
	FreqOneTime    Frequency = "one_time"
)

// PaymentStatus marks whether a scheduled payment definition is live.
type PaymentStatus string

const (
	PaymentActive   PaymentStatus = "active"
	PaymentInactive PaymentStatus = "inactive"
)

// ScheduledPayment is a recurring bill definition.
//
// DueDay is restricted to 1-28 at the API boundary so every month has that
// day. The schedule engine still clamps defensively, so an out-of-range value
// slipping through produces a clamped date rather than rolling into the next
// month.
type ScheduledPayment struct {
	ID     string
	Name   string
	Amount decimal.Decimal

	DueDay    int // day-of-month, 1-28
	Frequency Frequency

	// StartMonth anchors non-monthly frequencies (quarterly, half-yearly,
	// yearly, one-time). Zero means unset; the engine applies documented
	// defaults.
	StartMonth time.Month

	Status     PaymentStatus
	CategoryID string

	CreatedAt time.Time
}

// IsActive reports whether occurrences should be generated for this payment.
func (p ScheduledPayment) IsActive() bool { return p.Status == PaymentActive }

// =============================================================================
// PAYMENT OCCURRENCE - One dated instance of a scheduled payment
// =============================================================================

// OccurrenceStatus is the persisted state of an occurrence.
// The only transitions are pending→paid (mark) and paid→pending (unmark).
// There is no persisted "overdue" state; see Overdue.
type OccurrenceStatus string

const (
	OccurrencePending OccurrenceStatus = "pending"
	OccurrencePaid    OccurrenceStatus = "paid"
)

// PaymentOccurrence is one concrete instance of a ScheduledPayment for a
// specific (month, year).
//
// INVARIANT: at most one occurrence per (ScheduledPaymentID, Month, Year).
// Regeneration is idempotent: expanding the same month twice creates no
// duplicates and never regresses a paid occurrence to pending. Stores back
// this with a unique constraint so concurrent generation cannot race past
// the check-then-create step.
type PaymentOccurrence struct {
	ID                 string
	ScheduledPaymentID string
	Month              time.Month
	Year               int

	DueDate time.Time
	Status  OccurrenceStatus
	PaidAt  *time.Time

	// Whether marking this occurrence paid should create a ledger transaction
	// and/or mutate the account balance. Owned by the calling layer; carried
	// here so it round-trips through storage.
	AffectTransaction    bool
	AffectAccountBalance bool

	CreatedAt time.Time
}

// Overdue reports whether the occurrence is pending and past due at "now".
// Derived, never persisted.
func (o PaymentOccurrence) Overdue(now time.Time) bool {
	return o.Status == OccurrencePending && o.DueDate.Before(now)
}

// MustParseDecimal parses s, returning zero on failure. Convenience for
// fixtures and seed data.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
