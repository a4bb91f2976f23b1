/*
occurrence.go - Recurring-payment occurrence expansion

PURPOSE:
  Decides which months a scheduled payment falls due in, and materializes
  concrete dated occurrences for a target month. Expansion is idempotent:
  running it twice for the same month creates no duplicates and never
  regresses a paid occurrence back to pending.

FREQUENCY SEMANTICS:
  monthly, one_time   due every month the predicate is asked about
  quarterly           due in months a whole number of quarters from the
                      start month (4 occurrences per year)
  half_yearly         due in the start month and six months later
  yearly              due in the start month only
  (unrecognized)      treated as monthly

  A missing start month applies documented defaults: quarterly falls on
  Jan/Apr/Jul/Oct, half-yearly on Jan/Jul, yearly on January.

ONE-TIME PAYMENTS:
  one_time carries no persisted "consumed" flag; the occurrence-uniqueness
  invariant is what prevents re-triggering. ExpandMonth therefore skips a
  one_time payment as soon as ANY occurrence exists for it, so a later
  month's expansion cannot generate a second instance.

SEE ALSO:
  - finance: ScheduledPayment and PaymentOccurrence
  - finance.Store: CreateOccurrence, whose unique constraint backs the
    idempotency under concurrent expansion
*/
package schedule

import (
	"fmt"
	"time"

	"github.com/hearth/finance-engine/finance"
)

// =============================================================================
// DUE-MONTH PREDICATE
// =============================================================================

// OccursInMonth reports whether a payment with the given frequency and start
// month falls due in month. startMonth may be zero (unset); month is 1-12.
// Unknown frequencies are treated as monthly, the permissive default.
func OccursInMonth(freq finance.Frequency, startMonth, month time.Month) bool {
	switch freq {
	case finance.FreqQuarterly:
		if startMonth < time.January || startMonth > time.December {
			// Default quarter months: Jan, Apr, Jul, Oct.
			return month%3 == 1
		}
		return monthsFrom(startMonth, month)%3 == 0

	case finance.FreqHalfYearly:
		if startMonth < time.January || startMonth > time.December {
			return month == time.January || month == time.July
		}
		return monthsFrom(startMonth, month)%6 == 0

	case finance.FreqYearly:
		if startMonth < time.January || startMonth > time.December {
			return month == time.January
		}
		return month == startMonth

	default:
		// monthly, one_time, and anything unrecognized.
		return true
	}
}

// monthsFrom returns the number of months from start to m, wrapped to 0-11.
func monthsFrom(start, m time.Month) int {
	return (int(m) - int(start) + 12) % 12
}

// =============================================================================
// EXPANSION
// =============================================================================

// DueDateFor builds the concrete due date of a payment in a month, clamping
// the day to the month's length. DueDay is validated to 1-28 upstream, but
// clamping here means an out-of-range value produces the month's last day
// instead of silently rolling into the next month through date arithmetic.
func DueDateFor(p finance.ScheduledPayment, month time.Month, year int) time.Time {
	day := p.DueDay
	if day < 1 {
		day = 1
	}
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.Local)
}

// ExpandMonth materializes occurrences for (month, year).
//
// existing holds already-persisted occurrences for the payments being
// expanded; it should include the target month's occurrences and, for
// one_time payments, any occurrence from other months. Occurrences already
// present for the target month are returned untouched; their status and
// PaidAt survive regeneration. New occurrences are created pending, with a
// deterministic ID so retries collide on the store's unique constraint
// instead of multiplying.
//
// The returned slice is the complete occurrence set for the target month.
func ExpandMonth(payments []finance.ScheduledPayment, existing []finance.PaymentOccurrence, month time.Month, year int, now time.Time) []finance.PaymentOccurrence {
	inMonth := make(map[string]bool, len(existing))
	anyMonth := make(map[string]bool, len(existing))

	var result []finance.PaymentOccurrence
	for _, o := range existing {
		anyMonth[o.ScheduledPaymentID] = true
		if o.Month == month && o.Year == year {
			inMonth[o.ScheduledPaymentID] = true
			result = append(result, o)
		}
	}

	for _, p := range payments {
		if !p.IsActive() {
			continue
		}
		if !OccursInMonth(p.Frequency, p.StartMonth, month) {
			continue
		}
		if inMonth[p.ID] {
			continue
		}
		if p.Frequency == finance.FreqOneTime && anyMonth[p.ID] {
			// Already materialized once; one_time never fires again.
			continue
		}
		result = append(result, finance.PaymentOccurrence{
			ID:                 OccurrenceID(p.ID, month, year),
			ScheduledPaymentID: p.ID,
			Month:              month,
			Year:               year,
			DueDate:            DueDateFor(p, month, year),
			Status:             finance.OccurrencePending,
			CreatedAt:          now,
		})
	}
	return result
}

// OccurrenceID is the deterministic identifier for a payment's occurrence in
// a month. Expanding the same month twice produces the same IDs.
func OccurrenceID(paymentID string, month time.Month, year int) string {
	return fmt.Sprintf("occ-%s-%04d-%02d", paymentID, year, int(month))
}
