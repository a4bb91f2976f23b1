/*
sequence.go - Forward and backward payday sequences

PURPOSE:
  Materializes the next or past N paydays for dashboard views ("upcoming
  salary dates") and for seeding salary-cycle records. Sequences are eager:
  count is always small (a year of months at most), so there is nothing to
  gain from laziness.

SEE ALSO:
  - payday.go: PayConfig.PaydayFor, the per-month resolver
*/
package schedule

import "time"

// PaydayRef is one entry in a payday sequence.
type PaydayRef struct {
	Month time.Month
	Year  int
	Date  time.Time
}

// NextPaydays returns exactly count paydays starting at now's calendar month
// and walking forward one month at a time, rolling December into January of
// the next year. Deterministic given now.
func NextPaydays(cfg PayConfig, count int, now time.Time) []PaydayRef {
	if count <= 0 {
		return nil
	}
	refs := make([]PaydayRef, 0, count)
	year, month := now.Year(), now.Month()
	for i := 0; i < count; i++ {
		refs = append(refs, PaydayRef{
			Month: month,
			Year:  year,
			Date:  cfg.PaydayFor(year, month),
		})
		year, month = monthAfter(year, month)
	}
	return refs
}

// PastPaydays mirrors NextPaydays backward: exactly count paydays starting at
// the month before now's and walking back, rolling January into December of
// the previous year.
func PastPaydays(cfg PayConfig, count int, now time.Time) []PaydayRef {
	if count <= 0 {
		return nil
	}
	refs := make([]PaydayRef, 0, count)
	year, month := monthBefore(now.Year(), now.Month())
	for i := 0; i < count; i++ {
		refs = append(refs, PaydayRef{
			Month: month,
			Year:  year,
			Date:  cfg.PaydayFor(year, month),
		})
		year, month = monthBefore(year, month)
	}
	return refs
}
