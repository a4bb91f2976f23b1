/*
Package schedule implements the recurrence and cycle-calculation engine.

PURPOSE:
  Everything with non-trivial date arithmetic lives here: computing a
  household's payday for a month under several rule types, deriving the
  financial-month window anchored to that payday, and expanding recurring
  payment definitions into concrete dated occurrences.

KEY CONCEPTS:
  - PayConfig: A salary profile's payday settings, resolved once with
    defaults applied (payday.go)
  - PaydayRef: One (month, year, date) payday in a sequence (sequence.go)
  - CycleWindow: A financial-month window with label (cycle.go)
  - ExpandMonth: Idempotent occurrence generation (occurrence.go)

DESIGN PRINCIPLES:
  1. Determinism: "now" is always an explicit parameter; no function here
     reads the clock
  2. Permissiveness: unknown rules/frequencies resolve to documented
     defaults, never errors; partially-filled settings are the norm in a
     consumer app
  3. Purity: inputs are immutable values, outputs are new values; callers
     own persistence

TIME SEMANTICS:
  All computation uses local wall-clock date components at whole-second
  resolution. A cycle's End is always exactly one second before the next
  cycle's Start: no gap, no overlap.

SEE ALSO:
  - finance: The domain types consumed and produced here
*/
package schedule

import (
	"time"

	"github.com/hearth/finance-engine/finance"
)

// =============================================================================
// PAY CONFIG - Resolved payday settings
// =============================================================================

// PayConfig is a salary profile's payday configuration with defaults applied.
// Resolving once keeps the fallback logic in a single visible place instead of
// scattered through the date math.
type PayConfig struct {
	Rule              finance.PaydayRule
	FixedDay          int
	WeekdayPreference int
}

// ResolvePayConfig normalizes a profile's payday settings:
//   - nil profile, unrecognized rule        → last_working_day
//   - fixed_day without a usable FixedDay   → last_working_day
//   - nth_weekday                           → kept, but resolves identically to
//     last_working_day until an nth-weekday algorithm exists
func ResolvePayConfig(p *finance.SalaryProfile) PayConfig {
	if p == nil {
		return PayConfig{Rule: finance.RuleLastWorkingDay}
	}
	cfg := PayConfig{
		Rule:              p.PaydayRule,
		FixedDay:          p.FixedDay,
		WeekdayPreference: p.WeekdayPreference,
	}
	switch p.PaydayRule {
	case finance.RuleFixedDay:
		if p.FixedDay < 1 {
			cfg.Rule = finance.RuleLastWorkingDay
		}
	case finance.RuleLastWorkingDay, finance.RuleNthWeekday:
		// keep as-is
	default:
		cfg.Rule = finance.RuleLastWorkingDay
	}
	return cfg
}

// =============================================================================
// WORKING-DAY RESOLVER
// =============================================================================

// LastWorkingDay returns the latest day of the month that is not a Saturday
// or Sunday, walking backward from the last calendar day.
func LastWorkingDay(year int, month time.Month) time.Time {
	d := time.Date(year, month, lastDayOfMonth(year, month), 0, 0, 0, 0, time.Local)
	return previousWeekdayOrSelf(d)
}

// PaydayFor computes the payday for a month under this configuration.
//
// fixed_day: min(FixedDay, last day of month), shifted backward off weekends.
// The shift can cross into the previous month when the month starts on a
// weekend (e.g. FixedDay=1 on a Sunday resolves to the prior Friday).
//
// nth_weekday currently resolves to the last working day regardless of
// WeekdayPreference.
func (c PayConfig) PaydayFor(year int, month time.Month) time.Time {
	switch c.Rule {
	case finance.RuleFixedDay:
		if c.FixedDay >= 1 {
			day := c.FixedDay
			if last := lastDayOfMonth(year, month); day > last {
				day = last
			}
			d := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
			return previousWeekdayOrSelf(d)
		}
		return LastWorkingDay(year, month)
	default:
		// last_working_day, nth_weekday, and anything unrecognized.
		return LastWorkingDay(year, month)
	}
}

// =============================================================================
// DATE HELPERS
// =============================================================================

func lastDayOfMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.Local).Day()
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// previousWeekdayOrSelf walks backward one day at a time until t is not a
// Saturday or Sunday.
func previousWeekdayOrSelf(t time.Time) time.Time {
	for isWeekend(t) {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

// monthAfter and monthBefore roll (year, month) over year boundaries.
func monthAfter(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}

func monthBefore(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}

// midnight truncates a time to its local calendar day.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}
