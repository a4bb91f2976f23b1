/*
cycle.go - Financial-month window calculation

PURPOSE:
  Derives the household's current and next "financial month": a month-long
  window anchored to payday (or a fixed calendar day) rather than the
  calendar month. Budget and spending aggregation run over these windows.

DECISION TREE (CurrentCycle):
  1. No profile, or inactive profile  → plain calendar month
  2. Cycle start rule "fixed_day"     → window between two fixed-day starts
  3. Cycle start rule "salary_day"    → anchored on the last known pay date,
     falling back to rule-derived paydays when history is missing or stale

BOUNDARY SEMANTICS:
  Whole-second resolution, local wall-clock. End is always exactly one
  second before the following window's Start: consecutive cycles neither
  gap nor overlap. NextCycle re-derives boundaries from
  CurrentCycle(...).End + 1s using the same rule branches.

SEE ALSO:
  - payday.go: PayConfig and the per-month payday resolver
  - finance: SalaryProfile and SalaryCycle inputs
*/
package schedule

import (
	"time"

	"github.com/hearth/finance-engine/finance"
)

// =============================================================================
// CYCLE WINDOW
// =============================================================================

// CycleWindow is one financial month.
type CycleWindow struct {
	Start time.Time
	End   time.Time

	// Label is "January 2006" when Start and End share a calendar month,
	// otherwise "Jan 25 - Feb 24".
	Label string

	// IsSalaryCycle is false only for the calendar-month fallback.
	IsSalaryCycle bool
}

// Contains reports whether t falls inside the window [Start, End].
func (w CycleWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// =============================================================================
// CURRENT / NEXT CYCLE
// =============================================================================

// CurrentCycle returns the financial-month window containing now.
//
// last is the most recent recorded salary cycle and may be nil. A stale
// cycle record (now outside the window it implies) triggers the rule-derived
// fallback rather than an error.
func CurrentCycle(profile *finance.SalaryProfile, last *finance.SalaryCycle, now time.Time) CycleWindow {
	if profile == nil || !profile.IsActive {
		return calendarMonthWindow(now)
	}

	switch profile.MonthCycleStartRule {
	case finance.CycleStartFixedDay:
		if profile.MonthCycleStartDay < 1 {
			// Misconfigured: required day missing. Degrade gracefully.
			return calendarMonthWindow(now)
		}
		return fixedDayWindow(profile.MonthCycleStartDay, now)

	case finance.CycleStartSalaryDay:
		return salaryDayWindow(ResolvePayConfig(profile), last, now)

	default:
		// Unset or unrecognized start rule: calendar month.
		return calendarMonthWindow(now)
	}
}

// NextCycle returns the cycle immediately following the current one:
// boundaries are re-derived with the current cycle's End + 1s as the anchor,
// through the same rule branches as CurrentCycle.
func NextCycle(profile *finance.SalaryProfile, last *finance.SalaryCycle, now time.Time) CycleWindow {
	current := CurrentCycle(profile, last, now)
	anchor := current.End.Add(time.Second)

	if profile == nil || !profile.IsActive {
		return calendarMonthWindow(anchor)
	}

	switch profile.MonthCycleStartRule {
	case finance.CycleStartFixedDay:
		if profile.MonthCycleStartDay < 1 {
			return calendarMonthWindow(anchor)
		}
		return fixedDayWindow(profile.MonthCycleStartDay, anchor)

	case finance.CycleStartSalaryDay:
		// The anchor IS the next cycle's start, so the payday-bracketing
		// fallback resolves it directly; the recorded history only anchors
		// the current cycle.
		return salaryDayWindow(ResolvePayConfig(profile), nil, anchor)

	default:
		return calendarMonthWindow(anchor)
	}
}

// =============================================================================
// WINDOW BRANCHES
// =============================================================================

// calendarMonthWindow is the fallback: [1st 00:00:00, last day 23:59:59].
func calendarMonthWindow(now time.Time) CycleWindow {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
	end := time.Date(now.Year(), now.Month(), lastDayOfMonth(now.Year(), now.Month()), 23, 59, 59, 0, time.Local)
	return newWindow(start, end, false)
}

// fixedDayWindow computes the window between two fixed-day month starts.
// The start day is clamped to each month's length; the clamped day is also
// what now is compared against, so a day-31 rule still contains Feb 28.
func fixedDayWindow(startDay int, now time.Time) CycleWindow {
	start := fixedDayStart(startDay, now.Year(), now.Month())
	if now.Day() < start.Day() {
		py, pm := monthBefore(now.Year(), now.Month())
		start = fixedDayStart(startDay, py, pm)
	}
	ny, nm := monthAfter(start.Year(), start.Month())
	next := fixedDayStart(startDay, ny, nm)
	return newWindow(start, next.Add(-time.Second), true)
}

func fixedDayStart(day, year int, month time.Month) time.Time {
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.Local)
}

// salaryDayWindow anchors the window on the last known pay date when that
// history is present and current, and otherwise brackets now between
// rule-derived paydays.
func salaryDayWindow(cfg PayConfig, last *finance.SalaryCycle, now time.Time) CycleWindow {
	if last != nil {
		if lastPay := last.PayDate(); !lastPay.IsZero() {
			start := midnight(lastPay)
			ny, nm := monthAfter(lastPay.Year(), lastPay.Month())
			next := midnight(cfg.PaydayFor(ny, nm))
			if !now.Before(start) && now.Before(next) {
				return newWindow(start, next.Add(-time.Second), true)
			}
			// History is stale (or in the future): fall through to the
			// rule-derived bracket below.
		}
	}

	thisPayday := midnight(cfg.PaydayFor(now.Year(), now.Month()))
	if !now.Before(thisPayday) {
		ny, nm := monthAfter(now.Year(), now.Month())
		next := midnight(cfg.PaydayFor(ny, nm))
		if now.Before(next) {
			return newWindow(thisPayday, next.Add(-time.Second), true)
		}
		// The next month's payday walked back across the month boundary to
		// a day at or before now (a fixed_day=1 month starting on a weekend
		// resolves to the prior Friday). That payday has already opened the
		// following window, so bracket from it instead.
		ay, am := monthAfter(ny, nm)
		after := midnight(cfg.PaydayFor(ay, am))
		return newWindow(next, after.Add(-time.Second), true)
	}
	py, pm := monthBefore(now.Year(), now.Month())
	prev := midnight(cfg.PaydayFor(py, pm))
	return newWindow(prev, thisPayday.Add(-time.Second), true)
}

// =============================================================================
// LABELS
// =============================================================================

func newWindow(start, end time.Time, isSalary bool) CycleWindow {
	return CycleWindow{
		Start:         start,
		End:           end,
		Label:         windowLabel(start, end),
		IsSalaryCycle: isSalary,
	}
}

func windowLabel(start, end time.Time) string {
	if start.Month() == end.Month() && start.Year() == end.Year() {
		return start.Format("January 2006")
	}
	return start.Format("Jan 2") + " - " + end.Format("Jan 2")
}
