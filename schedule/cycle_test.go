package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hearth/finance-engine/finance"
	"github.com/hearth/finance-engine/schedule"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

func salaryDayProfile() *finance.SalaryProfile {
	return &finance.SalaryProfile{
		ID:                  "profile-test",
		PaydayRule:          finance.RuleLastWorkingDay,
		MonthCycleStartRule: finance.CycleStartSalaryDay,
		IsActive:            true,
	}
}

func fixedDayCycleProfile(day int) *finance.SalaryProfile {
	return &finance.SalaryProfile{
		ID:                  "profile-test",
		PaydayRule:          finance.RuleLastWorkingDay,
		MonthCycleStartRule: finance.CycleStartFixedDay,
		MonthCycleStartDay:  day,
		IsActive:            true,
	}
}

func recordedCycle(payDate time.Time) *finance.SalaryCycle {
	return &finance.SalaryCycle{
		ID:              "cycle-test",
		SalaryProfileID: "profile-test",
		Month:           payDate.Month(),
		Year:            payDate.Year(),
		ExpectedPayDate: payDate,
		ActualPayDate:   &payDate,
	}
}

func endOfDay(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 23, 59, 59, 0, time.Local)
}

// =============================================================================
// CALENDAR-MONTH FALLBACK
// =============================================================================

func TestCurrentCycle_NoProfile_CalendarMonth(t *testing.T) {
	now := date(2025, time.April, 15)

	w := schedule.CurrentCycle(nil, nil, now)

	assert.Equal(t, date(2025, time.April, 1), w.Start)
	assert.Equal(t, endOfDay(2025, time.April, 30), w.End)
	assert.Equal(t, "April 2025", w.Label)
	assert.False(t, w.IsSalaryCycle)
}

func TestCurrentCycle_InactiveProfile_CalendarMonth(t *testing.T) {
	profile := salaryDayProfile()
	profile.IsActive = false

	w := schedule.CurrentCycle(profile, nil, date(2025, time.April, 15))

	assert.False(t, w.IsSalaryCycle)
	assert.Equal(t, date(2025, time.April, 1), w.Start)
}

func TestCurrentCycle_UnknownStartRule_CalendarMonth(t *testing.T) {
	profile := salaryDayProfile()
	profile.MonthCycleStartRule = finance.CycleStartRule("lunar_month")

	w := schedule.CurrentCycle(profile, nil, date(2025, time.April, 15))

	assert.False(t, w.IsSalaryCycle)
}

// =============================================================================
// FIXED-DAY CYCLES
// =============================================================================

func TestCurrentCycle_FixedDay_BeforeStartDay(t *testing.T) {
	// Rule: cycles start on the 25th. On Mar 10 we are still inside the
	// cycle that began Feb 25.
	w := schedule.CurrentCycle(fixedDayCycleProfile(25), nil, date(2025, time.March, 10))

	assert.Equal(t, date(2025, time.February, 25), w.Start)
	assert.Equal(t, endOfDay(2025, time.March, 24), w.End)
	assert.Equal(t, "Feb 25 - Mar 24", w.Label)
	assert.True(t, w.IsSalaryCycle)
}

func TestCurrentCycle_FixedDay_OnStartDay(t *testing.T) {
	w := schedule.CurrentCycle(fixedDayCycleProfile(25), nil, date(2025, time.March, 25))

	assert.Equal(t, date(2025, time.March, 25), w.Start)
	assert.Equal(t, endOfDay(2025, time.April, 24), w.End)
}

func TestCurrentCycle_FixedDay31_ClampsToShortMonth(t *testing.T) {
	// Day 31 clamps to Feb 28, and Feb 28 itself must fall inside the
	// window that starts there, not the one that began Jan 31.
	w := schedule.CurrentCycle(fixedDayCycleProfile(31), nil, date(2025, time.February, 28))

	assert.Equal(t, date(2025, time.February, 28), w.Start)
	assert.Equal(t, endOfDay(2025, time.March, 30), w.End)
	assert.True(t, w.Contains(date(2025, time.February, 28)))
}

func TestCurrentCycle_FixedDayWithoutDay_CalendarMonth(t *testing.T) {
	w := schedule.CurrentCycle(fixedDayCycleProfile(0), nil, date(2025, time.March, 10))

	assert.False(t, w.IsSalaryCycle)
	assert.Equal(t, date(2025, time.March, 1), w.Start)
}

// =============================================================================
// SALARY-DAY CYCLES
// =============================================================================

func TestCurrentCycle_SalaryDay_AnchoredOnRecordedPayDate(t *testing.T) {
	// GIVEN January's salary landed on Jan 31 (last working day)
	last := recordedCycle(date(2025, time.January, 31))

	// WHEN we ask for the cycle on Feb 10
	w := schedule.CurrentCycle(salaryDayProfile(), last, date(2025, time.February, 10))

	// THEN the window runs payday to payday: Jan 31 through the second
	// before February's payday (Feb 28).
	assert.Equal(t, date(2025, time.January, 31), w.Start)
	assert.Equal(t, endOfDay(2025, time.February, 27), w.End)
	assert.Equal(t, "Jan 31 - Feb 27", w.Label)
	assert.True(t, w.IsSalaryCycle)
}

func TestCurrentCycle_SalaryDay_StaleHistoryFallsBackToRule(t *testing.T) {
	// GIVEN the last recorded cycle is months old
	last := recordedCycle(date(2024, time.October, 31))

	// WHEN we ask for the cycle on Feb 10 2025
	w := schedule.CurrentCycle(salaryDayProfile(), last, date(2025, time.February, 10))

	// THEN history is ignored and the window is bracketed by rule-derived
	// paydays instead.
	assert.Equal(t, date(2025, time.January, 31), w.Start)
	assert.Equal(t, endOfDay(2025, time.February, 27), w.End)
}

func TestCurrentCycle_SalaryDay_NoHistory_BeforePayday(t *testing.T) {
	w := schedule.CurrentCycle(salaryDayProfile(), nil, date(2025, time.February, 10))

	assert.Equal(t, date(2025, time.January, 31), w.Start)
	assert.Equal(t, endOfDay(2025, time.February, 27), w.End)
}

func TestCurrentCycle_SalaryDay_NoHistory_OnPayday(t *testing.T) {
	// On payday itself a new cycle begins.
	w := schedule.CurrentCycle(salaryDayProfile(), nil, date(2025, time.February, 28))

	assert.Equal(t, date(2025, time.February, 28), w.Start)
	assert.Equal(t, endOfDay(2025, time.March, 30), w.End)
}

func TestCurrentCycle_SalaryDay_ContainsNow(t *testing.T) {
	// Whatever branch resolves the window, now must be inside it.
	profile := salaryDayProfile()
	for day := 1; day <= 28; day++ {
		now := date(2025, time.February, day)
		w := schedule.CurrentCycle(profile, nil, now)
		assert.True(t, w.Contains(now), "Feb %d not contained in [%s, %s]", day, w.Start, w.End)
	}
}

func TestCurrentCycle_SalaryDay_NextPaydayWalksBackAcrossMonthBoundary(t *testing.T) {
	// GIVEN payday is the 1st and cycles start on payday. Oct 1 2023 is a
	// Sunday, so October's payday walks back to Friday Sep 29: that payday
	// opens the next window while the calendar month is still September.
	profile := &finance.SalaryProfile{
		ID:                  "profile-test",
		PaydayRule:          finance.RuleFixedDay,
		FixedDay:            1,
		MonthCycleStartRule: finance.CycleStartSalaryDay,
		IsActive:            true,
	}

	// WHEN we ask for the cycle on Sep 30, the day after the walked-back payday
	now := date(2023, time.September, 30)
	w := schedule.CurrentCycle(profile, nil, now)

	// THEN the window starts on the walked-back payday and runs up to
	// November's payday (Nov 1 2023 is a Wednesday).
	assert.Equal(t, date(2023, time.September, 29), w.Start)
	assert.Equal(t, endOfDay(2023, time.October, 31), w.End)
	assert.True(t, w.Contains(now), "the current cycle must contain now")

	// AND on the walked-back payday itself the same window applies.
	onPayday := schedule.CurrentCycle(profile, nil, date(2023, time.September, 29))
	assert.Equal(t, w.Start, onPayday.Start)
	assert.Equal(t, w.End, onPayday.End)

	// AND the following cycle starts exactly one second later.
	next := schedule.NextCycle(profile, nil, now)
	assert.Equal(t, w.End.Add(time.Second), next.Start, "cycles must neither gap nor overlap")
	assert.Equal(t, date(2023, time.November, 1), next.Start)
	assert.Equal(t, endOfDay(2023, time.November, 30), next.End)
}

// =============================================================================
// NEXT CYCLE
// =============================================================================

func TestNextCycle_SalaryDay_StartsOneSecondAfterCurrentEnd(t *testing.T) {
	last := recordedCycle(date(2025, time.January, 31))
	now := date(2025, time.February, 10)

	current := schedule.CurrentCycle(salaryDayProfile(), last, now)
	next := schedule.NextCycle(salaryDayProfile(), last, now)

	assert.Equal(t, current.End.Add(time.Second), next.Start, "cycles must neither gap nor overlap")
	assert.Equal(t, date(2025, time.February, 28), next.Start)
	assert.Equal(t, endOfDay(2025, time.March, 30), next.End)
}

func TestNextCycle_FixedDay_Adjacency(t *testing.T) {
	now := date(2025, time.March, 10)

	current := schedule.CurrentCycle(fixedDayCycleProfile(25), nil, now)
	next := schedule.NextCycle(fixedDayCycleProfile(25), nil, now)

	assert.Equal(t, current.End.Add(time.Second), next.Start)
	assert.Equal(t, date(2025, time.March, 25), next.Start)
	assert.Equal(t, endOfDay(2025, time.April, 24), next.End)
}

func TestNextCycle_NoProfile_NextCalendarMonth(t *testing.T) {
	next := schedule.NextCycle(nil, nil, date(2025, time.April, 15))

	assert.Equal(t, date(2025, time.May, 1), next.Start)
	assert.Equal(t, endOfDay(2025, time.May, 31), next.End)
	assert.Equal(t, "May 2025", next.Label)
	assert.False(t, next.IsSalaryCycle)
}

func TestNextCycle_YearRollover(t *testing.T) {
	next := schedule.NextCycle(nil, nil, date(2025, time.December, 20))

	assert.Equal(t, date(2026, time.January, 1), next.Start)
	assert.Equal(t, endOfDay(2026, time.January, 31), next.End)
}

// =============================================================================
// WINDOW CONTAINS
// =============================================================================

func TestCycleWindow_Contains_InclusiveBounds(t *testing.T) {
	w := schedule.CurrentCycle(nil, nil, date(2025, time.April, 15))

	assert.True(t, w.Contains(w.Start))
	assert.True(t, w.Contains(w.End))
	assert.False(t, w.Contains(w.Start.Add(-time.Second)))
	assert.False(t, w.Contains(w.End.Add(time.Second)))
}
