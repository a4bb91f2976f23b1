package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearth/finance-engine/finance"
	"github.com/hearth/finance-engine/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func localDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.Local)
}

// =============================================================================
// PROFILES
// =============================================================================

func TestSQLite_ProfileRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := finance.SalaryProfile{
		ID:                  "profile-default",
		PaydayRule:          finance.RuleFixedDay,
		FixedDay:            25,
		MonthCycleStartRule: finance.CycleStartSalaryDay,
		IsActive:            true,
		ExpectedAmount:      finance.MustParseDecimal("3200.50"),
		CreatedAt:           localDate(2025, time.January, 1),
	}
	require.NoError(t, s.SaveProfile(ctx, p))

	got, err := s.ActiveProfile(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, finance.RuleFixedDay, got.PaydayRule)
	assert.Equal(t, 25, got.FixedDay)
	assert.Equal(t, finance.CycleStartSalaryDay, got.MonthCycleStartRule)
	assert.True(t, got.ExpectedAmount.Equal(p.ExpectedAmount))
	assert.Equal(t, p.CreatedAt, got.CreatedAt)
}

func TestSQLite_SaveProfile_UpsertByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := finance.SalaryProfile{
		ID:                  "profile-default",
		PaydayRule:          finance.RuleLastWorkingDay,
		MonthCycleStartRule: finance.CycleStartSalaryDay,
		IsActive:            true,
		CreatedAt:           localDate(2025, time.January, 1),
	}
	require.NoError(t, s.SaveProfile(ctx, p))

	p.PaydayRule = finance.RuleFixedDay
	p.FixedDay = 28
	require.NoError(t, s.SaveProfile(ctx, p))

	got, err := s.ActiveProfile(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, finance.RuleFixedDay, got.PaydayRule)
	assert.Equal(t, 28, got.FixedDay)
}

func TestSQLite_ActiveProfile_None(t *testing.T) {
	s := newTestStore(t)

	got, err := s.ActiveProfile(context.Background())

	require.NoError(t, err)
	assert.Nil(t, got)
}

// =============================================================================
// CYCLES
// =============================================================================

func TestSQLite_CycleUniqueIndex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := finance.SalaryCycle{
		ID:              "cycle-1",
		SalaryProfileID: "profile-default",
		Month:           time.January,
		Year:            2025,
		ExpectedPayDate: localDate(2025, time.January, 31),
		ExpectedAmount:  finance.MustParseDecimal("3200.00"),
		CreatedAt:       localDate(2025, time.January, 31),
	}
	require.NoError(t, s.CreateCycle(ctx, c))

	c.ID = "cycle-1b"
	err := s.CreateCycle(ctx, c)

	assert.ErrorIs(t, err, finance.ErrDuplicateCycle, "unique index must reject the same (profile, month, year)")
}

func TestSQLite_CycleActualsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	actualDate := localDate(2025, time.January, 30)
	actualAmount := finance.MustParseDecimal("3180.25")
	c := finance.SalaryCycle{
		ID:              "cycle-1",
		SalaryProfileID: "profile-default",
		Month:           time.January,
		Year:            2025,
		ExpectedPayDate: localDate(2025, time.January, 31),
		ActualPayDate:   &actualDate,
		ExpectedAmount:  finance.MustParseDecimal("3200.00"),
		ActualAmount:    &actualAmount,
		TransactionID:   "tx-42",
		CreatedAt:       localDate(2025, time.January, 30),
	}
	require.NoError(t, s.CreateCycle(ctx, c))

	got, err := s.CycleFor(ctx, "profile-default", time.January, 2025)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.ActualPayDate)
	assert.Equal(t, actualDate, *got.ActualPayDate)
	require.NotNil(t, got.ActualAmount)
	assert.True(t, got.ActualAmount.Equal(actualAmount))
	assert.Equal(t, "tx-42", got.TransactionID)
	assert.Equal(t, actualDate, got.PayDate())
}

func TestSQLite_LatestCycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	months := []struct {
		id    string
		month time.Month
		year  int
	}{
		{"cycle-a", time.December, 2024},
		{"cycle-b", time.February, 2025},
		{"cycle-c", time.January, 2025},
	}
	for _, m := range months {
		require.NoError(t, s.CreateCycle(ctx, finance.SalaryCycle{
			ID:              m.id,
			SalaryProfileID: "profile-default",
			Month:           m.month,
			Year:            m.year,
			ExpectedPayDate: localDate(m.year, m.month, 28),
			CreatedAt:       localDate(m.year, m.month, 1),
		}))
	}

	latest, err := s.LatestCycle(ctx, "profile-default")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "cycle-b", latest.ID)

	none, err := s.LatestCycle(ctx, "profile-other")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestSQLite_UpdateCycle_Missing(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateCycle(context.Background(), finance.SalaryCycle{
		ID:              "cycle-ghost",
		ExpectedPayDate: localDate(2025, time.January, 31),
	})

	assert.ErrorIs(t, err, finance.ErrNotFound)
}

// =============================================================================
// PAYMENTS
// =============================================================================

func TestSQLite_PaymentRoundTripAndFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rent := finance.ScheduledPayment{
		ID:         "pay-rent",
		Name:       "Rent",
		Amount:     finance.MustParseDecimal("1250.00"),
		DueDay:     1,
		Frequency:  finance.FreqMonthly,
		Status:     finance.PaymentActive,
		CategoryID: "cat-housing",
		CreatedAt:  localDate(2025, time.January, 1),
	}
	gym := finance.ScheduledPayment{
		ID:        "pay-gym",
		Name:      "Gym",
		Amount:    finance.MustParseDecimal("35.00"),
		DueDay:    5,
		Frequency: finance.FreqMonthly,
		Status:    finance.PaymentInactive,
		CreatedAt: localDate(2025, time.January, 1),
	}
	require.NoError(t, s.SavePayment(ctx, rent))
	require.NoError(t, s.SavePayment(ctx, gym))

	got, err := s.GetPayment(ctx, "pay-rent")
	require.NoError(t, err)
	assert.Equal(t, "Rent", got.Name)
	assert.Equal(t, "cat-housing", got.CategoryID)
	assert.True(t, got.Amount.Equal(rent.Amount))

	active, err := s.ListPayments(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "pay-rent", active[0].ID)

	all, err := s.ListPayments(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLite_GetPayment_Missing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetPayment(context.Background(), "pay-ghost")

	assert.ErrorIs(t, err, finance.ErrNotFound)
}

// =============================================================================
// OCCURRENCES
// =============================================================================

func occurrence(id, paymentID string, month time.Month, year int) finance.PaymentOccurrence {
	return finance.PaymentOccurrence{
		ID:                 id,
		ScheduledPaymentID: paymentID,
		Month:              month,
		Year:               year,
		DueDate:            time.Date(year, month, 10, 0, 0, 0, 0, time.Local),
		Status:             finance.OccurrencePending,
		CreatedAt:          time.Date(year, month, 1, 0, 0, 0, 0, time.Local),
	}
}

func TestSQLite_OccurrenceUniqueIndex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateOccurrence(ctx, occurrence("occ-1", "pay-1", time.June, 2025)))

	err := s.CreateOccurrence(ctx, occurrence("occ-1b", "pay-1", time.June, 2025))

	assert.ErrorIs(t, err, finance.ErrDuplicateOccurrence)
	assert.True(t, finance.IsConflict(err))
}

func TestSQLite_OccurrencesFor_And_ByPayment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateOccurrence(ctx, occurrence("occ-1", "pay-1", time.June, 2025)))
	require.NoError(t, s.CreateOccurrence(ctx, occurrence("occ-2", "pay-2", time.June, 2025)))
	require.NoError(t, s.CreateOccurrence(ctx, occurrence("occ-3", "pay-1", time.July, 2025)))

	june, err := s.OccurrencesFor(ctx, time.June, 2025)
	require.NoError(t, err)
	assert.Len(t, june, 2)

	history, err := s.OccurrencesByPayment(ctx, "pay-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, time.June, history[0].Month)
	assert.Equal(t, time.July, history[1].Month)
}

func TestSQLite_SetOccurrenceStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateOccurrence(ctx, occurrence("occ-1", "pay-1", time.June, 2025)))

	paidAt := time.Date(2025, time.June, 12, 9, 30, 0, 0, time.Local)
	require.NoError(t, s.SetOccurrenceStatus(ctx, "occ-1", finance.OccurrencePaid, &paidAt))

	got, err := s.GetOccurrence(ctx, "occ-1")
	require.NoError(t, err)
	assert.Equal(t, finance.OccurrencePaid, got.Status)
	require.NotNil(t, got.PaidAt)
	assert.Equal(t, paidAt, *got.PaidAt)

	require.NoError(t, s.SetOccurrenceStatus(ctx, "occ-1", finance.OccurrencePending, nil))
	got, err = s.GetOccurrence(ctx, "occ-1")
	require.NoError(t, err)
	assert.Equal(t, finance.OccurrencePending, got.Status)
	assert.Nil(t, got.PaidAt)
}

func TestSQLite_SetOccurrenceStatus_Missing(t *testing.T) {
	s := newTestStore(t)

	err := s.SetOccurrenceStatus(context.Background(), "occ-ghost", finance.OccurrencePaid, nil)

	assert.ErrorIs(t, err, finance.ErrNotFound)
}

func TestSQLite_FlagsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	o := occurrence("occ-1", "pay-1", time.June, 2025)
	o.AffectTransaction = true
	o.AffectAccountBalance = true
	require.NoError(t, s.CreateOccurrence(ctx, o))

	got, err := s.GetOccurrence(ctx, "occ-1")
	require.NoError(t, err)
	assert.True(t, got.AffectTransaction)
	assert.True(t, got.AffectAccountBalance)
}
