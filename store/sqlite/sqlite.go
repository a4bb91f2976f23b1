/*
Package sqlite provides a SQLite-backed implementation of finance.Store.

PURPOSE:
  Production persistence for salary profiles, salary cycles, scheduled
  payments, and payment occurrences. The same patterns apply to PostgreSQL,
  with only minor SQL dialect differences.

UNIQUENESS ENFORCEMENT:
  The two idempotency invariants live in the schema, so concurrent
  generation cannot race past an application-level existence check:

    idx_unique_occurrence: UNIQUE(scheduled_payment_id, month, year)
    idx_unique_cycle:      UNIQUE(salary_profile_id, month, year)

  Violations map to finance.ErrDuplicateOccurrence / ErrDuplicateCycle.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - finance/store.go: Interface definitions
  - finance/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/hearth/finance-engine/finance"
)

// Store implements finance.Store using SQLite.
type Store struct {
	db *sql.DB
}

// Compile-time check that Store implements finance.Store.
var _ finance.Store = (*Store)(nil)

// New creates a SQLite store at dbPath. Use ":memory:" for an in-memory
// database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS salary_profiles (
		id TEXT PRIMARY KEY,
		payday_rule TEXT NOT NULL,
		fixed_day INTEGER NOT NULL DEFAULT 0,
		weekday_preference INTEGER NOT NULL DEFAULT 0,
		month_cycle_start_rule TEXT NOT NULL,
		month_cycle_start_day INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		expected_amount TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS salary_cycles (
		id TEXT PRIMARY KEY,
		salary_profile_id TEXT NOT NULL,
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		expected_pay_date TEXT NOT NULL,
		actual_pay_date TEXT,
		expected_amount TEXT NOT NULL DEFAULT '0',
		actual_amount TEXT,
		transaction_id TEXT,
		created_at TEXT NOT NULL
	);

	-- One recorded pay event per profile and month.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_cycle
		ON salary_cycles(salary_profile_id, month, year);
	CREATE INDEX IF NOT EXISTS idx_cycles_profile
		ON salary_cycles(salary_profile_id, year DESC, month DESC);

	CREATE TABLE IF NOT EXISTS scheduled_payments (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		amount TEXT NOT NULL DEFAULT '0',
		due_day INTEGER NOT NULL,
		frequency TEXT NOT NULL,
		start_month INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'active',
		category_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_status
		ON scheduled_payments(status);

	CREATE TABLE IF NOT EXISTS payment_occurrences (
		id TEXT PRIMARY KEY,
		scheduled_payment_id TEXT NOT NULL,
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		due_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		paid_at TEXT,
		affect_transaction INTEGER NOT NULL DEFAULT 0,
		affect_account_balance INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: regeneration idempotency. A payment gets at most one
	-- occurrence per month; concurrent expansions collide here instead of
	-- inserting duplicates.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_occurrence
		ON payment_occurrences(scheduled_payment_id, month, year);
	CREATE INDEX IF NOT EXISTS idx_occurrences_period
		ON payment_occurrences(year, month);
	CREATE INDEX IF NOT EXISTS idx_occurrences_payment
		ON payment_occurrences(scheduled_payment_id, year, month);
	`

	_, err := s.db.Exec(schema)
	return err
}

const dateLayout = time.RFC3339

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// =============================================================================
// PROFILES
// =============================================================================

func (s *Store) SaveProfile(ctx context.Context, p finance.SalaryProfile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO salary_profiles
			(id, payday_rule, fixed_day, weekday_preference,
			 month_cycle_start_rule, month_cycle_start_day, is_active,
			 expected_amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			payday_rule = excluded.payday_rule,
			fixed_day = excluded.fixed_day,
			weekday_preference = excluded.weekday_preference,
			month_cycle_start_rule = excluded.month_cycle_start_rule,
			month_cycle_start_day = excluded.month_cycle_start_day,
			is_active = excluded.is_active,
			expected_amount = excluded.expected_amount`,
		p.ID, string(p.PaydayRule), p.FixedDay, p.WeekdayPreference,
		string(p.MonthCycleStartRule), p.MonthCycleStartDay, boolToInt(p.IsActive),
		p.ExpectedAmount.String(), p.CreatedAt.Format(dateLayout))
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *Store) ActiveProfile(ctx context.Context) (*finance.SalaryProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, payday_rule, fixed_day, weekday_preference,
		       month_cycle_start_rule, month_cycle_start_day, is_active,
		       expected_amount, created_at
		FROM salary_profiles
		WHERE is_active = 1
		ORDER BY created_at DESC
		LIMIT 1`)

	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil // no profile yet: calendar-month fallback, not an error
	}
	if err != nil {
		return nil, fmt.Errorf("load active profile: %w", err)
	}
	return p, nil
}

func scanProfile(row *sql.Row) (*finance.SalaryProfile, error) {
	var p finance.SalaryProfile
	var rule, cycleRule, amount, createdAt string
	var active int
	err := row.Scan(&p.ID, &rule, &p.FixedDay, &p.WeekdayPreference,
		&cycleRule, &p.MonthCycleStartDay, &active, &amount, &createdAt)
	if err != nil {
		return nil, err
	}
	p.PaydayRule = finance.PaydayRule(rule)
	p.MonthCycleStartRule = finance.CycleStartRule(cycleRule)
	p.IsActive = active != 0
	p.ExpectedAmount = parseDecimal(amount)
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

// =============================================================================
// CYCLES
// =============================================================================

func (s *Store) CreateCycle(ctx context.Context, c finance.SalaryCycle) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO salary_cycles
			(id, salary_profile_id, month, year, expected_pay_date,
			 actual_pay_date, expected_amount, actual_amount, transaction_id,
			 created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.SalaryProfileID, int(c.Month), c.Year,
		c.ExpectedPayDate.Format(dateLayout),
		formatTimePtr(c.ActualPayDate),
		c.ExpectedAmount.String(),
		formatDecimalPtr(c.ActualAmount),
		nullString(c.TransactionID),
		c.CreatedAt.Format(dateLayout))
	if isUniqueViolation(err) {
		return finance.ErrDuplicateCycle
	}
	if err != nil {
		return fmt.Errorf("create cycle: %w", err)
	}
	return nil
}

func (s *Store) UpdateCycle(ctx context.Context, c finance.SalaryCycle) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE salary_cycles SET
			expected_pay_date = ?,
			actual_pay_date = ?,
			expected_amount = ?,
			actual_amount = ?,
			transaction_id = ?
		WHERE id = ?`,
		c.ExpectedPayDate.Format(dateLayout),
		formatTimePtr(c.ActualPayDate),
		c.ExpectedAmount.String(),
		formatDecimalPtr(c.ActualAmount),
		nullString(c.TransactionID),
		c.ID)
	if err != nil {
		return fmt.Errorf("update cycle: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return finance.ErrNotFound
	}
	return nil
}

const cycleColumns = `id, salary_profile_id, month, year, expected_pay_date,
	actual_pay_date, expected_amount, actual_amount, transaction_id, created_at`

func (s *Store) LatestCycle(ctx context.Context, profileID string) (*finance.SalaryCycle, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+cycleColumns+`
		FROM salary_cycles
		WHERE salary_profile_id = ?
		ORDER BY year DESC, month DESC
		LIMIT 1`, profileID)

	c, err := scanCycle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load latest cycle: %w", err)
	}
	return c, nil
}

func (s *Store) CycleFor(ctx context.Context, profileID string, month time.Month, year int) (*finance.SalaryCycle, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+cycleColumns+`
		FROM salary_cycles
		WHERE salary_profile_id = ? AND month = ? AND year = ?`,
		profileID, int(month), year)

	c, err := scanCycle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cycle: %w", err)
	}
	return c, nil
}

func scanCycle(row *sql.Row) (*finance.SalaryCycle, error) {
	var c finance.SalaryCycle
	var month int
	var expectedPay, expectedAmount, createdAt string
	var actualPay, actualAmount, txID sql.NullString
	err := row.Scan(&c.ID, &c.SalaryProfileID, &month, &c.Year,
		&expectedPay, &actualPay, &expectedAmount, &actualAmount, &txID, &createdAt)
	if err != nil {
		return nil, err
	}
	c.Month = time.Month(month)
	c.ExpectedPayDate = parseTime(expectedPay)
	if actualPay.Valid {
		t := parseTime(actualPay.String)
		c.ActualPayDate = &t
	}
	c.ExpectedAmount = parseDecimal(expectedAmount)
	if actualAmount.Valid {
		d := parseDecimal(actualAmount.String)
		c.ActualAmount = &d
	}
	c.TransactionID = txID.String
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}

// =============================================================================
// SCHEDULED PAYMENTS
// =============================================================================

func (s *Store) SavePayment(ctx context.Context, p finance.ScheduledPayment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scheduled_payments
			(id, name, amount, due_day, frequency, start_month, status,
			 category_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			amount = excluded.amount,
			due_day = excluded.due_day,
			frequency = excluded.frequency,
			start_month = excluded.start_month,
			status = excluded.status,
			category_id = excluded.category_id`,
		p.ID, p.Name, p.Amount.String(), p.DueDay, string(p.Frequency),
		int(p.StartMonth), string(p.Status), nullString(p.CategoryID),
		p.CreatedAt.Format(dateLayout))
	if err != nil {
		return fmt.Errorf("save payment: %w", err)
	}
	return nil
}

func (s *Store) GetPayment(ctx context.Context, id string) (*finance.ScheduledPayment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, amount, due_day, frequency, start_month, status,
		       category_id, created_at
		FROM scheduled_payments WHERE id = ?`, id)

	p, err := scanPaymentRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, finance.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load payment: %w", err)
	}
	return p, nil
}

func (s *Store) ListPayments(ctx context.Context, onlyActive bool) ([]finance.ScheduledPayment, error) {
	query := `
		SELECT id, name, amount, due_day, frequency, start_month, status,
		       category_id, created_at
		FROM scheduled_payments`
	if onlyActive {
		query += ` WHERE status = 'active'`
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var result []finance.ScheduledPayment
	for rows.Next() {
		p, err := scanPaymentRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func scanPaymentRow(scan func(...any) error) (*finance.ScheduledPayment, error) {
	var p finance.ScheduledPayment
	var amount, freq, status, createdAt string
	var startMonth int
	var categoryID sql.NullString
	err := scan(&p.ID, &p.Name, &amount, &p.DueDay, &freq, &startMonth,
		&status, &categoryID, &createdAt)
	if err != nil {
		return nil, err
	}
	p.Amount = parseDecimal(amount)
	p.Frequency = finance.Frequency(freq)
	p.StartMonth = time.Month(startMonth)
	p.Status = finance.PaymentStatus(status)
	p.CategoryID = categoryID.String
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

// =============================================================================
// OCCURRENCES
// =============================================================================

func (s *Store) CreateOccurrence(ctx context.Context, o finance.PaymentOccurrence) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payment_occurrences
			(id, scheduled_payment_id, month, year, due_date, status, paid_at,
			 affect_transaction, affect_account_balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.ScheduledPaymentID, int(o.Month), o.Year,
		o.DueDate.Format(dateLayout), string(o.Status),
		formatTimePtr(o.PaidAt),
		boolToInt(o.AffectTransaction), boolToInt(o.AffectAccountBalance),
		o.CreatedAt.Format(dateLayout))
	if isUniqueViolation(err) {
		return finance.ErrDuplicateOccurrence
	}
	if err != nil {
		return fmt.Errorf("create occurrence: %w", err)
	}
	return nil
}

const occurrenceColumns = `id, scheduled_payment_id, month, year, due_date,
	status, paid_at, affect_transaction, affect_account_balance, created_at`

func (s *Store) GetOccurrence(ctx context.Context, id string) (*finance.PaymentOccurrence, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+occurrenceColumns+` FROM payment_occurrences WHERE id = ?`, id)

	o, err := scanOccurrenceRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, finance.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load occurrence: %w", err)
	}
	return o, nil
}

func (s *Store) OccurrencesFor(ctx context.Context, month time.Month, year int) ([]finance.PaymentOccurrence, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+occurrenceColumns+`
		FROM payment_occurrences
		WHERE month = ? AND year = ?
		ORDER BY due_date, id`, int(month), year)
	if err != nil {
		return nil, fmt.Errorf("list occurrences: %w", err)
	}
	defer rows.Close()
	return collectOccurrences(rows)
}

func (s *Store) OccurrencesByPayment(ctx context.Context, paymentID string) ([]finance.PaymentOccurrence, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+occurrenceColumns+`
		FROM payment_occurrences
		WHERE scheduled_payment_id = ?
		ORDER BY year, month`, paymentID)
	if err != nil {
		return nil, fmt.Errorf("list occurrences by payment: %w", err)
	}
	defer rows.Close()
	return collectOccurrences(rows)
}

func (s *Store) SetOccurrenceStatus(ctx context.Context, id string, status finance.OccurrenceStatus, paidAt *time.Time) error {
	if status != finance.OccurrencePaid {
		paidAt = nil
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE payment_occurrences SET status = ?, paid_at = ? WHERE id = ?`,
		string(status), formatTimePtr(paidAt), id)
	if err != nil {
		return fmt.Errorf("set occurrence status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return finance.ErrNotFound
	}
	return nil
}

func collectOccurrences(rows *sql.Rows) ([]finance.PaymentOccurrence, error) {
	var result []finance.PaymentOccurrence
	for rows.Next() {
		o, err := scanOccurrenceRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan occurrence: %w", err)
		}
		result = append(result, *o)
	}
	return result, rows.Err()
}

func scanOccurrenceRow(scan func(...any) error) (*finance.PaymentOccurrence, error) {
	var o finance.PaymentOccurrence
	var month, affectTx, affectBal int
	var dueDate, status, createdAt string
	var paidAt sql.NullString
	err := scan(&o.ID, &o.ScheduledPaymentID, &month, &o.Year, &dueDate,
		&status, &paidAt, &affectTx, &affectBal, &createdAt)
	if err != nil {
		return nil, err
	}
	o.Month = time.Month(month)
	o.DueDate = parseTime(dueDate)
	o.Status = finance.OccurrenceStatus(status)
	if paidAt.Valid {
		t := parseTime(paidAt.String)
		o.PaidAt = &t
	}
	o.AffectTransaction = affectTx != 0
	o.AffectAccountBalance = affectBal != 0
	o.CreatedAt = parseTime(createdAt)
	return &o, nil
}

// =============================================================================
// SCAN/FORMAT HELPERS
// =============================================================================

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

func formatDecimalPtr(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func parseTime(s string) time.Time {
	t, _ := time.ParseInLocation(dateLayout, s, time.Local)
	return t
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
