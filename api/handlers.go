/*
handlers.go - HTTP API handlers for the finance engine

PURPOSE:
  Exposes the cycle and recurrence engine via REST API. Handles HTTP
  request/response, JSON serialization, and input validation, then
  delegates to the pure schedule package and persists through
  finance.Store.

ENDPOINTS:
  Profile:
    GET    /api/profile                 Get the active salary profile
    PUT    /api/profile                 Create/update the salary profile

  Cycles:
    GET    /api/cycles/current          Current financial-month window
    GET    /api/cycles/next             Following window
    POST   /api/cycles                  Record a salary cycle

  Paydays:
    GET    /api/paydays/next?count=6    Upcoming paydays
    GET    /api/paydays/past?count=6    Past paydays

  Payments:
    GET    /api/payments                List scheduled payments
    POST   /api/payments                Create a scheduled payment

  Occurrences:
    POST   /api/occurrences/generate    Idempotent month expansion
    GET    /api/occurrences?month=&year= List a month's occurrences
    POST   /api/occurrences/{id}/pay    Mark paid
    POST   /api/occurrences/{id}/unpay  Mark pending again

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (due-day 1-28, month ranges, counts)
  3. Call the schedule engine with an explicit "now"
  4. Persist results / serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Record not found
  - 409: Uniqueness conflict (duplicate cycle)
  - 500: Internal errors
  The engine itself never errors: unknown rules and frequencies resolve to
  documented defaults before computation.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - schedule: The pure computation engine
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/hearth/finance-engine/finance"
	"github.com/hearth/finance-engine/schedule"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// defaultProfileID: the app tracks a single household, so there is one
// profile slot. Multi-profile support would thread an ID through the API.
const defaultProfileID = "profile-default"

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store finance.Store
	Log   *logrus.Logger

	// now is injectable so handler tests can pin the clock. The schedule
	// engine always receives it explicitly.
	now func() time.Time
}

// NewHandler creates a new handler with the given store.
func NewHandler(store finance.Store, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.New()
	}
	return &Handler{Store: store, Log: log, now: time.Now}
}

// =============================================================================
// PROFILE HANDLERS
// =============================================================================

// GetProfile returns the active salary profile, or 404 if none is set.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Store.ActiveProfile(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load profile", err)
		return
	}
	if profile == nil {
		h.writeError(w, http.StatusNotFound, "No salary profile configured", nil)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(*profile))
}

// SaveProfile creates or updates the household salary profile.
// Rule strings are stored as-is: unknown values resolve to documented
// defaults at computation time, so they are not rejected here.
func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var req SaveProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	if req.FixedDay < 0 || req.FixedDay > 31 {
		h.writeError(w, http.StatusBadRequest, "fixed_day must be between 1 and 31", nil)
		return
	}
	if req.MonthCycleStartDay < 0 || req.MonthCycleStartDay > 31 {
		h.writeError(w, http.StatusBadRequest, "month_cycle_start_day must be between 1 and 31", nil)
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	profile := finance.SalaryProfile{
		ID:                  defaultProfileID,
		PaydayRule:          finance.PaydayRule(req.PaydayRule),
		FixedDay:            req.FixedDay,
		WeekdayPreference:   req.WeekdayPreference,
		MonthCycleStartRule: finance.CycleStartRule(req.MonthCycleStartRule),
		MonthCycleStartDay:  req.MonthCycleStartDay,
		IsActive:            active,
		ExpectedAmount:      parseAmount(req.ExpectedAmount),
		CreatedAt:           h.now(),
	}

	if err := h.Store.SaveProfile(r.Context(), profile); err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to save profile", err)
		return
	}

	h.Log.WithFields(logrus.Fields{
		"payday_rule": profile.PaydayRule,
		"cycle_rule":  profile.MonthCycleStartRule,
	}).Info("salary profile saved")

	writeJSON(w, http.StatusOK, toProfileDTO(profile))
}

func toProfileDTO(p finance.SalaryProfile) ProfileDTO {
	return ProfileDTO{
		ID:                  p.ID,
		PaydayRule:          string(p.PaydayRule),
		FixedDay:            p.FixedDay,
		WeekdayPreference:   p.WeekdayPreference,
		MonthCycleStartRule: string(p.MonthCycleStartRule),
		MonthCycleStartDay:  p.MonthCycleStartDay,
		IsActive:            p.IsActive,
		ExpectedAmount:      p.ExpectedAmount.String(),
	}
}

// =============================================================================
// CYCLE HANDLERS
// =============================================================================

// CurrentCycle returns the financial-month window containing now.
func (h *Handler) CurrentCycle(w http.ResponseWriter, r *http.Request) {
	profile, last, err := h.loadCycleInputs(r)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load cycle inputs", err)
		return
	}
	window := schedule.CurrentCycle(profile, last, h.now())
	writeJSON(w, http.StatusOK, toCycleWindowDTO(window))
}

// NextCycle returns the window immediately following the current one.
func (h *Handler) NextCycle(w http.ResponseWriter, r *http.Request) {
	profile, last, err := h.loadCycleInputs(r)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load cycle inputs", err)
		return
	}
	window := schedule.NextCycle(profile, last, h.now())
	writeJSON(w, http.StatusOK, toCycleWindowDTO(window))
}

func (h *Handler) loadCycleInputs(r *http.Request) (*finance.SalaryProfile, *finance.SalaryCycle, error) {
	profile, err := h.Store.ActiveProfile(r.Context())
	if err != nil {
		return nil, nil, err
	}
	if profile == nil {
		return nil, nil, nil
	}
	last, err := h.Store.LatestCycle(r.Context(), profile.ID)
	if err != nil {
		return nil, nil, err
	}
	return profile, last, nil
}

// RecordCycle persists a salary cycle for a month. The expected pay date
// defaults to the profile-rule payday for that month when omitted.
func (h *Handler) RecordCycle(w http.ResponseWriter, r *http.Request) {
	var req RecordCycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	if req.Month < 1 || req.Month > 12 {
		h.writeError(w, http.StatusBadRequest, "month must be between 1 and 12", nil)
		return
	}
	if req.Year < 1 {
		h.writeError(w, http.StatusBadRequest, "year is required", nil)
		return
	}

	profile, err := h.Store.ActiveProfile(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load profile", err)
		return
	}
	if profile == nil {
		h.writeError(w, http.StatusBadRequest, "No salary profile configured", nil)
		return
	}

	month := time.Month(req.Month)
	expected, err := parseISODate(req.ExpectedPayDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "expected_pay_date must be YYYY-MM-DD", err)
		return
	}
	if expected.IsZero() {
		expected = schedule.ResolvePayConfig(profile).PaydayFor(req.Year, month)
	}

	cycle := finance.SalaryCycle{
		ID:              fmt.Sprintf("cycle-%s-%04d-%02d", profile.ID, req.Year, req.Month),
		SalaryProfileID: profile.ID,
		Month:           month,
		Year:            req.Year,
		ExpectedPayDate: expected,
		ExpectedAmount:  parseAmount(req.ExpectedAmount),
		TransactionID:   req.TransactionID,
		CreatedAt:       h.now(),
	}
	if req.ActualPayDate != "" {
		actual, err := parseISODate(req.ActualPayDate)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "actual_pay_date must be YYYY-MM-DD", err)
			return
		}
		cycle.ActualPayDate = &actual
	}
	if req.ActualAmount != "" {
		amt := parseAmount(req.ActualAmount)
		cycle.ActualAmount = &amt
	}

	if err := h.Store.CreateCycle(r.Context(), cycle); err != nil {
		if finance.IsConflict(err) {
			h.writeError(w, http.StatusConflict, "Cycle already recorded for this month", err)
			return
		}
		h.writeError(w, http.StatusInternalServerError, "Failed to record cycle", err)
		return
	}

	writeJSON(w, http.StatusCreated, toCycleDTO(cycle))
}

// =============================================================================
// PAYDAY HANDLERS
// =============================================================================

const (
	defaultPaydayCount = 6
	maxPaydayCount     = 24
)

// NextPaydays returns the upcoming payday sequence.
func (h *Handler) NextPaydays(w http.ResponseWriter, r *http.Request) {
	h.paydaySequence(w, r, schedule.NextPaydays)
}

// PastPaydays returns the past payday sequence.
func (h *Handler) PastPaydays(w http.ResponseWriter, r *http.Request) {
	h.paydaySequence(w, r, schedule.PastPaydays)
}

func (h *Handler) paydaySequence(w http.ResponseWriter, r *http.Request,
	seq func(schedule.PayConfig, int, time.Time) []schedule.PaydayRef) {

	count := defaultPaydayCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPaydayCount {
			h.writeError(w, http.StatusBadRequest,
				fmt.Sprintf("count must be between 1 and %d", maxPaydayCount), nil)
			return
		}
		count = n
	}

	profile, err := h.Store.ActiveProfile(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load profile", err)
		return
	}

	refs := seq(schedule.ResolvePayConfig(profile), count, h.now())
	writeJSON(w, http.StatusOK, toPaydayDTOs(refs))
}

// =============================================================================
// SCHEDULED PAYMENT HANDLERS
// =============================================================================

// paymentSeq disambiguates payment IDs minted within the same clock reading,
// so two creates on the same timestamp never upsert over each other.
var paymentSeq atomic.Int64

func newPaymentID(now time.Time) string {
	return fmt.Sprintf("pay-%d-%d", now.UnixNano(), paymentSeq.Add(1))
}

var validFrequencies = map[finance.Frequency]bool{
	finance.FreqMonthly:    true,
	finance.FreqQuarterly:  true,
	finance.FreqHalfYearly: true,
	finance.FreqYearly:     true,
	finance.FreqOneTime:    true,
}

// ListPayments returns all scheduled payments.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	onlyActive := r.URL.Query().Get("active") == "true"
	payments, err := h.Store.ListPayments(r.Context(), onlyActive)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}
	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePayment creates a scheduled payment. DueDay is restricted to 1-28
// here so every month has that day; the engine still clamps defensively.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	if req.DueDay < 1 || req.DueDay > 28 {
		h.writeError(w, http.StatusBadRequest, "due_day must be between 1 and 28", nil)
		return
	}
	if !validFrequencies[finance.Frequency(req.Frequency)] {
		h.writeError(w, http.StatusBadRequest, "frequency must be one of monthly, quarterly, half_yearly, yearly, one_time", nil)
		return
	}
	if req.StartMonth < 0 || req.StartMonth > 12 {
		h.writeError(w, http.StatusBadRequest, "start_month must be between 1 and 12", nil)
		return
	}

	now := h.now()
	payment := finance.ScheduledPayment{
		ID:         newPaymentID(now),
		Name:       req.Name,
		Amount:     parseAmount(req.Amount),
		DueDay:     req.DueDay,
		Frequency:  finance.Frequency(req.Frequency),
		StartMonth: time.Month(req.StartMonth),
		Status:     finance.PaymentActive,
		CategoryID: req.CategoryID,
		CreatedAt:  now,
	}
	if payment.Frequency == finance.FreqOneTime && payment.StartMonth == 0 {
		// one_time is due in exactly the month it was created for.
		payment.StartMonth = now.Month()
	}

	if err := h.Store.SavePayment(r.Context(), payment); err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to save payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentDTO(payment))
}

// =============================================================================
// OCCURRENCE HANDLERS
// =============================================================================

// GenerateOccurrences expands all active scheduled payments into occurrences
// for one month. Idempotent: rerunning creates nothing new and never touches
// existing statuses. Duplicate inserts from concurrent requests collide on
// the store's unique constraint and are treated as already done.
func (h *Handler) GenerateOccurrences(w http.ResponseWriter, r *http.Request) {
	var req GenerateOccurrencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	if req.Month < 1 || req.Month > 12 {
		h.writeError(w, http.StatusBadRequest, "month must be between 1 and 12", nil)
		return
	}
	if req.Year < 1 {
		h.writeError(w, http.StatusBadRequest, "year is required", nil)
		return
	}
	month := time.Month(req.Month)

	ctx := r.Context()
	payments, err := h.Store.ListPayments(ctx, true)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}

	existing, err := h.Store.OccurrencesFor(ctx, month, req.Year)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load occurrences", err)
		return
	}
	// one_time payments must never fire twice, so their full occurrence
	// history feeds the expansion.
	for _, p := range payments {
		if p.Frequency != finance.FreqOneTime {
			continue
		}
		history, err := h.Store.OccurrencesByPayment(ctx, p.ID)
		if err != nil {
			h.writeError(w, http.StatusInternalServerError, "Failed to load occurrence history", err)
			return
		}
		for _, o := range history {
			if o.Month != month || o.Year != req.Year {
				existing = append(existing, o)
			}
		}
	}

	existingIDs := make(map[string]bool, len(existing))
	for _, o := range existing {
		existingIDs[o.ID] = true
	}

	now := h.now()
	expanded := schedule.ExpandMonth(payments, existing, month, req.Year, now)

	created := 0
	for _, o := range expanded {
		if existingIDs[o.ID] {
			continue // pre-existing occurrence, leave untouched
		}
		err := h.Store.CreateOccurrence(ctx, o)
		if errors.Is(err, finance.ErrDuplicateOccurrence) {
			continue // lost a race to a concurrent expansion; already done
		}
		if err != nil {
			h.writeError(w, http.StatusInternalServerError, "Failed to create occurrence", err)
			return
		}
		created++
	}

	h.Log.WithFields(logrus.Fields{
		"month":   req.Month,
		"year":    req.Year,
		"created": created,
	}).Info("occurrences generated")

	// Re-read for the authoritative post-expansion set.
	all, err := h.Store.OccurrencesFor(ctx, month, req.Year)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load occurrences", err)
		return
	}

	writeJSON(w, http.StatusOK, GenerateOccurrencesResponse{
		Month:       req.Month,
		Year:        req.Year,
		Created:     created,
		Occurrences: toOccurrenceDTOs(all, now),
	})
}

// ListOccurrences returns a month's occurrences with the derived overdue flag.
func (h *Handler) ListOccurrences(w http.ResponseWriter, r *http.Request) {
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		h.writeError(w, http.StatusBadRequest, "month must be between 1 and 12", nil)
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 1 {
		h.writeError(w, http.StatusBadRequest, "year is required", nil)
		return
	}

	occurrences, err := h.Store.OccurrencesFor(r.Context(), time.Month(month), year)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to list occurrences", err)
		return
	}
	writeJSON(w, http.StatusOK, toOccurrenceDTOs(occurrences, h.now()))
}

// PayOccurrence transitions an occurrence to paid.
func (h *Handler) PayOccurrence(w http.ResponseWriter, r *http.Request) {
	h.setOccurrenceStatus(w, r, finance.OccurrencePaid)
}

// UnpayOccurrence transitions an occurrence back to pending.
func (h *Handler) UnpayOccurrence(w http.ResponseWriter, r *http.Request) {
	h.setOccurrenceStatus(w, r, finance.OccurrencePending)
}

func (h *Handler) setOccurrenceStatus(w http.ResponseWriter, r *http.Request, status finance.OccurrenceStatus) {
	id := chi.URLParam(r, "id")

	var paidAt *time.Time
	now := h.now()
	if status == finance.OccurrencePaid {
		paidAt = &now
	}

	err := h.Store.SetOccurrenceStatus(r.Context(), id, status, paidAt)
	if finance.IsNotFound(err) {
		h.writeError(w, http.StatusNotFound, "Occurrence not found", nil)
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to update occurrence", err)
		return
	}

	occurrence, err := h.Store.GetOccurrence(r.Context(), id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load occurrence", err)
		return
	}
	writeJSON(w, http.StatusOK, toOccurrenceDTO(*occurrence, now))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError responds with a stable symbolic code per status class. The
// underlying error goes to the log only; raw error text (SQL messages, wrap
// chains) never reaches clients.
func (h *Handler) writeError(w http.ResponseWriter, status int, msg string, err error) {
	if err != nil {
		h.Log.WithError(err).WithField("status", status).Warn(msg)
	}
	writeJSON(w, status, ErrorResponse{Error: msg, Code: errorCode(status)})
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	default:
		return "internal"
	}
}

func parseAmount(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseISODate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(isoDate, s, time.Local)
}
