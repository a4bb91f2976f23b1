/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Amounts travel as JSON strings ("1499.00") and are parsed with
  shopspring/decimal, never float64.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/hearth/finance-engine/finance"
	"github.com/hearth/finance-engine/schedule"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ProfileDTO represents a salary profile in API responses.
type ProfileDTO struct {
	ID                  string `json:"id"`
	PaydayRule          string `json:"payday_rule"`
	FixedDay            int    `json:"fixed_day,omitempty"`
	WeekdayPreference   int    `json:"weekday_preference,omitempty"`
	MonthCycleStartRule string `json:"month_cycle_start_rule"`
	MonthCycleStartDay  int    `json:"month_cycle_start_day,omitempty"`
	IsActive            bool   `json:"is_active"`
	ExpectedAmount      string `json:"expected_amount"`
}

// SaveProfileRequest is the request to create or update the salary profile.
type SaveProfileRequest struct {
	PaydayRule          string `json:"payday_rule"`
	FixedDay            int    `json:"fixed_day"`
	WeekdayPreference   int    `json:"weekday_preference"`
	MonthCycleStartRule string `json:"month_cycle_start_rule"`
	MonthCycleStartDay  int    `json:"month_cycle_start_day"`
	IsActive            *bool  `json:"is_active,omitempty"` // default true
	ExpectedAmount      string `json:"expected_amount"`
}

// CycleWindowDTO represents a financial-month window.
type CycleWindowDTO struct {
	CycleStart    string `json:"cycle_start"`
	CycleEnd      string `json:"cycle_end"`
	Label         string `json:"label"`
	IsSalaryCycle bool   `json:"is_salary_cycle"`
}

// RecordCycleRequest records a salary cycle for a month.
type RecordCycleRequest struct {
	Month           int    `json:"month"`
	Year            int    `json:"year"`
	ExpectedPayDate string `json:"expected_pay_date"` // ISO date, optional
	ActualPayDate   string `json:"actual_pay_date,omitempty"`
	ExpectedAmount  string `json:"expected_amount"`
	ActualAmount    string `json:"actual_amount,omitempty"`
	TransactionID   string `json:"transaction_id,omitempty"`
}

// CycleDTO represents a recorded salary cycle.
type CycleDTO struct {
	ID              string `json:"id"`
	Month           int    `json:"month"`
	Year            int    `json:"year"`
	ExpectedPayDate string `json:"expected_pay_date"`
	ActualPayDate   string `json:"actual_pay_date,omitempty"`
	ExpectedAmount  string `json:"expected_amount"`
	ActualAmount    string `json:"actual_amount,omitempty"`
	TransactionID   string `json:"transaction_id,omitempty"`
}

// PaydayDTO is one entry in a payday sequence.
type PaydayDTO struct {
	Month int    `json:"month"`
	Year  int    `json:"year"`
	Date  string `json:"date"` // ISO date
}

// PaymentDTO represents a scheduled payment.
type PaymentDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	DueDay     int    `json:"due_day"`
	Frequency  string `json:"frequency"`
	StartMonth int    `json:"start_month,omitempty"`
	Status     string `json:"status"`
	CategoryID string `json:"category_id,omitempty"`
}

// CreatePaymentRequest is the request to create a scheduled payment.
type CreatePaymentRequest struct {
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	DueDay     int    `json:"due_day"`
	Frequency  string `json:"frequency"`
	StartMonth int    `json:"start_month,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
}

// GenerateOccurrencesRequest asks for occurrence expansion of one month.
type GenerateOccurrencesRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// GenerateOccurrencesResponse reports the expansion outcome.
type GenerateOccurrencesResponse struct {
	Month       int             `json:"month"`
	Year        int             `json:"year"`
	Created     int             `json:"created"`
	Occurrences []OccurrenceDTO `json:"occurrences"`
}

// OccurrenceDTO represents a payment occurrence. Overdue is derived from
// status + due date at response time, never stored.
type OccurrenceDTO struct {
	ID                 string `json:"id"`
	ScheduledPaymentID string `json:"scheduled_payment_id"`
	Month              int    `json:"month"`
	Year               int    `json:"year"`
	DueDate            string `json:"due_date"`
	Status             string `json:"status"`
	PaidAt             string `json:"paid_at,omitempty"`
	Overdue            bool   `json:"overdue"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

const isoDate = "2006-01-02"

func toCycleWindowDTO(w schedule.CycleWindow) CycleWindowDTO {
	return CycleWindowDTO{
		CycleStart:    w.Start.Format(time.RFC3339),
		CycleEnd:      w.End.Format(time.RFC3339),
		Label:         w.Label,
		IsSalaryCycle: w.IsSalaryCycle,
	}
}

func toPaydayDTOs(refs []schedule.PaydayRef) []PaydayDTO {
	dtos := make([]PaydayDTO, len(refs))
	for i, r := range refs {
		dtos[i] = PaydayDTO{Month: int(r.Month), Year: r.Year, Date: r.Date.Format(isoDate)}
	}
	return dtos
}

func toPaymentDTO(p finance.ScheduledPayment) PaymentDTO {
	return PaymentDTO{
		ID:         p.ID,
		Name:       p.Name,
		Amount:     p.Amount.String(),
		DueDay:     p.DueDay,
		Frequency:  string(p.Frequency),
		StartMonth: int(p.StartMonth),
		Status:     string(p.Status),
		CategoryID: p.CategoryID,
	}
}

func toOccurrenceDTO(o finance.PaymentOccurrence, now time.Time) OccurrenceDTO {
	dto := OccurrenceDTO{
		ID:                 o.ID,
		ScheduledPaymentID: o.ScheduledPaymentID,
		Month:              int(o.Month),
		Year:               o.Year,
		DueDate:            o.DueDate.Format(isoDate),
		Status:             string(o.Status),
		Overdue:            o.Overdue(now),
	}
	if o.PaidAt != nil {
		dto.PaidAt = o.PaidAt.Format(time.RFC3339)
	}
	return dto
}

func toOccurrenceDTOs(os []finance.PaymentOccurrence, now time.Time) []OccurrenceDTO {
	dtos := make([]OccurrenceDTO, len(os))
	for i, o := range os {
		dtos[i] = toOccurrenceDTO(o, now)
	}
	return dtos
}

func toCycleDTO(c finance.SalaryCycle) CycleDTO {
	dto := CycleDTO{
		ID:              c.ID,
		Month:           int(c.Month),
		Year:            c.Year,
		ExpectedPayDate: c.ExpectedPayDate.Format(isoDate),
		ExpectedAmount:  c.ExpectedAmount.String(),
		TransactionID:   c.TransactionID,
	}
	if c.ActualPayDate != nil {
		dto.ActualPayDate = c.ActualPayDate.Format(isoDate)
	}
	if c.ActualAmount != nil {
		dto.ActualAmount = c.ActualAmount.String()
	}
	return dto
}
