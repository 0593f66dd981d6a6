/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

CONVENTIONS:
  - Dates are ISO strings (YYYY-MM-DD)
  - Monetary amounts are strings with exactly two decimal places, never
    floats (the frontend re-parses them with a decimal library)
  - *DTO: response types, *Request: request body types

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - billing/types.go: The domain types these mirror
*/
package api

import (
	"github.com/warp/collections-engine/billing"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ClientDTO represents a client in API responses.
type ClientDTO struct {
	ID                  int64  `json:"id"`
	Name                string `json:"name"`
	Address             string `json:"address,omitempty"`
	Registration        string `json:"registration,omitempty"`
	Phone               string `json:"phone,omitempty"`
	Bank                string `json:"bank,omitempty"`
	DueDay              int    `json:"due_day,omitempty"`
	LateFeeRate         string `json:"late_fee_rate"`
	MonthlyInterestRate string `json:"monthly_interest_rate"`
}

// ClientRequest is the request body to create or update a client.
type ClientRequest struct {
	Name                string `json:"name"`
	Address             string `json:"address"`
	Registration        string `json:"registration"`
	Phone               string `json:"phone"`
	Bank                string `json:"bank"`
	DueDay              int    `json:"due_day"`
	LateFeeRate         string `json:"late_fee_rate"`
	MonthlyInterestRate string `json:"monthly_interest_rate"`
}

// ContractDTO represents a contract in API responses. Overdue reflects the
// effective status of the contract's payments as of the request date.
type ContractDTO struct {
	ID                     int64  `json:"id"`
	ClientID               int64  `json:"client_id"`
	ContractorName         string `json:"contractor_name"`
	ContractorRegistration string `json:"contractor_registration,omitempty"`
	StartDate              string `json:"start_date"`
	DurationMonths         int    `json:"duration_months"`
	TotalValue             string `json:"total_value"`
	Overdue                bool   `json:"overdue"`
}

// CreateContractRequest is the request to create a contract. The
// installment schedule is generated server-side; FirstDueDate optionally
// overrides the default of one month after the start date.
type CreateContractRequest struct {
	ClientID               int64  `json:"client_id"`
	ContractorName         string `json:"contractor_name"`
	ContractorRegistration string `json:"contractor_registration"`
	StartDate              string `json:"start_date"`
	DurationMonths         int    `json:"duration_months"`
	TotalValue             string `json:"total_value"`
	FirstDueDate           string `json:"first_due_date,omitempty"`
}

// UpdateContractRequest rewrites a contract's mutable fields. The existing
// installment schedule is kept as-is.
type UpdateContractRequest struct {
	ContractorName         string `json:"contractor_name"`
	ContractorRegistration string `json:"contractor_registration"`
	StartDate              string `json:"start_date"`
	DurationMonths         int    `json:"duration_months"`
	TotalValue             string `json:"total_value"`
}

// PaymentDTO represents a payment in API responses. Status is the
// EFFECTIVE status as of the request date, so an unreconciled past-due
// payment already shows as OVERDUE.
type PaymentDTO struct {
	ID                int64  `json:"id"`
	ContractID        int64  `json:"contract_id"`
	InstallmentNumber int    `json:"installment_number"`
	Amount            string `json:"amount"`
	DueDate           string `json:"due_date"`
	PaidOn            string `json:"paid_on,omitempty"`
	Status            string `json:"status"`
	Note              string `json:"note,omitempty"`
	OriginalAmount    string `json:"original_amount,omitempty"`
	LateFeeApplied    bool   `json:"late_fee_applied,omitempty"`
}

// UpdatePaymentRequest rewrites a payment's editable fields.
type UpdatePaymentRequest struct {
	Amount  string `json:"amount"`
	DueDate string `json:"due_date"`
	Status  string `json:"status"`
	Note    string `json:"note"`
}

// PayRequest settles a payment. PaidOn defaults to today when omitted.
type PayRequest struct {
	PaidOn string `json:"paid_on,omitempty"`
}

// ReceivableDTO is a per-client monetary total.
type ReceivableDTO struct {
	ClientID int64  `json:"client_id"`
	Total    string `json:"total"`
	AsOf     string `json:"as_of"`
}

// ReportDTO is the period summary returned by /api/reports.
type ReportDTO struct {
	From       string `json:"from"`
	To         string `json:"to"`
	ClientID   *int64 `json:"client_id,omitempty"`
	ClientName string `json:"client_name"`

	TotalPayments int `json:"total_payments"`
	PaidCount     int `json:"paid_count"`
	OverdueCount  int `json:"overdue_count"`
	OpenCount     int `json:"open_count"`
	PaidEarly     int `json:"paid_early"`

	TotalReceived    string `json:"total_received"`
	TotalOutstanding string `json:"total_outstanding"`

	DelinquencyPct string `json:"delinquency_pct"`
	PaidEarlyPct   string `json:"paid_early_pct"`
}

// ReconcileResultDTO is the outcome of a reconciliation run.
type ReconcileResultDTO struct {
	RunID   string `json:"run_id"`
	Date    string `json:"date"`
	Updated int    `json:"updated"`
	Skipped bool   `json:"skipped"` // already ran today
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toClientDTO(c billing.Client) ClientDTO {
	return ClientDTO{
		ID:                  int64(c.ID),
		Name:                c.Name,
		Address:             c.Address,
		Registration:        c.Registration,
		Phone:               c.Phone,
		Bank:                c.Bank,
		DueDay:              c.DueDay,
		LateFeeRate:         c.LateFeeRate.String(),
		MonthlyInterestRate: c.MonthlyInterestRate.String(),
	}
}

func toClientDTOs(clients []billing.Client) []ClientDTO {
	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = toClientDTO(c)
	}
	return dtos
}

func toContractDTO(c billing.Contract, overdue bool) ContractDTO {
	return ContractDTO{
		ID:                     int64(c.ID),
		ClientID:               int64(c.ClientID),
		ContractorName:         c.ContractorName,
		ContractorRegistration: c.ContractorRegistration,
		StartDate:              c.StartDate.String(),
		DurationMonths:         c.DurationMonths,
		TotalValue:             c.TotalValue.StringFixed(2),
		Overdue:                overdue,
	}
}

func toPaymentDTO(p billing.Payment, asOf billing.Date) PaymentDTO {
	dto := PaymentDTO{
		ID:                int64(p.ID),
		ContractID:        int64(p.ContractID),
		InstallmentNumber: p.InstallmentNumber,
		Amount:            p.Amount.StringFixed(2),
		DueDate:           p.DueDate.String(),
		Status:            string(billing.EffectiveStatus(p, asOf)),
		Note:              p.Note,
		LateFeeApplied:    p.LateFeeApplied,
	}
	if p.PaidOn != nil {
		dto.PaidOn = p.PaidOn.String()
	}
	if p.OriginalAmount.IsPositive() {
		dto.OriginalAmount = p.OriginalAmount.StringFixed(2)
	}
	return dto
}

func toPaymentDTOs(payments []billing.Payment, asOf billing.Date) []PaymentDTO {
	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p, asOf)
	}
	return dtos
}

func toReportDTO(r billing.Report) ReportDTO {
	dto := ReportDTO{
		From:             r.From.String(),
		To:               r.To.String(),
		ClientName:       r.ClientName,
		TotalPayments:    r.TotalPayments,
		PaidCount:        r.PaidCount,
		OverdueCount:     r.OverdueCount,
		OpenCount:        r.OpenCount,
		PaidEarly:        r.PaidEarly,
		TotalReceived:    r.TotalReceived.StringFixed(2),
		TotalOutstanding: r.TotalOutstanding.StringFixed(2),
		DelinquencyPct:   r.DelinquencyPct.StringFixed(2),
		PaidEarlyPct:     r.PaidEarlyPct.StringFixed(2),
	}
	if r.ClientID != nil {
		id := int64(*r.ClientID)
		dto.ClientID = &id
	}
	return dto
}
