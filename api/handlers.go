/*
handlers.go - HTTP API handlers for the collections engine

PURPOSE:
  Exposes the billing engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Clients:
    GET    /api/clients                    List clients (?search=)
    POST   /api/clients                    Create client
    GET    /api/clients/{id}               Get client
    PUT    /api/clients/{id}               Update client
    DELETE /api/clients/{id}               Delete client (cascades)
    GET    /api/clients/{id}/contracts     Client's contracts (?overdue=true)
    GET    /api/clients/{id}/receivable    Total outstanding balance
    GET    /api/clients/{id}/overdue       Total overdue balance

  Contracts:
    POST   /api/contracts                  Create contract + installments
    GET    /api/contracts/{id}             Get contract
    PUT    /api/contracts/{id}             Update contract
    DELETE /api/contracts/{id}             Delete contract (cascades)
    GET    /api/contracts/{id}/payments    Payments (?status=&from=&to=)

  Payments:
    PUT    /api/payments/{id}              Edit payment
    POST   /api/payments/{id}/pay          Mark as paid

  Reports/Admin:
    GET    /api/reports                    Period report (?from=&to=&client_id=)
    GET    /api/overdue/clients            Clients with overdue payments
    POST   /api/admin/reconcile            Run reconciliation now

REQUEST FLOW:
  1. Parse HTTP request
  2. Load a fresh snapshot from the store (queries are answered from a
     single consistent load, never from per-row reads)
  3. Call domain logic (engine, status rules, report builder)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 500: Internal errors

REFERENCE DATE:
  Every status-sensitive endpoint accepts ?as_of=YYYY-MM-DD; it defaults
  to today. Handlers never read the clock directly - Handler.Now is
  injectable for tests.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/collections-engine/billing"
	"github.com/warp/collections-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store *sqlite.Store

	// Now supplies the reference date for status derivation. Defaults to
	// the wall-clock day; tests pin it.
	Now func() billing.Date

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store: store,
		Now:   billing.Today,
	}
}

// engine loads a fresh snapshot and wraps it in a query engine. Partial
// loads are surfaced as an error here: the API serves whole dashboards,
// not individual collections.
func (h *Handler) engine(ctx context.Context) (*billing.Engine, error) {
	snap, report := billing.Load(ctx, h.Store)
	if err := report.Err(); err != nil {
		return nil, err
	}
	return billing.NewEngine(snap), nil
}

// asOf resolves the reference date from the query string, defaulting to
// the handler's clock. Returns ok=false after writing a 400.
func (h *Handler) asOf(w http.ResponseWriter, r *http.Request) (billing.Date, bool) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return h.Now(), true
	}
	d, err := billing.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of date (use YYYY-MM-DD)", err)
		return billing.Date{}, false
	}
	return d, true
}

func urlID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// =============================================================================
// CLIENT HANDLERS
// =============================================================================

// ListClients returns all clients, optionally narrowed by ?search= (a
// case-insensitive substring match on name, registration, or phone).
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	eng, err := h.engine(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load clients", err)
		return
	}

	clients := eng.SearchClients(r.URL.Query().Get("search"))
	writeJSON(w, http.StatusOK, toClientDTOs(clients))
}

// GetClient returns a single client.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid client id", err)
		return
	}

	client, err := h.Store.GetClient(r.Context(), billing.ClientID(id))
	if err != nil {
		writeDomainError(w, "Failed to get client", err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(client))
}

// CreateClient creates a new client.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	client, ok := clientFromRequest(w, req)
	if !ok {
		return
	}

	created, err := h.Store.CreateClient(r.Context(), client)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create client", err)
		return
	}
	writeJSON(w, http.StatusCreated, toClientDTO(created))
}

// UpdateClient rewrites a client's fields.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid client id", err)
		return
	}

	var req ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	client, ok := clientFromRequest(w, req)
	if !ok {
		return
	}
	client.ID = billing.ClientID(id)

	updated, err := h.Store.UpdateClient(r.Context(), client)
	if err != nil {
		writeDomainError(w, "Failed to update client", err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(updated))
}

// DeleteClient removes a client; contracts and payments cascade.
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid client id", err)
		return
	}

	if err := h.Store.DeleteClient(r.Context(), billing.ClientID(id)); err != nil {
		writeDomainError(w, "Failed to delete client", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func clientFromRequest(w http.ResponseWriter, req ClientRequest) (billing.Client, bool) {
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Client name is required", nil)
		return billing.Client{}, false
	}

	feeRate, err := parseRate(req.LateFeeRate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid late_fee_rate", err)
		return billing.Client{}, false
	}
	interestRate, err := parseRate(req.MonthlyInterestRate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid monthly_interest_rate", err)
		return billing.Client{}, false
	}

	return billing.Client{
		Name:                req.Name,
		Address:             req.Address,
		Registration:        req.Registration,
		Phone:               req.Phone,
		Bank:                req.Bank,
		DueDay:              req.DueDay,
		LateFeeRate:         feeRate,
		MonthlyInterestRate: interestRate,
	}, true
}

func parseRate(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

// =============================================================================
// CLIENT AGGREGATE HANDLERS
// =============================================================================

// GetClientContracts returns the client's contracts, each flagged with its
// overdue state. ?overdue=true keeps only contracts carrying an overdue
// payment.
func (h *Handler) GetClientContracts(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid client id", err)
		return
	}
	asOf, ok := h.asOf(w, r)
	if !ok {
		return
	}

	eng, err := h.engine(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load contracts", err)
		return
	}

	overdueOnly := r.URL.Query().Get("overdue") == "true"
	contracts := eng.ContractsForClient(billing.ClientID(id), overdueOnly, asOf)

	dtos := make([]ContractDTO, len(contracts))
	for i, c := range contracts {
		dtos[i] = toContractDTO(c, eng.HasOverduePayment(c.ID, asOf))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetClientReceivable returns the client's total outstanding balance:
// every installment not yet settled, overdue or not.
func (h *Handler) GetClientReceivable(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid client id", err)
		return
	}
	asOf, ok := h.asOf(w, r)
	if !ok {
		return
	}

	eng, err := h.engine(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load payments", err)
		return
	}

	writeJSON(w, http.StatusOK, ReceivableDTO{
		ClientID: id,
		Total:    eng.TotalReceivable(billing.ClientID(id)).StringFixed(2),
		AsOf:     asOf.String(),
	})
}

// GetClientOverdue returns the client's total overdue balance as of the
// reference date.
func (h *Handler) GetClientOverdue(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid client id", err)
		return
	}
	asOf, ok := h.asOf(w, r)
	if !ok {
		return
	}

	eng, err := h.engine(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load payments", err)
		return
	}

	writeJSON(w, http.StatusOK, ReceivableDTO{
		ClientID: id,
		Total:    eng.TotalOverdue(billing.ClientID(id), asOf).StringFixed(2),
		AsOf:     asOf.String(),
	})
}

// ListOverdueClients returns every client holding at least one overdue
// payment as of the reference date.
func (h *Handler) ListOverdueClients(w http.ResponseWriter, r *http.Request) {
	asOf, ok := h.asOf(w, r)
	if !ok {
		return
	}

	eng, err := h.engine(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load clients", err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTOs(eng.ClientsWithOverdue(asOf)))
}

// =============================================================================
// CONTRACT HANDLERS
// =============================================================================

// CreateContract creates a contract and generates its installment
// schedule in the same transaction.
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req CreateContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	startDate, err := billing.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date (use YYYY-MM-DD)", err)
		return
	}
	totalValue, err := decimal.NewFromString(req.TotalValue)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid total_value", err)
		return
	}

	// Reject unknown clients up front; the FK would catch it anyway but
	// the 404 is friendlier than a constraint error.
	if _, err := h.Store.GetClient(r.Context(), billing.ClientID(req.ClientID)); err != nil {
		writeDomainError(w, "Failed to resolve client", err)
		return
	}

	contract := billing.Contract{
		ClientID:               billing.ClientID(req.ClientID),
		ContractorName:         req.ContractorName,
		ContractorRegistration: req.ContractorRegistration,
		StartDate:              startDate,
		DurationMonths:         req.DurationMonths,
		TotalValue:             totalValue,
	}

	firstDue := billing.DefaultFirstDue(contract)
	if req.FirstDueDate != "" {
		if firstDue, err = billing.ParseDate(req.FirstDueDate); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid first_due_date (use YYYY-MM-DD)", err)
			return
		}
	}

	payments, err := billing.GenerateInstallments(contract, firstDue, h.Now())
	if err != nil {
		writeDomainError(w, "Failed to generate installments", err)
		return
	}

	created, inserted, err := h.Store.CreateContract(r.Context(), contract, payments)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create contract", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"contract": toContractDTO(created, false),
		"payments": toPaymentDTOs(inserted, h.Now()),
	})
}

// GetContract returns a single contract with its overdue flag.
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid contract id", err)
		return
	}
	asOf, ok := h.asOf(w, r)
	if !ok {
		return
	}

	contract, err := h.Store.GetContract(r.Context(), billing.ContractID(id))
	if err != nil {
		writeDomainError(w, "Failed to get contract", err)
		return
	}

	eng, err := h.engine(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load payments", err)
		return
	}
	writeJSON(w, http.StatusOK, toContractDTO(contract, eng.HasOverduePayment(contract.ID, asOf)))
}

// UpdateContract rewrites a contract's fields. The installment schedule
// is intentionally left alone; individual payments are edited separately.
func (h *Handler) UpdateContract(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid contract id", err)
		return
	}

	var req UpdateContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	startDate, err := billing.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date (use YYYY-MM-DD)", err)
		return
	}
	totalValue, err := decimal.NewFromString(req.TotalValue)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid total_value", err)
		return
	}

	existing, err := h.Store.GetContract(r.Context(), billing.ContractID(id))
	if err != nil {
		writeDomainError(w, "Failed to get contract", err)
		return
	}

	existing.ContractorName = req.ContractorName
	existing.ContractorRegistration = req.ContractorRegistration
	existing.StartDate = startDate
	existing.DurationMonths = req.DurationMonths
	existing.TotalValue = totalValue

	updated, err := h.Store.UpdateContract(r.Context(), existing)
	if err != nil {
		writeDomainError(w, "Failed to update contract", err)
		return
	}
	writeJSON(w, http.StatusOK, toContractDTO(updated, false))
}

// DeleteContract removes a contract; payments cascade.
func (h *Handler) DeleteContract(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid contract id", err)
		return
	}

	if err := h.Store.DeleteContract(r.Context(), billing.ContractID(id)); err != nil {
		writeDomainError(w, "Failed to delete contract", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GetContractPayments returns the contract's payments ordered by
// installment number. ?status= filters by effective status (ALL, OPEN,
// OVERDUE, PAID, PAID_LATE); ?from= and ?to= bound the due date.
func (h *Handler) GetContractPayments(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid contract id", err)
		return
	}
	asOf, ok := h.asOf(w, r)
	if !ok {
		return
	}

	filters := billing.PaymentFilters{
		Status: billing.StatusFilter(r.URL.Query().Get("status")),
	}
	if filters.Status != "" && filters.Status != billing.FilterAll &&
		!billing.Status(filters.Status).Valid() {
		writeError(w, http.StatusBadRequest, "Unknown status filter", nil)
		return
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		d, err := billing.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
			return
		}
		filters.DateFrom = &d
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		d, err := billing.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
			return
		}
		filters.DateTo = &d
	}

	eng, err := h.engine(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load payments", err)
		return
	}

	payments := eng.FilteredPayments(billing.ContractID(id), filters, asOf)
	writeJSON(w, http.StatusOK, toPaymentDTOs(payments, asOf))
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// UpdatePayment edits a payment's amount, due date, status, or note.
func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payment id", err)
		return
	}

	var req UpdatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	payment, err := h.Store.GetPayment(r.Context(), billing.PaymentID(id))
	if err != nil {
		writeDomainError(w, "Failed to get payment", err)
		return
	}

	if req.Amount != "" {
		if payment.Amount, err = decimal.NewFromString(req.Amount); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid amount", err)
			return
		}
	}
	if req.DueDate != "" {
		if payment.DueDate, err = billing.ParseDate(req.DueDate); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid due_date (use YYYY-MM-DD)", err)
			return
		}
	}
	if req.Status != "" {
		status := billing.Status(req.Status)
		if !status.Valid() {
			writeDomainError(w, "Failed to update payment", billing.ErrInvalidStatus)
			return
		}
		payment.Status = status
	}
	if req.Note != "" {
		payment.Note = req.Note
	}

	updated, err := h.Store.UpdatePayment(r.Context(), payment)
	if err != nil {
		writeDomainError(w, "Failed to update payment", err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(updated, h.Now()))
}

// MarkPaymentPaid settles a payment: PAID when paid on or before the due
// date, PAID_LATE otherwise. PaidOn defaults to today.
func (h *Handler) MarkPaymentPaid(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payment id", err)
		return
	}

	var req PayRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	paidOn := h.Now()
	if req.PaidOn != "" {
		if paidOn, err = billing.ParseDate(req.PaidOn); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid paid_on date (use YYYY-MM-DD)", err)
			return
		}
	}

	payment, err := h.Store.GetPayment(r.Context(), billing.PaymentID(id))
	if err != nil {
		writeDomainError(w, "Failed to get payment", err)
		return
	}

	updated, err := h.Store.UpdatePayment(r.Context(), billing.MarkPaid(payment, paidOn))
	if err != nil {
		writeDomainError(w, "Failed to update payment", err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(updated, h.Now()))
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetReport returns the period summary for ?from= and ?to=, optionally
// narrowed to ?client_id=.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	asOf, ok := h.asOf(w, r)
	if !ok {
		return
	}

	var req billing.ReportRequest
	var err error
	if raw := r.URL.Query().Get("from"); raw != "" {
		if req.From, err = billing.ParseDate(raw); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
			return
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if req.To, err = billing.ParseDate(raw); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
			return
		}
	}
	if raw := r.URL.Query().Get("client_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid client_id", err)
			return
		}
		clientID := billing.ClientID(id)
		req.ClientID = &clientID
	}

	eng, err := h.engine(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load portfolio", err)
		return
	}

	report, err := billing.BuildReport(eng.Snapshot(), req, asOf)
	if err != nil {
		writeDomainError(w, "Failed to build report", err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(report))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// TriggerReconcile runs the overdue reconciliation immediately, ignoring
// the once-per-day guard. Intended for operators and demos.
func (h *Handler) TriggerReconcile(w http.ResponseWriter, r *http.Request) {
	result, err := Reconcile(r.Context(), h.Store, h.Now(), true)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Reconciliation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps billing errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case billing.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case billing.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
