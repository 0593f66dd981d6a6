/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates clients, contracts,
	and installment schedules that demonstrate specific features.

AVAILABLE SCENARIOS:

	healthy-portfolio:    All payments current or settled on time
	delinquent-portfolio: Overdue installments, late charges, stale statuses

HOW SCENARIOS WORK:
 1. Clear the database
 2. Create clients (with late-charge rates where relevant)
 3. Create contracts; installment schedules are generated the same way
    the CreateContract endpoint generates them
 4. Settle or backdate selected installments

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "delinquent-portfolio"}

NOTE:

	Scenarios clear the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: LoadScenario, ListScenarios handlers
  - billing/schedule.go: installment generation
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/warp/collections-engine/billing"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "healthy-portfolio",
		Name:        "Healthy Portfolio",
		Description: "Three clients, everything paid on time or not yet due",
	},
	{
		ID:          "delinquent-portfolio",
		Name:        "Delinquent Portfolio",
		Description: "Overdue installments, stale statuses, and late charges",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:   h.currentScenario,
		Name: h.currentScenario,
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	// Clear first
	if err := h.Store.DeleteAll(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clear database", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch req.ScenarioID {
	case "healthy-portfolio":
		err = h.loadHealthyPortfolio(ctx)
	case "delinquent-portfolio":
		err = h.loadDelinquentPortfolio(ctx)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "loaded",
		"scenario": req.ScenarioID,
	})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// addContract creates a contract with its generated schedule, starting
// monthsAgo months before today.
func (h *Handler) addContract(ctx context.Context, clientID billing.ClientID, contractor string, monthsAgo, durationMonths int, totalValue string) (billing.Contract, []billing.Payment, error) {
	today := h.Now()
	contract := billing.Contract{
		ClientID:       clientID,
		ContractorName: contractor,
		StartDate:      today.AddMonths(-monthsAgo),
		DurationMonths: durationMonths,
		TotalValue:     decimal.RequireFromString(totalValue),
	}

	payments, err := billing.GenerateInstallments(contract, billing.DefaultFirstDue(contract), today)
	if err != nil {
		return billing.Contract{}, nil, err
	}
	return h.Store.CreateContract(ctx, contract, payments)
}

// settle marks a payment paid on the given date and persists it.
func (h *Handler) settle(ctx context.Context, p billing.Payment, paidOn billing.Date) error {
	_, err := h.Store.UpdatePayment(ctx, billing.MarkPaid(p, paidOn))
	return err
}

// loadHealthyPortfolio: three clients with active contracts, every
// installment either settled on its due date or not yet due.
func (h *Handler) loadHealthyPortfolio(ctx context.Context) error {
	names := []struct {
		name  string
		phone string
	}{
		{"Horizon Logistics", "555-0101"},
		{"Meridian Foods", "555-0102"},
		{"Atlas Properties", "555-0103"},
	}

	today := h.Now()
	for i, n := range names {
		client, err := h.Store.CreateClient(ctx, billing.Client{
			Name:         n.name,
			Phone:        n.phone,
			Registration: fmt.Sprintf("74.%03d.221/0001-%02d", 100+i, 10+i),
			DueDay:       10,
		})
		if err != nil {
			return err
		}

		_, payments, err := h.addContract(ctx, client.ID, n.name+" HQ", 3, 12, "12000.00")
		if err != nil {
			return err
		}

		// Settle everything already due, each on its due date.
		for _, p := range payments {
			if p.DueDate.BeforeOrEqual(today) {
				if err := h.settle(ctx, p, p.DueDate); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// loadDelinquentPortfolio: a mix of settled, stale-open, and reconciled
// overdue installments, with one client accruing late charges.
func (h *Handler) loadDelinquentPortfolio(ctx context.Context) error {
	today := h.Now()

	// Client 1: pays, but always a week late.
	late, err := h.Store.CreateClient(ctx, billing.Client{
		Name:         "Cascade Retail",
		Phone:        "555-0201",
		Registration: "88.410.332/0001-55",
	})
	if err != nil {
		return err
	}
	_, payments, err := h.addContract(ctx, late.ID, "Cascade Retail", 4, 6, "6000.00")
	if err != nil {
		return err
	}
	for _, p := range payments {
		if p.DueDate.AddDays(7).BeforeOrEqual(today) {
			if err := h.settle(ctx, p, p.DueDate.AddDays(7)); err != nil {
				return err
			}
		}
	}

	// Client 2: stopped paying two months ago; late charges configured.
	// Installments are left as generated (already past due ones come out
	// OVERDUE); charges land when reconciliation runs.
	delinquent, err := h.Store.CreateClient(ctx, billing.Client{
		Name:                "Pioneer Construction",
		Phone:               "555-0202",
		Registration:        "61.220.781/0001-03",
		LateFeeRate:         decimal.RequireFromString("0.02"),
		MonthlyInterestRate: decimal.RequireFromString("0.10"),
	})
	if err != nil {
		return err
	}
	_, payments, err = h.addContract(ctx, delinquent.ID, "Pioneer Construction", 5, 10, "25000.00")
	if err != nil {
		return err
	}
	for _, p := range payments {
		// Paid the first installments, then went quiet.
		if p.InstallmentNumber <= 2 {
			if err := h.settle(ctx, p, p.DueDate); err != nil {
				return err
			}
		}
	}

	// Client 3: one stale-open installment - persisted OPEN, past due.
	// Exercises the effective-status derivation in every overdue view.
	stale, err := h.Store.CreateClient(ctx, billing.Client{
		Name:         "Summit Clinics",
		Phone:        "555-0203",
		Registration: "29.884.156/0001-77",
	})
	if err != nil {
		return err
	}
	_, payments, err = h.addContract(ctx, stale.ID, "Summit Clinics", 2, 6, "3600.00")
	if err != nil {
		return err
	}
	for _, p := range payments {
		if p.Status == billing.StatusOverdue {
			p.Status = billing.StatusOpen
			if _, err := h.Store.UpdatePayment(ctx, p); err != nil {
				return err
			}
		}
	}

	return nil
}
