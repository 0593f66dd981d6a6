/*
engine.go - Filtering and aggregation over portfolio snapshots

PURPOSE:
  Pure query API over a Snapshot: ordered payment lists, status/date-range
  filters, per-client receivable and overdue totals, and the set of clients
  carrying overdue payments. Every status decision goes through
  EffectiveStatus so stale persisted values never leak into results.

RULES OF NOTE:
  - TotalReceivable uses the PERSISTED status (everything not yet settled
    is still owed, overdue or not).
  - TotalOverdue and all overdue filters use the EFFECTIVE status
    (stale-inclusive), so TotalOverdue <= TotalReceivable on consistent
    data.
  - Unknown client/contract ids yield empty results or zero sums, never
    errors: the engine is a projection over possibly-absent relations.
  - An inverted date range (from after to) is simply unsatisfiable and
    yields an empty list; it is not validated as an error.

SEE ALSO:
  - status.go: the effective-status rule
  - report.go: period statistics built on the same snapshot
*/
package billing

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FILTERS
// =============================================================================

// StatusFilter is a Status or the wildcard FilterAll.
type StatusFilter string

// FilterAll matches every effective status.
const FilterAll StatusFilter = "ALL"

// Matches reports whether the filter accepts the given effective status.
func (f StatusFilter) Matches(s Status) bool {
	return f == FilterAll || Status(f) == s
}

// PaymentFilters narrows a contract's payment list. Zero value = no
// filtering. Date bounds apply to the due date, both inclusive.
type PaymentFilters struct {
	Status   StatusFilter
	DateFrom *Date
	DateTo   *Date
}

// =============================================================================
// ENGINE - Query API over one snapshot
// =============================================================================

// Engine answers queries against a single snapshot. It holds no other
// state and never mutates the snapshot; construct a new one (or reuse
// this one) after every refresh.
type Engine struct {
	snap Snapshot
}

func NewEngine(snap Snapshot) *Engine {
	return &Engine{snap: snap}
}

// Snapshot returns the underlying snapshot.
func (e *Engine) Snapshot() Snapshot { return e.snap }

// =============================================================================
// PAYMENT QUERIES
// =============================================================================

// PaymentsForContract returns the contract's payments ordered by
// installment number ascending. Deterministic for UI and snapshot tests.
func (e *Engine) PaymentsForContract(contractID ContractID) []Payment {
	var result []Payment
	for _, p := range e.snap.Payments {
		if p.ContractID == contractID {
			result = append(result, p)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].InstallmentNumber < result[j].InstallmentNumber
	})
	return result
}

// FilteredPayments applies status and due-date filters to a contract's
// payments. The status filter matches the EFFECTIVE status as of asOf, so
// filtering by OVERDUE catches stale-open payments and filtering by OPEN
// excludes them. Order remains installment number ascending.
func (e *Engine) FilteredPayments(contractID ContractID, filters PaymentFilters, asOf Date) []Payment {
	payments := e.PaymentsForContract(contractID)

	status := filters.Status
	if status == "" {
		status = FilterAll
	}

	var result []Payment
	for _, p := range payments {
		if !status.Matches(EffectiveStatus(p, asOf)) {
			continue
		}
		if filters.DateFrom != nil && p.DueDate.Before(*filters.DateFrom) {
			continue
		}
		if filters.DateTo != nil && p.DueDate.After(*filters.DateTo) {
			continue
		}
		result = append(result, p)
	}
	return result
}

// HasOverduePayment reports whether any payment of the contract is
// effectively overdue as of the reference date.
func (e *Engine) HasOverduePayment(contractID ContractID, asOf Date) bool {
	for _, p := range e.snap.Payments {
		if p.ContractID == contractID && IsOverdue(p, asOf) {
			return true
		}
	}
	return false
}

// =============================================================================
// CONTRACT QUERIES
// =============================================================================

// ContractsForClient returns the client's contracts in input order. With
// overdueOnly set, only contracts carrying at least one effectively-overdue
// payment are kept.
func (e *Engine) ContractsForClient(clientID ClientID, overdueOnly bool, asOf Date) []Contract {
	var result []Contract
	for _, c := range e.snap.Contracts {
		if c.ClientID != clientID {
			continue
		}
		if overdueOnly && !e.HasOverduePayment(c.ID, asOf) {
			continue
		}
		result = append(result, c)
	}
	return result
}

// =============================================================================
// CLIENT AGGREGATES
// =============================================================================

// TotalReceivable sums the amounts of every unsettled payment across the
// client's contracts. Unsettled means the PERSISTED status is neither PAID
// nor PAID_LATE: a stale-open payment is still owed whether or not it has
// been reconciled to OVERDUE yet.
func (e *Engine) TotalReceivable(clientID ClientID) decimal.Decimal {
	return e.sumPayments(clientID, func(p Payment) bool {
		return !p.Status.Settled()
	})
}

// TotalOverdue sums the amounts of the client's effectively-overdue
// payments as of the reference date. Always <= TotalReceivable on
// consistent data, since every effectively-overdue payment is unsettled.
func (e *Engine) TotalOverdue(clientID ClientID, asOf Date) decimal.Decimal {
	return e.sumPayments(clientID, func(p Payment) bool {
		return IsOverdue(p, asOf)
	})
}

func (e *Engine) sumPayments(clientID ClientID, keep func(Payment) bool) decimal.Decimal {
	contractIDs := make(map[ContractID]bool)
	for _, c := range e.snap.Contracts {
		if c.ClientID == clientID {
			contractIDs[c.ID] = true
		}
	}

	total := decimal.Zero
	for _, p := range e.snap.Payments {
		if contractIDs[p.ContractID] && keep(p) {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// ClientsWithOverdue returns the clients holding at least one
// effectively-overdue payment across any of their contracts, preserving
// client input order.
func (e *Engine) ClientsWithOverdue(asOf Date) []Client {
	clientByContract := make(map[ContractID]ClientID)
	for _, c := range e.snap.Contracts {
		clientByContract[c.ID] = c.ClientID
	}

	overdueClients := make(map[ClientID]bool)
	for _, p := range e.snap.Payments {
		if !IsOverdue(p, asOf) {
			continue
		}
		if clientID, ok := clientByContract[p.ContractID]; ok {
			overdueClients[clientID] = true
		}
	}

	var result []Client
	for _, c := range e.snap.Clients {
		if overdueClients[c.ID] {
			result = append(result, c)
		}
	}
	return result
}

// SearchClients filters clients by a case-insensitive substring match on
// name, registration, or phone. An empty term returns all clients.
func (e *Engine) SearchClients(term string) []Client {
	if term == "" {
		return e.snap.Clients
	}
	needle := strings.ToLower(term)

	var result []Client
	for _, c := range e.snap.Clients {
		if strings.Contains(strings.ToLower(c.Name), needle) ||
			strings.Contains(strings.ToLower(c.Registration), needle) ||
			strings.Contains(strings.ToLower(c.Phone), needle) {
			result = append(result, c)
		}
	}
	return result
}
