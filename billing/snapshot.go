/*
snapshot.go - Immutable data snapshot and its loading contract

PURPOSE:
  The engine never talks to storage or the network. The host application
  fetches the three collections wholesale, hands the engine a Snapshot, and
  refreshes it after every create/update/delete round-trip. Each collection
  loads independently: a failed fetch yields an empty collection and an
  entry in the LoadReport, never blocking the others.

SEE ALSO:
  - engine.go: queries over a Snapshot
  - store/sqlite: the production Fetcher/PaymentWriter
  - billing/store: in-memory implementation for tests
*/
package billing

import (
	"context"
	"errors"
)

// =============================================================================
// SNAPSHOT - Frozen view of the three collections
// =============================================================================

// Snapshot is a read-only view of the portfolio at one moment. Engine
// functions treat its slices as immutable; callers must not share a
// snapshot they intend to modify.
type Snapshot struct {
	Clients   []Client
	Contracts []Contract
	Payments  []Payment
}

// ClientByID returns the client with the given id, if present.
func (s Snapshot) ClientByID(id ClientID) (Client, bool) {
	for _, c := range s.Clients {
		if c.ID == id {
			return c, true
		}
	}
	return Client{}, false
}

// ContractByID returns the contract with the given id, if present.
func (s Snapshot) ContractByID(id ContractID) (Contract, bool) {
	for _, c := range s.Contracts {
		if c.ID == id {
			return c, true
		}
	}
	return Contract{}, false
}

// PaymentByID returns the payment with the given id, if present.
func (s Snapshot) PaymentByID(id PaymentID) (Payment, bool) {
	for _, p := range s.Payments {
		if p.ID == id {
			return p, true
		}
	}
	return Payment{}, false
}

// =============================================================================
// DATA ACCESS CONTRACTS - Implemented by the storage layer
// =============================================================================

// Fetcher supplies the collections the engine computes over.
type Fetcher interface {
	FetchClients(ctx context.Context) ([]Client, error)
	FetchContracts(ctx context.Context) ([]Contract, error)
	FetchPayments(ctx context.Context) ([]Payment, error)
}

// PaymentWriter persists payment updates (mark-as-paid, direct edits,
// reconciliation rewrites). The returned record is the persisted state,
// which callers merge back into their next snapshot.
type PaymentWriter interface {
	UpdatePayment(ctx context.Context, p Payment) (Payment, error)
}

// =============================================================================
// LOADING - Wholesale refresh with partial availability
// =============================================================================

// LoadReport records which collections failed to load. A snapshot with a
// non-empty report is still usable for the collections that did load.
type LoadReport struct {
	ClientsErr   error
	ContractsErr error
	PaymentsErr  error
}

// OK reports whether all three collections loaded.
func (r LoadReport) OK() bool {
	return r.ClientsErr == nil && r.ContractsErr == nil && r.PaymentsErr == nil
}

// Err collapses the report into a single error, nil when OK. For callers
// that need the whole portfolio or nothing.
func (r LoadReport) Err() error {
	return errors.Join(r.ClientsErr, r.ContractsErr, r.PaymentsErr)
}

// Load fetches all three collections from f. Failures are independent: a
// collection that cannot be fetched comes back empty and is noted in the
// report, so one unavailable collection never blocks the others.
func Load(ctx context.Context, f Fetcher) (Snapshot, LoadReport) {
	var snap Snapshot
	var report LoadReport

	snap.Clients, report.ClientsErr = f.FetchClients(ctx)
	snap.Contracts, report.ContractsErr = f.FetchContracts(ctx)
	snap.Payments, report.PaymentsErr = f.FetchPayments(ctx)

	if report.ClientsErr != nil {
		snap.Clients = nil
	}
	if report.ContractsErr != nil {
		snap.Contracts = nil
	}
	if report.PaymentsErr != nil {
		snap.Payments = nil
	}
	return snap, report
}
