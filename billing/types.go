/*
Package billing provides the core collections engine.

PURPOSE:
  This package contains the domain types and pure computation functions for
  an accounts-receivable portfolio: clients, installment contracts, and their
  scheduled payments. It derives payment status, filters and aggregates
  collections, and produces period reports — all as stateless functions over
  in-memory snapshots.

KEY CONCEPTS IN THIS FILE (types.go):
  - Client:   The account holder being billed
  - Contract: An installment agreement tied to a client
  - Payment:  One scheduled monthly charge under a contract
  - Status:   Closed enumeration of payment states

DESIGN PRINCIPLES:
  1. Immutability: engine functions never mutate their inputs; updates
     produce fresh records
  2. Precision: decimal.Decimal for all monetary amounts, no float drift
  3. Explicit time: every date-sensitive computation takes a reference date
     instead of reading the clock
  4. Projection, not validation: queries over absent relations yield empty
     results, never errors

STATUS SEMANTICS:
  The persisted status of an OPEN payment can go stale once its due date
  passes: it is semantically overdue until the reconciliation job rewrites
  it. Callers must therefore derive the effective status (status.go) at
  display and aggregation time rather than trust the stored value.

SEE ALSO:
  - status.go: effective-status derivation and mark-as-paid
  - engine.go: filtering and aggregation over snapshots
  - schedule.go: installment generation for new contracts
*/
package billing

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ClientID int64
type ContractID int64
type PaymentID int64

// =============================================================================
// STATUS - Closed enumeration of payment states
// =============================================================================

type Status string

const (
	StatusOpen     Status = "OPEN"      // Unpaid, due date not yet definitively evaluated
	StatusOverdue  Status = "OVERDUE"   // Explicitly marked late
	StatusPaid     Status = "PAID"      // Settled on or before due date
	StatusPaidLate Status = "PAID_LATE" // Settled after due date
)

// Settled reports whether the status represents a completed payment.
func (s Status) Settled() bool {
	return s == StatusPaid || s == StatusPaidLate
}

// Valid reports whether s is one of the four known states.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusOverdue, StatusPaid, StatusPaidLate:
		return true
	}
	return false
}

// =============================================================================
// CLIENT - Account holder
// =============================================================================

type Client struct {
	ID           ClientID
	Name         string
	Address      string
	Registration string // tax/registration number
	Phone        string
	Bank         string
	DueDay       int // preferred due day of month, 0 = unset

	// Late-charge configuration. Zero value = not configured; overdue
	// payments for this client then keep their original amount.
	LateFeeRate         decimal.Decimal // one-time fee, e.g. 0.02 = 2%
	MonthlyInterestRate decimal.Decimal // simple interest per 30 days late
}

// HasLateCharges reports whether any late-charge rate is configured.
func (c Client) HasLateCharges() bool {
	return c.LateFeeRate.IsPositive() || c.MonthlyInterestRate.IsPositive()
}

// =============================================================================
// CONTRACT - Installment agreement
// =============================================================================

// Contract belongs to exactly one client. The contractor is the billed
// party and may differ from the account holder.
type Contract struct {
	ID                     ContractID
	ClientID               ClientID
	ContractorName         string
	ContractorRegistration string
	StartDate              Date
	DurationMonths         int // >= 1; one installment per month
	TotalValue             decimal.Decimal
}

// =============================================================================
// PAYMENT - One scheduled installment
// =============================================================================

// Payment belongs to exactly one contract. Installment numbers are 1-based,
// unique and contiguous within a contract. Payments are created in bulk when
// the contract is created (schedule.go) and only ever mutated through update
// operations; deletion happens solely as a cascade with the parent contract.
type Payment struct {
	ID                PaymentID
	ContractID        ContractID
	InstallmentNumber int
	Amount            decimal.Decimal
	DueDate           Date
	PaidOn            *Date // present only once settled
	Status            Status
	Note              string

	// Late-charge bookkeeping (latefee.go). OriginalAmount is the amount
	// before any fee/interest; zero means charges were never applied.
	OriginalAmount decimal.Decimal
	LateFeeApplied bool
}

// BaseAmount returns the amount before late charges.
func (p Payment) BaseAmount() decimal.Decimal {
	if p.OriginalAmount.IsPositive() {
		return p.OriginalAmount
	}
	return p.Amount
}
