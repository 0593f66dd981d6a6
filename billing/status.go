/*
status.go - Effective-status derivation and settlement

PURPOSE:
  The leaf component everything else depends on. A payment's persisted
  status may be stale: an OPEN payment past its due date is semantically
  overdue until the reconciliation job rewrites it. EffectiveStatus applies
  that inference so displayed and aggregated figures never trust a stale
  stored value.

RULES:
  EffectiveStatus(p, asOf):
    - persisted OVERDUE            -> OVERDUE (regardless of dates)
    - persisted OPEN, due < asOf   -> OVERDUE (strictly earlier calendar day)
    - otherwise                    -> persisted status unchanged
  A due date equal to the reference date is NOT overdue.

  MarkPaid(p, paidOn):
    - paidOn <= due  -> PAID (same day counts as on time)
    - paidOn >  due  -> PAID_LATE

SEE ALSO:
  - engine.go: uses EffectiveStatus for every filter and aggregate
  - reconcile.go: materializes the same rule into persisted updates
*/
package billing

import "fmt"

// EffectiveStatus returns the status of p as of the given reference date,
// applying the overdue-inference rule. Pure and total; p is not mutated.
func EffectiveStatus(p Payment, asOf Date) Status {
	if p.Status == StatusOverdue {
		return StatusOverdue
	}
	if p.Status == StatusOpen && p.DueDate.Before(asOf) {
		return StatusOverdue
	}
	return p.Status
}

// IsOverdue reports whether p is effectively overdue as of the reference
// date, catching both explicit OVERDUE and stale-open-past-due payments.
func IsOverdue(p Payment, asOf Date) bool {
	return EffectiveStatus(p, asOf) == StatusOverdue
}

// MarkPaid returns a copy of p settled on paidOn. Status becomes PAID when
// paidOn is on or before the due date, PAID_LATE otherwise, and the note
// records the payment date. All other fields are unchanged; the input is
// not mutated.
func MarkPaid(p Payment, paidOn Date) Payment {
	updated := p
	updated.PaidOn = &paidOn
	if paidOn.BeforeOrEqual(p.DueDate) {
		updated.Status = StatusPaid
	} else {
		updated.Status = StatusPaidLate
	}
	updated.Note = fmt.Sprintf("Paid on %s", paidOn)
	return updated
}
