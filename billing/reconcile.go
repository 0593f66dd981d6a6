/*
reconcile.go - Stale-status reconciliation

PURPOSE:
  The pure half of the daily batch job: find every payment whose persisted
  status is OPEN but whose effective status is OVERDUE, and produce the
  updated records (status rewritten, late charges applied where the owning
  client has rates configured). Persisting the updates and the once-per-day
  guard live in the API scheduler.

  Until this runs, the engine's effective-status derivation keeps the stale
  records from leaking into displayed figures; after it runs, persisted and
  effective status agree again.

SEE ALSO:
  - status.go: the overdue-inference rule being materialized
  - latefee.go: the charge calculation
  - api/scheduler.go: the loop that persists these updates
*/
package billing

// OverdueUpdates projects the payment records the reconciliation job
// should persist as of the reference date: every stale-open payment with
// status rewritten to OVERDUE and late charges applied. Already-OVERDUE
// payments are also re-charged so interest keeps accruing day by day.
// The snapshot is not mutated.
func OverdueUpdates(snap Snapshot, asOf Date) []Payment {
	clientByContract := make(map[ContractID]Client)
	for _, c := range snap.Contracts {
		if client, ok := snap.ClientByID(c.ClientID); ok {
			clientByContract[c.ID] = client
		}
	}

	var updates []Payment
	for _, p := range snap.Payments {
		if p.Status.Settled() || !IsOverdue(p, asOf) {
			continue
		}

		updated := p
		updated.Status = StatusOverdue
		if client, ok := clientByContract[p.ContractID]; ok {
			updated = ApplyLateCharges(updated, client, asOf)
		}

		if updated.Status != p.Status ||
			!updated.Amount.Equal(p.Amount) ||
			updated.LateFeeApplied != p.LateFeeApplied {
			updates = append(updates, updated)
		}
	}
	return updates
}
