package billing_test

import (
	"testing"

	"github.com/warp/collections-engine/billing"
)

func TestOverdueUpdates_RewritesStaleOpen(t *testing.T) {
	snap := portfolioSnapshot()

	updates := billing.OverdueUpdates(snap, refDate)

	// #3 is stale-open; #2 is already OVERDUE but its client has no rates,
	// so rewriting it changes nothing and it is not emitted.
	if len(updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(updates))
	}
	if updates[0].ID != 3 {
		t.Errorf("expected payment 3 rewritten, got %d", updates[0].ID)
	}
	if updates[0].Status != billing.StatusOverdue {
		t.Errorf("expected OVERDUE, got %s", updates[0].Status)
	}
}

func TestOverdueUpdates_AppliesLateCharges(t *testing.T) {
	snap := billing.Snapshot{
		Clients: []billing.Client{{
			ID:                  1,
			Name:                "Pioneer Construction",
			LateFeeRate:         money("0.02"),
			MonthlyInterestRate: money("0.10"),
		}},
		Contracts: []billing.Contract{
			{ID: 1, ClientID: 1, StartDate: date("2024-01-10"), DurationMonths: 1, TotalValue: money("1000.00")},
		},
		Payments: []billing.Payment{
			{ID: 1, ContractID: 1, InstallmentNumber: 1, Amount: money("1000.00"), DueDate: date("2024-02-10"), Status: billing.StatusOpen},
		},
	}

	updates := billing.OverdueUpdates(snap, date("2024-02-15"))
	if len(updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(updates))
	}
	if updates[0].Status != billing.StatusOverdue {
		t.Errorf("expected OVERDUE, got %s", updates[0].Status)
	}
	if !updates[0].Amount.Equal(money("1036.67")) {
		t.Errorf("expected late charges applied (1036.67), got %s", updates[0].Amount)
	}
}

func TestOverdueUpdates_InterestKeepsAccruing(t *testing.T) {
	// An already-OVERDUE payment of a client with rates gets re-charged
	// each run: the amount grows day by day.
	snap := billing.Snapshot{
		Clients: []billing.Client{{
			ID:                  1,
			MonthlyInterestRate: money("0.10"),
		}},
		Contracts: []billing.Contract{
			{ID: 1, ClientID: 1, StartDate: date("2024-01-10"), DurationMonths: 1, TotalValue: money("1000.00")},
		},
		Payments: []billing.Payment{
			{ID: 1, ContractID: 1, InstallmentNumber: 1, Amount: money("1016.67"), OriginalAmount: money("1000.00"), DueDate: date("2024-02-10"), Status: billing.StatusOverdue},
		},
	}

	updates := billing.OverdueUpdates(snap, date("2024-02-20"))
	if len(updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(updates))
	}
	// 10 days late: 1000 * 10/30 * 0.10 = 33.33
	if !updates[0].Amount.Equal(money("1033.33")) {
		t.Errorf("expected 1033.33, got %s", updates[0].Amount)
	}
}

func TestOverdueUpdates_SettledAndCurrentSkipped(t *testing.T) {
	snap := portfolioSnapshot()

	updates := billing.OverdueUpdates(snap, refDate)
	for _, u := range updates {
		if u.Status.Settled() {
			t.Errorf("settled payment %d must never be rewritten", u.ID)
		}
		if u.ID >= 4 && u.ID <= 6 {
			t.Errorf("current payment %d must not be rewritten", u.ID)
		}
	}
}

func TestOverdueUpdates_Idempotent(t *testing.T) {
	snap := portfolioSnapshot()

	first := billing.OverdueUpdates(snap, refDate)

	// Apply the updates, then run again: nothing further to do.
	for _, u := range first {
		for i, p := range snap.Payments {
			if p.ID == u.ID {
				snap.Payments[i] = u
			}
		}
	}

	second := billing.OverdueUpdates(snap, refDate)
	if len(second) != 0 {
		t.Errorf("second run should be a no-op, got %d updates", len(second))
	}
}
