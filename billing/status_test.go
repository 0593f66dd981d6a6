package billing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/warp/collections-engine/billing"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(s string) billing.Date {
	return billing.MustParseDate(s)
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func openPayment(due string, amount string) billing.Payment {
	return billing.Payment{
		InstallmentNumber: 1,
		Amount:            money(amount),
		DueDate:           date(due),
		Status:            billing.StatusOpen,
	}
}

// =============================================================================
// EFFECTIVE STATUS TESTS
// =============================================================================

func TestEffectiveStatus_OpenPastDue_IsOverdue(t *testing.T) {
	p := openPayment("2024-02-10", "100.00")

	got := billing.EffectiveStatus(p, date("2024-03-01"))
	if got != billing.StatusOverdue {
		t.Errorf("expected OVERDUE, got %s", got)
	}
}

func TestEffectiveStatus_DueToday_IsNotOverdue(t *testing.T) {
	// Boundary: a payment due on the reference date is still on time.
	p := openPayment("2024-03-01", "100.00")

	got := billing.EffectiveStatus(p, date("2024-03-01"))
	if got != billing.StatusOpen {
		t.Errorf("expected OPEN on the due date itself, got %s", got)
	}
}

func TestEffectiveStatus_DueTomorrow_IsOpen(t *testing.T) {
	p := openPayment("2024-03-02", "100.00")

	got := billing.EffectiveStatus(p, date("2024-03-01"))
	if got != billing.StatusOpen {
		t.Errorf("expected OPEN, got %s", got)
	}
}

func TestEffectiveStatus_PersistedOverdue_StaysOverdue(t *testing.T) {
	// An explicitly marked OVERDUE payment stays overdue even if the due
	// date is somehow in the future.
	p := openPayment("2024-06-01", "100.00")
	p.Status = billing.StatusOverdue

	got := billing.EffectiveStatus(p, date("2024-03-01"))
	if got != billing.StatusOverdue {
		t.Errorf("expected OVERDUE, got %s", got)
	}
}

func TestEffectiveStatus_SettledStatuses_Unchanged(t *testing.T) {
	for _, status := range []billing.Status{billing.StatusPaid, billing.StatusPaidLate} {
		p := openPayment("2024-01-10", "100.00")
		p.Status = status

		if got := billing.EffectiveStatus(p, date("2024-03-01")); got != status {
			t.Errorf("expected %s to pass through, got %s", status, got)
		}
	}
}

// =============================================================================
// MARK PAID TESTS
// =============================================================================

func TestMarkPaid_OnDueDate_IsPaid(t *testing.T) {
	p := openPayment("2024-02-10", "100.00")

	got := billing.MarkPaid(p, date("2024-02-10"))
	if got.Status != billing.StatusPaid {
		t.Errorf("paid on due date: expected PAID, got %s", got.Status)
	}
	if got.PaidOn == nil || !got.PaidOn.Equal(date("2024-02-10")) {
		t.Errorf("expected PaidOn 2024-02-10, got %v", got.PaidOn)
	}
}

func TestMarkPaid_BeforeDueDate_IsPaid(t *testing.T) {
	p := openPayment("2024-02-10", "100.00")

	got := billing.MarkPaid(p, date("2024-02-09"))
	if got.Status != billing.StatusPaid {
		t.Errorf("expected PAID, got %s", got.Status)
	}
	if got.Note != "Paid on 2024-02-09" {
		t.Errorf("unexpected note: %q", got.Note)
	}
}

func TestMarkPaid_AfterDueDate_IsPaidLate(t *testing.T) {
	p := openPayment("2024-02-10", "100.00")

	got := billing.MarkPaid(p, date("2024-02-11"))
	if got.Status != billing.StatusPaidLate {
		t.Errorf("expected PAID_LATE, got %s", got.Status)
	}
}

func TestMarkPaid_DoesNotMutateInput(t *testing.T) {
	p := openPayment("2024-02-10", "100.00")

	billing.MarkPaid(p, date("2024-02-11"))
	if p.Status != billing.StatusOpen || p.PaidOn != nil {
		t.Errorf("input payment was mutated: %+v", p)
	}
}

func TestMarkPaid_SettledPaymentStopsBeingOverdue(t *testing.T) {
	// Settling a stale-open payment removes it from overdue views even
	// before reconciliation ever runs.
	p := openPayment("2024-01-10", "100.00")
	paid := billing.MarkPaid(p, date("2024-02-20"))

	if billing.IsOverdue(paid, date("2024-03-01")) {
		t.Error("settled payment should not be overdue")
	}
}
