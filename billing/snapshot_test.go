package billing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/warp/collections-engine/billing"
	"github.com/warp/collections-engine/billing/store"
)

func TestLoad_FromMemoryStore(t *testing.T) {
	m := store.NewMemory()
	client := m.AddClient(billing.Client{Name: "Acme Distribution"})
	contract, payments := m.AddContract(
		billing.Contract{ClientID: client.ID, DurationMonths: 2, TotalValue: money("200.00"), StartDate: date("2024-01-01")},
		[]billing.Payment{
			{InstallmentNumber: 1, Amount: money("100.00"), DueDate: date("2024-02-01"), Status: billing.StatusOpen},
			{InstallmentNumber: 2, Amount: money("100.00"), DueDate: date("2024-03-01"), Status: billing.StatusOpen},
		},
	)

	snap, report := billing.Load(context.Background(), m)
	if !report.OK() {
		t.Fatalf("expected clean load, got %+v", report)
	}
	if len(snap.Clients) != 1 || len(snap.Contracts) != 1 || len(snap.Payments) != 2 {
		t.Fatalf("unexpected snapshot sizes: %d/%d/%d",
			len(snap.Clients), len(snap.Contracts), len(snap.Payments))
	}
	if _, ok := snap.ContractByID(contract.ID); !ok {
		t.Error("contract missing from snapshot")
	}
	if payments[0].ContractID != contract.ID {
		t.Error("payments not stamped with contract id")
	}
}

// failingFetcher wraps a Fetcher, failing selected collections.
type failingFetcher struct {
	billing.Fetcher
	failPayments bool
}

var errUnavailable = errors.New("collection unavailable")

func (f failingFetcher) FetchPayments(ctx context.Context) ([]billing.Payment, error) {
	if f.failPayments {
		return nil, errUnavailable
	}
	return f.Fetcher.FetchPayments(ctx)
}

func TestLoad_PartialFailure_KeepsOtherCollections(t *testing.T) {
	m := store.NewMemory()
	m.AddClient(billing.Client{Name: "Acme Distribution"})

	snap, report := billing.Load(context.Background(), failingFetcher{Fetcher: m, failPayments: true})

	if report.OK() {
		t.Fatal("expected a load failure to be reported")
	}
	if !errors.Is(report.PaymentsErr, errUnavailable) {
		t.Errorf("expected payments error recorded, got %v", report.PaymentsErr)
	}
	if !errors.Is(report.Err(), errUnavailable) {
		t.Errorf("expected collapsed error, got %v", report.Err())
	}
	if len(snap.Clients) != 1 {
		t.Error("clients should still be available")
	}
	if snap.Payments != nil {
		t.Error("failed collection should come back empty")
	}
}
