package sqlite_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/collections-engine/billing"
	"github.com/warp/collections-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testClient() billing.Client {
	return billing.Client{
		Name:                "Acme Distribution",
		Address:             "12 Dock Road",
		Registration:        "12.345.678/0001-90",
		Phone:               "555-0101",
		Bank:                "First National",
		DueDay:              10,
		LateFeeRate:         decimal.RequireFromString("0.02"),
		MonthlyInterestRate: decimal.RequireFromString("0.10"),
	}
}

func createContractWithSchedule(t *testing.T, store *sqlite.Store, clientID billing.ClientID) (billing.Contract, []billing.Payment) {
	contract := billing.Contract{
		ClientID:       clientID,
		ContractorName: "Acme Distribution",
		StartDate:      billing.MustParseDate("2024-01-10"),
		DurationMonths: 3,
		TotalValue:     decimal.RequireFromString("300.00"),
	}
	payments, err := billing.GenerateInstallments(contract, billing.DefaultFirstDue(contract), billing.MustParseDate("2024-01-10"))
	require.NoError(t, err)

	created, inserted, err := store.CreateContract(context.Background(), contract, payments)
	require.NoError(t, err)
	return created, inserted
}

// =============================================================================
// CLIENT TESTS
// =============================================================================

func TestStore_ClientRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateClient(ctx, testClient())
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := store.GetClient(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Distribution", got.Name)
	assert.True(t, got.LateFeeRate.Equal(decimal.RequireFromString("0.02")))
	assert.True(t, got.MonthlyInterestRate.Equal(decimal.RequireFromString("0.10")))
	assert.Equal(t, 10, got.DueDay)
}

func TestStore_UpdateClient(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateClient(ctx, testClient())
	require.NoError(t, err)

	created.Name = "Acme Holdings"
	created.LateFeeRate = decimal.Zero
	_, err = store.UpdateClient(ctx, created)
	require.NoError(t, err)

	got, err := store.GetClient(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Holdings", got.Name)
	assert.False(t, got.HasLateCharges() && got.LateFeeRate.IsPositive())
}

func TestStore_GetClient_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetClient(context.Background(), 999)
	assert.ErrorIs(t, err, billing.ErrClientNotFound)
	assert.True(t, billing.IsNotFound(err))
}

func TestStore_DeleteClient_Cascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	client, err := store.CreateClient(ctx, testClient())
	require.NoError(t, err)
	contract, payments := createContractWithSchedule(t, store, client.ID)

	require.NoError(t, store.DeleteClient(ctx, client.ID))

	_, err = store.GetContract(ctx, contract.ID)
	assert.ErrorIs(t, err, billing.ErrContractNotFound)
	_, err = store.GetPayment(ctx, payments[0].ID)
	assert.ErrorIs(t, err, billing.ErrPaymentNotFound)
}

// =============================================================================
// CONTRACT TESTS
// =============================================================================

func TestStore_CreateContract_InsertsSchedule(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	client, err := store.CreateClient(ctx, testClient())
	require.NoError(t, err)
	contract, inserted := createContractWithSchedule(t, store, client.ID)

	assert.NotZero(t, contract.ID)
	require.Len(t, inserted, 3)
	for i, p := range inserted {
		assert.NotZero(t, p.ID)
		assert.Equal(t, contract.ID, p.ContractID)
		assert.Equal(t, i+1, p.InstallmentNumber)
	}

	payments, err := store.ListPayments(ctx)
	require.NoError(t, err)
	assert.Len(t, payments, 3)
}

func TestStore_DeleteContract_CascadesPayments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	client, err := store.CreateClient(ctx, testClient())
	require.NoError(t, err)
	contract, payments := createContractWithSchedule(t, store, client.ID)

	require.NoError(t, store.DeleteContract(ctx, contract.ID))

	_, err = store.GetPayment(ctx, payments[0].ID)
	assert.ErrorIs(t, err, billing.ErrPaymentNotFound)

	// Client survives.
	_, err = store.GetClient(ctx, client.ID)
	assert.NoError(t, err)
}

// =============================================================================
// PAYMENT TESTS
// =============================================================================

func TestStore_UpdatePayment_MarkPaidRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	client, err := store.CreateClient(ctx, testClient())
	require.NoError(t, err)
	_, payments := createContractWithSchedule(t, store, client.ID)

	paid := billing.MarkPaid(payments[0], billing.MustParseDate("2024-02-09"))
	_, err = store.UpdatePayment(ctx, paid)
	require.NoError(t, err)

	got, err := store.GetPayment(ctx, payments[0].ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPaid, got.Status)
	require.NotNil(t, got.PaidOn)
	assert.True(t, got.PaidOn.Equal(billing.MustParseDate("2024-02-09")))
	assert.Equal(t, "Paid on 2024-02-09", got.Note)
}

func TestStore_UpdatePayment_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.UpdatePayment(context.Background(), billing.Payment{
		ID:      999,
		Amount:  decimal.RequireFromString("10.00"),
		DueDate: billing.MustParseDate("2024-01-01"),
		Status:  billing.StatusOpen,
	})
	assert.ErrorIs(t, err, billing.ErrPaymentNotFound)
}

func TestStore_UpdatePaymentsBatch_Atomic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	client, err := store.CreateClient(ctx, testClient())
	require.NoError(t, err)
	_, payments := createContractWithSchedule(t, store, client.ID)

	good := payments[0]
	good.Status = billing.StatusOverdue
	bogus := payments[1]
	bogus.ID = 999

	err = store.UpdatePaymentsBatch(ctx, []billing.Payment{good, bogus})
	require.Error(t, err)

	// The failed batch must not have persisted the good update either.
	got, err := store.GetPayment(ctx, payments[0].ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusOpen, got.Status)
}

// =============================================================================
// RECONCILIATION STATE TESTS
// =============================================================================

func TestStore_ReconciliationState(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, ok, err := store.LastReconciledOn(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "fresh database has no last run")

	day1 := billing.MustParseDate("2024-03-01")
	require.NoError(t, store.SetLastReconciledOn(ctx, day1))

	got, ok, err := store.LastReconciledOn(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Equal(day1))

	// Upsert replaces.
	day2 := billing.MustParseDate("2024-03-02")
	require.NoError(t, store.SetLastReconciledOn(ctx, day2))
	got, _, err = store.LastReconciledOn(ctx)
	require.NoError(t, err)
	assert.True(t, got.Equal(day2))
}

// =============================================================================
// FETCHER TESTS
// =============================================================================

func TestStore_FetchFeedsEngine(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	client, err := store.CreateClient(ctx, testClient())
	require.NoError(t, err)
	createContractWithSchedule(t, store, client.ID)

	snap, report := billing.Load(ctx, store)
	require.True(t, report.OK())

	eng := billing.NewEngine(snap)
	receivable := eng.TotalReceivable(client.ID)
	assert.True(t, receivable.Equal(decimal.RequireFromString("300.00")),
		"expected 300.00 receivable, got %s", receivable)
}
