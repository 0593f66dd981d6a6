/*
schedule.go - Installment generation for new contracts

PURPOSE:
  Payments are created in bulk when a contract is created: one per month of
  duration, due monthly starting at the first-installment date, each worth
  the contract value divided by the duration. The last installment absorbs
  the cent remainder so the installments always sum to the contract value
  exactly.

SEE ALSO:
  - store/sqlite: persists the contract and its installments atomically
*/
package billing

import "github.com/shopspring/decimal"

// GenerateInstallments builds the payment schedule for a new contract:
// DurationMonths payments numbered 1..n, due monthly from firstDue. Each
// installment starts OPEN — or OVERDUE immediately when its due date is
// already past the reference date, matching the status a reconciliation
// run would assign.
//
// Installment amounts are TotalValue/DurationMonths rounded to cents; the
// final installment is adjusted so the schedule sums to TotalValue.
func GenerateInstallments(contract Contract, firstDue Date, asOf Date) ([]Payment, error) {
	if contract.DurationMonths < 1 {
		return nil, ErrInvalidDuration
	}
	if !contract.TotalValue.IsPositive() {
		return nil, ErrInvalidValue
	}

	n := contract.DurationMonths
	per := contract.TotalValue.Div(decimal.NewFromInt(int64(n))).Round(2)
	last := contract.TotalValue.Sub(per.Mul(decimal.NewFromInt(int64(n - 1))))

	payments := make([]Payment, 0, n)
	for i := 0; i < n; i++ {
		amount := per
		if i == n-1 {
			amount = last
		}

		due := firstDue.AddMonths(i)
		status := StatusOpen
		if due.Before(asOf) {
			status = StatusOverdue
		}

		payments = append(payments, Payment{
			ContractID:        contract.ID,
			InstallmentNumber: i + 1,
			Amount:            amount,
			DueDate:           due,
			Status:            status,
		})
	}
	return payments, nil
}

// DefaultFirstDue returns the conventional first-installment date for a
// contract: one month after the start date.
func DefaultFirstDue(contract Contract) Date {
	return contract.StartDate.AddMonths(1)
}
