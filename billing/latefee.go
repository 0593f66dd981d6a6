/*
latefee.go - Late-charge calculation for overdue payments

PURPOSE:
  Clients may carry a one-time late fee and a simple monthly interest rate.
  Both are computed from the payment's original amount, so re-running the
  calculation on a later day replaces the previous charge instead of
  compounding it (idempotent recomputation).

FORMULA:
  amount = original * (1 + lateFeeRate)
         + original * (daysLate / 30) * monthlyInterestRate
  rounded to 2 decimal places.

  Example: 1000.00 at 2% fee and 10%/month interest, 5 days late:
  fee 20.00, interest 1000 * 5/30 * 0.10 = 16.67, total 1036.67.
*/
package billing

import "github.com/shopspring/decimal"

var daysPerMonth = decimal.NewFromInt(30)

// ApplyLateCharges returns a copy of p with the client's late fee and
// simple daily interest applied as of the reference date. The input is not
// mutated. Payments that are not past due, or clients without configured
// rates, come back unchanged.
func ApplyLateCharges(p Payment, client Client, asOf Date) Payment {
	if !client.HasLateCharges() {
		return p
	}

	daysLate := p.DueDate.DaysBetween(asOf)
	if daysLate <= 0 {
		return p
	}

	updated := p
	if updated.OriginalAmount.IsZero() {
		updated.OriginalAmount = p.Amount
	}
	original := updated.OriginalAmount

	amount := original
	if client.LateFeeRate.IsPositive() {
		amount = amount.Add(original.Mul(client.LateFeeRate))
		updated.LateFeeApplied = true
	}
	if client.MonthlyInterestRate.IsPositive() {
		interest := original.
			Mul(decimal.NewFromInt(int64(daysLate))).
			Div(daysPerMonth).
			Mul(client.MonthlyInterestRate)
		amount = amount.Add(interest)
	}

	updated.Amount = amount.Round(2)
	return updated
}
