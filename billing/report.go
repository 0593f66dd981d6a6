/*
report.go - Period report generation

PURPOSE:
  Financial summary over payments due within a period, optionally narrowed
  to one client: counts by effective status, early-payment count, received
  and outstanding totals, delinquency and early-payment percentages.

  Reports are the one query surface where a bad request is an error rather
  than an empty projection: a missing or inverted period and an unknown
  client id are rejected, matching the behavior the report screen relies on.
*/
package billing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ReportRequest bounds a report. ClientID nil = all clients. Both period
// bounds are inclusive and apply to the due date.
type ReportRequest struct {
	From     Date
	To       Date
	ClientID *ClientID
}

// Report is the computed period summary. Counts use effective status as of
// the reference date, so a stale-open payment past due counts as overdue.
type Report struct {
	From       Date
	To         Date
	ClientID   *ClientID
	ClientName string // "All clients" when unfiltered

	TotalPayments int
	PaidCount     int // PAID + PAID_LATE
	OverdueCount  int
	OpenCount     int
	PaidEarly     int // settled strictly before the due date

	TotalReceived    decimal.Decimal
	TotalOutstanding decimal.Decimal

	DelinquencyPct decimal.Decimal // overdue / total * 100
	PaidEarlyPct   decimal.Decimal // early / total * 100
}

// BuildReport computes the period summary from a snapshot. It returns
// ErrMissingPeriod / ErrInvalidPeriod for bad bounds and ErrClientNotFound
// when the client filter references an unknown client.
func BuildReport(snap Snapshot, req ReportRequest, asOf Date) (Report, error) {
	if req.From.IsZero() || req.To.IsZero() {
		return Report{}, ErrMissingPeriod
	}
	if req.From.After(req.To) {
		return Report{}, ErrInvalidPeriod
	}

	report := Report{
		From:       req.From,
		To:         req.To,
		ClientID:   req.ClientID,
		ClientName: "All clients",

		TotalReceived:    decimal.Zero,
		TotalOutstanding: decimal.Zero,
		DelinquencyPct:   decimal.Zero,
		PaidEarlyPct:     decimal.Zero,
	}

	contractIDs := make(map[ContractID]bool)
	if req.ClientID != nil {
		client, ok := snap.ClientByID(*req.ClientID)
		if !ok {
			return Report{}, ErrClientNotFound
		}
		report.ClientName = client.Name
		for _, c := range snap.Contracts {
			if c.ClientID == *req.ClientID {
				contractIDs[c.ID] = true
			}
		}
	}

	for _, p := range snap.Payments {
		if req.ClientID != nil && !contractIDs[p.ContractID] {
			continue
		}
		if p.DueDate.Before(req.From) || p.DueDate.After(req.To) {
			continue
		}

		report.TotalPayments++
		switch EffectiveStatus(p, asOf) {
		case StatusPaid, StatusPaidLate:
			report.PaidCount++
			report.TotalReceived = report.TotalReceived.Add(p.Amount)
			if p.PaidOn != nil && p.PaidOn.Before(p.DueDate) {
				report.PaidEarly++
			}
		case StatusOverdue:
			report.OverdueCount++
			report.TotalOutstanding = report.TotalOutstanding.Add(p.Amount)
		case StatusOpen:
			report.OpenCount++
			report.TotalOutstanding = report.TotalOutstanding.Add(p.Amount)
		}
	}

	if report.TotalPayments > 0 {
		total := decimal.NewFromInt(int64(report.TotalPayments))
		report.DelinquencyPct = decimal.NewFromInt(int64(report.OverdueCount)).
			Mul(hundred).Div(total).Round(2)
		report.PaidEarlyPct = decimal.NewFromInt(int64(report.PaidEarly)).
			Mul(hundred).Div(total).Round(2)
	}

	return report, nil
}
