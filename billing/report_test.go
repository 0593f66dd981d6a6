package billing_test

import (
	"errors"
	"testing"

	"github.com/warp/collections-engine/billing"
)

func fullPeriod() billing.ReportRequest {
	return billing.ReportRequest{
		From: date("2024-01-01"),
		To:   date("2024-12-31"),
	}
}

func TestBuildReport_CountsAndTotals(t *testing.T) {
	report, err := billing.BuildReport(portfolioSnapshot(), fullPeriod(), refDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.TotalPayments != 7 {
		t.Errorf("expected 7 payments in period, got %d", report.TotalPayments)
	}
	if report.PaidCount != 2 {
		t.Errorf("expected 2 paid, got %d", report.PaidCount)
	}
	// Persisted OVERDUE (#2) plus stale-open (#3).
	if report.OverdueCount != 2 {
		t.Errorf("expected 2 overdue, got %d", report.OverdueCount)
	}
	if report.OpenCount != 3 {
		t.Errorf("expected 3 open, got %d", report.OpenCount)
	}

	if !report.TotalReceived.Equal(money("105.00")) {
		t.Errorf("expected received 105.00, got %s", report.TotalReceived)
	}
	if !report.TotalOutstanding.Equal(money("125.00")) {
		t.Errorf("expected outstanding 125.00, got %s", report.TotalOutstanding)
	}
	if report.ClientName != "All clients" {
		t.Errorf("unexpected client name %q", report.ClientName)
	}
}

func TestBuildReport_Percentages(t *testing.T) {
	report, err := billing.BuildReport(portfolioSnapshot(), fullPeriod(), refDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 2 of 7 overdue = 28.57%.
	if !report.DelinquencyPct.Equal(money("28.57")) {
		t.Errorf("expected delinquency 28.57, got %s", report.DelinquencyPct)
	}
	// Client 2 paid two days early; client 1's #1 paid on the due date.
	if report.PaidEarly != 1 {
		t.Errorf("expected 1 early payment, got %d", report.PaidEarly)
	}
	if !report.PaidEarlyPct.Equal(money("14.29")) {
		t.Errorf("expected early pct 14.29, got %s", report.PaidEarlyPct)
	}
}

func TestBuildReport_ClientFilter(t *testing.T) {
	req := fullPeriod()
	clientID := billing.ClientID(2)
	req.ClientID = &clientID

	report, err := billing.BuildReport(portfolioSnapshot(), req, refDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.TotalPayments != 1 || report.PaidCount != 1 {
		t.Errorf("expected client 2's single paid payment, got %+v", report)
	}
	if report.ClientName != "Beta Services" {
		t.Errorf("unexpected client name %q", report.ClientName)
	}
	if !report.TotalOutstanding.IsZero() {
		t.Errorf("expected zero outstanding, got %s", report.TotalOutstanding)
	}
}

func TestBuildReport_PeriodNarrowsByDueDate(t *testing.T) {
	req := billing.ReportRequest{
		From: date("2024-02-01"),
		To:   date("2024-02-29"),
	}

	report, err := billing.BuildReport(portfolioSnapshot(), req, refDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Due in February: #2, #3 (client 1) and client 2's payment.
	if report.TotalPayments != 3 {
		t.Errorf("expected 3 payments due in February, got %d", report.TotalPayments)
	}
}

func TestBuildReport_Validation(t *testing.T) {
	snap := portfolioSnapshot()

	_, err := billing.BuildReport(snap, billing.ReportRequest{To: date("2024-12-31")}, refDate)
	if !errors.Is(err, billing.ErrMissingPeriod) {
		t.Errorf("expected ErrMissingPeriod, got %v", err)
	}

	_, err = billing.BuildReport(snap, billing.ReportRequest{
		From: date("2024-12-31"), To: date("2024-01-01"),
	}, refDate)
	if !errors.Is(err, billing.ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}

	unknown := billing.ClientID(999)
	req := fullPeriod()
	req.ClientID = &unknown
	_, err = billing.BuildReport(snap, req, refDate)
	if !errors.Is(err, billing.ErrClientNotFound) {
		t.Errorf("expected ErrClientNotFound, got %v", err)
	}
}

func TestBuildReport_EmptyPeriod_ZeroPercentages(t *testing.T) {
	req := billing.ReportRequest{
		From: date("2030-01-01"),
		To:   date("2030-12-31"),
	}

	report, err := billing.BuildReport(portfolioSnapshot(), req, refDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TotalPayments != 0 || !report.DelinquencyPct.IsZero() || !report.PaidEarlyPct.IsZero() {
		t.Errorf("empty period should produce zeroes, got %+v", report)
	}
}
