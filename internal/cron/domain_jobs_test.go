package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test"})
}

type fakeScanner struct {
	lastNow time.Time
	calls   int
	err     error
}

func (f *fakeScanner) ScanOverdue(ctx context.Context, now time.Time) (int, error) {
	f.calls++
	f.lastNow = now
	return 3, f.err
}

func (f *fakeScanner) ScanExpiry(ctx context.Context, now time.Time) (int, int, error) {
	f.calls++
	f.lastNow = now
	return 2, 5, f.err
}

func (f *fakeScanner) Sweep(ctx context.Context, now time.Time) (int, int, error) {
	f.calls++
	f.lastNow = now
	return 1, 2, f.err
}

func (f *fakeScanner) MaterializeDue(ctx context.Context, now time.Time) (int, error) {
	f.calls++
	f.lastNow = now
	return 4, f.err
}

func (f *fakeScanner) RunDue(ctx context.Context, now time.Time) (int, error) {
	f.calls++
	f.lastNow = now
	return 2, f.err
}

func TestPaymentOverdueJobRunsScan(t *testing.T) {
	now := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	svc := &fakeScanner{}
	jobIface, err := NewPaymentOverdueJob(PaymentOverdueJobParams{Logger: testLogger(), Payments: svc})
	if err != nil {
		t.Fatalf("NewPaymentOverdueJob: %v", err)
	}
	job := jobIface.(*paymentOverdueJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if svc.calls != 1 || !svc.lastNow.Equal(now) {
		t.Fatalf("expected one scan at %s, got %d at %s", now, svc.calls, svc.lastNow)
	}
}

func TestInsuranceExpiryJobPropagatesError(t *testing.T) {
	svc := &fakeScanner{err: errors.New("boom")}
	jobIface, err := NewInsuranceExpiryJob(InsuranceExpiryJobParams{Logger: testLogger(), Insurance: svc})
	if err != nil {
		t.Fatalf("NewInsuranceExpiryJob: %v", err)
	}
	if err := jobIface.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestAuctionSweepJobRunsSweep(t *testing.T) {
	svc := &fakeScanner{}
	jobIface, err := NewAuctionSweepJob(AuctionSweepJobParams{Logger: testLogger(), Auctions: svc})
	if err != nil {
		t.Fatalf("NewAuctionSweepJob: %v", err)
	}
	if err := jobIface.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if svc.calls != 1 {
		t.Fatalf("expected one sweep, got %d", svc.calls)
	}
}

func TestRecurringExpenseJobRunsMaterialization(t *testing.T) {
	svc := &fakeScanner{}
	jobIface, err := NewRecurringExpenseJob(RecurringExpenseJobParams{Logger: testLogger(), Expenses: svc})
	if err != nil {
		t.Fatalf("NewRecurringExpenseJob: %v", err)
	}
	if err := jobIface.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if svc.calls != 1 {
		t.Fatalf("expected one materialization, got %d", svc.calls)
	}
}

func TestScheduledReportJobRunsDueReports(t *testing.T) {
	svc := &fakeScanner{}
	jobIface, err := NewScheduledReportJob(ScheduledReportJobParams{Logger: testLogger(), Reports: svc})
	if err != nil {
		t.Fatalf("NewScheduledReportJob: %v", err)
	}
	if err := jobIface.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if svc.calls != 1 {
		t.Fatalf("expected one run, got %d", svc.calls)
	}
}

func TestLoginHistoryRetentionJobUsesConfiguredWindow(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeLoginHistoryRepo{}
	jobIface, err := NewLoginHistoryRetentionJob(LoginHistoryRetentionJobParams{
		Logger:     testLogger(),
		Repository: repo,
		Retention:  90,
	})
	if err != nil {
		t.Fatalf("NewLoginHistoryRetentionJob: %v", err)
	}
	job := jobIface.(*loginHistoryRetentionJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expected := now.Add(-90 * 24 * time.Hour)
	if !repo.lastCutoff.Equal(expected) {
		t.Fatalf("expected cutoff %s, got %s", expected, repo.lastCutoff)
	}
}

func TestJobConstructorsRequireDependencies(t *testing.T) {
	if _, err := NewPaymentOverdueJob(PaymentOverdueJobParams{Logger: testLogger()}); err == nil {
		t.Fatal("expected error for missing payments service")
	}
	if _, err := NewInsuranceExpiryJob(InsuranceExpiryJobParams{Insurance: &fakeScanner{}}); err == nil {
		t.Fatal("expected error for missing logger")
	}
	if _, err := NewLoginHistoryRetentionJob(LoginHistoryRetentionJobParams{Logger: testLogger()}); err == nil {
		t.Fatal("expected error for missing repository")
	}
}

type fakeLoginHistoryRepo struct {
	lastCutoff time.Time
}

func (f *fakeLoginHistoryRepo) DeleteLoginHistoryBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.lastCutoff = cutoff
	return 9, nil
}
