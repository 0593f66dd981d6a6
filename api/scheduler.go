/*
scheduler.go - Automated overdue reconciliation scheduler

PURPOSE:
  Periodically rewrites stale payment statuses: any OPEN payment past its
  due date becomes OVERDUE, with the owning client's late charges applied.
  The engine derives the same answer on the fly; this job makes the stored
  rows agree with it.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - The rewrite itself is date-driven, so it only needs to happen once per
    calendar day; a persisted last-run date guards against repeats across
    ticks and restarts
  - All updates for one run are persisted in a single transaction
  - Each run gets a UUID for log correlation

USAGE:
  scheduler := NewReconciliationScheduler(store)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - billing/reconcile.go: the pure computation of what to rewrite
  - handlers.go: TriggerReconcile endpoint (manual run)
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/collections-engine/billing"
	"github.com/warp/collections-engine/store/sqlite"
)

// ReconciliationScheduler keeps persisted payment statuses in sync with
// the calendar.
type ReconciliationScheduler struct {
	Store         *sqlite.Store
	CheckInterval time.Duration
	Enabled       bool

	// Now supplies the reference date; tests pin it.
	Now func() billing.Date

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewReconciliationScheduler creates a new scheduler.
func NewReconciliationScheduler(store *sqlite.Store) *ReconciliationScheduler {
	return &ReconciliationScheduler{
		Store:         store,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		Now:           billing.Today,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (rs *ReconciliationScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)

	go rs.run()

	log.Printf("[Scheduler] Started with check interval: %v", rs.CheckInterval)
}

// Stop stops the scheduler.
func (rs *ReconciliationScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (rs *ReconciliationScheduler) run() {
	defer rs.wg.Done()

	// Run immediately on start
	rs.checkAndProcess()

	for {
		select {
		case <-rs.ticker.C:
			rs.checkAndProcess()
		case <-rs.stop:
			return
		}
	}
}

func (rs *ReconciliationScheduler) checkAndProcess() {
	ctx := context.Background()

	result, err := Reconcile(ctx, rs.Store, rs.Now(), false)
	if err != nil {
		log.Printf("[Scheduler] Reconciliation failed: %v", err)
		return
	}
	if result.Skipped {
		return
	}
	log.Printf("[Scheduler] Run %s completed: %d payment(s) updated for %s",
		result.RunID, result.Updated, result.Date)
}

// RunNow triggers an immediate check (for testing/admin).
func (rs *ReconciliationScheduler) RunNow() {
	rs.checkAndProcess()
}

// Reconcile performs one reconciliation pass as of the given date: loads
// the portfolio, computes the stale-status rewrites, persists them
// atomically, and records the run date. With force unset the pass is
// skipped when a run was already recorded for today or later.
func Reconcile(ctx context.Context, store *sqlite.Store, asOf billing.Date, force bool) (ReconcileResultDTO, error) {
	result := ReconcileResultDTO{Date: asOf.String()}

	if !force {
		lastRun, ok, err := store.LastReconciledOn(ctx)
		if err != nil {
			return result, err
		}
		if ok && !lastRun.Before(asOf) {
			result.Skipped = true
			return result, nil
		}
	}

	result.RunID = uuid.NewString()

	snap, report := billing.Load(ctx, store)
	if err := report.Err(); err != nil {
		return result, err
	}

	updates := billing.OverdueUpdates(snap, asOf)
	if err := store.UpdatePaymentsBatch(ctx, updates); err != nil {
		return result, err
	}
	if err := store.SetLastReconciledOn(ctx, asOf); err != nil {
		return result, err
	}

	result.Updated = len(updates)
	return result, nil
}
