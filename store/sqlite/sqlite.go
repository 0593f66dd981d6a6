/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements persistence for clients, contracts, and payments, plus the
  reconciliation bookkeeping row. In production the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  billing.Fetcher:       wholesale collection loads for the engine
  billing.PaymentWriter: payment updates (mark-as-paid, edits, reconcile)

KEY TABLES:
  clients:              account holders and their late-charge rates
  contracts:            installment agreements (FK to clients, cascade)
  payments:             scheduled installments (FK to contracts, cascade)
  reconciliation_state: single-row last-run date for the daily job

CASCADE SEMANTICS:
  Payments are created only in bulk with their contract and deleted only by
  cascade: deleting a contract removes its payments, deleting a client
  removes its contracts and transitively their payments. Enforced by
  foreign keys with ON DELETE CASCADE.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block, single writer at a time.

USAGE:
  store, err := sqlite.New("./data/collections.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - billing/snapshot.go: the interfaces this store satisfies
  - billing/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/collections-engine/billing"
)

// Store implements the storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS clients (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		registration TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		bank TEXT NOT NULL DEFAULT '',
		due_day INTEGER NOT NULL DEFAULT 0,
		late_fee_rate TEXT NOT NULL DEFAULT '0',
		monthly_interest_rate TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS contracts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_id INTEGER NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		contractor_name TEXT NOT NULL,
		contractor_registration TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL,
		duration_months INTEGER NOT NULL,
		total_value TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_contracts_client
		ON contracts(client_id);

	CREATE TABLE IF NOT EXISTS payments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		contract_id INTEGER NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		installment_number INTEGER NOT NULL,
		amount TEXT NOT NULL,
		due_date TEXT NOT NULL,
		paid_on TEXT,
		status TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		original_amount TEXT NOT NULL DEFAULT '0',
		late_fee_applied INTEGER NOT NULL DEFAULT 0,
		UNIQUE(contract_id, installment_number)
	);

	CREATE INDEX IF NOT EXISTS idx_payments_contract
		ON payments(contract_id);
	CREATE INDEX IF NOT EXISTS idx_payments_due_date
		ON payments(due_date);
	CREATE INDEX IF NOT EXISTS idx_payments_status
		ON payments(status);

	-- Single-row guard for the daily reconciliation job
	CREATE TABLE IF NOT EXISTS reconciliation_state (
		id TEXT PRIMARY KEY,
		last_run_date TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CLIENTS
// =============================================================================

const clientColumns = `id, name, address, registration, phone, bank, due_day,
	late_fee_rate, monthly_interest_rate`

func scanClient(row interface{ Scan(...any) error }) (billing.Client, error) {
	var c billing.Client
	var feeRate, interestRate string
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.Registration, &c.Phone,
		&c.Bank, &c.DueDay, &feeRate, &interestRate)
	if err != nil {
		return billing.Client{}, err
	}
	if c.LateFeeRate, err = decimal.NewFromString(feeRate); err != nil {
		return billing.Client{}, fmt.Errorf("client %d: bad late fee rate: %w", c.ID, err)
	}
	if c.MonthlyInterestRate, err = decimal.NewFromString(interestRate); err != nil {
		return billing.Client{}, fmt.Errorf("client %d: bad interest rate: %w", c.ID, err)
	}
	return c, nil
}

// ListClients returns all clients ordered by id.
func (s *Store) ListClients(ctx context.Context) ([]billing.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []billing.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// GetClient returns one client or billing.ErrClientNotFound.
func (s *Store) GetClient(ctx context.Context, id billing.ClientID) (billing.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return billing.Client{}, billing.ErrClientNotFound
	}
	return c, err
}

// CreateClient inserts a client and returns it with its assigned id.
func (s *Store) CreateClient(ctx context.Context, c billing.Client) (billing.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (name, address, registration, phone, bank, due_day,
			late_fee_rate, monthly_interest_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Address, c.Registration, c.Phone, c.Bank, c.DueDay,
		c.LateFeeRate.String(), c.MonthlyInterestRate.String())
	if err != nil {
		return billing.Client{}, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return billing.Client{}, err
	}
	c.ID = billing.ClientID(id)
	return c, nil
}

// UpdateClient rewrites all mutable fields of the client.
func (s *Store) UpdateClient(ctx context.Context, c billing.Client) (billing.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE clients
		SET name = ?, address = ?, registration = ?, phone = ?, bank = ?,
			due_day = ?, late_fee_rate = ?, monthly_interest_rate = ?
		WHERE id = ?`,
		c.Name, c.Address, c.Registration, c.Phone, c.Bank, c.DueDay,
		c.LateFeeRate.String(), c.MonthlyInterestRate.String(), c.ID)
	if err != nil {
		return billing.Client{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return billing.Client{}, billing.ErrClientNotFound
	}
	return c, nil
}

// DeleteClient removes the client; contracts and payments cascade.
func (s *Store) DeleteClient(ctx context.Context, id billing.ClientID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return billing.ErrClientNotFound
	}
	return nil
}

// =============================================================================
// CONTRACTS
// =============================================================================

const contractColumns = `id, client_id, contractor_name, contractor_registration,
	start_date, duration_months, total_value`

func scanContract(row interface{ Scan(...any) error }) (billing.Contract, error) {
	var c billing.Contract
	var startDate, totalValue string
	err := row.Scan(&c.ID, &c.ClientID, &c.ContractorName, &c.ContractorRegistration,
		&startDate, &c.DurationMonths, &totalValue)
	if err != nil {
		return billing.Contract{}, err
	}
	if c.StartDate, err = billing.ParseDate(startDate); err != nil {
		return billing.Contract{}, fmt.Errorf("contract %d: %w", c.ID, err)
	}
	if c.TotalValue, err = decimal.NewFromString(totalValue); err != nil {
		return billing.Contract{}, fmt.Errorf("contract %d: bad total value: %w", c.ID, err)
	}
	return c, nil
}

// ListContracts returns all contracts ordered by id.
func (s *Store) ListContracts(ctx context.Context) ([]billing.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+contractColumns+` FROM contracts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contracts []billing.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}

// GetContract returns one contract or billing.ErrContractNotFound.
func (s *Store) GetContract(ctx context.Context, id billing.ContractID) (billing.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = ?`, id)
	c, err := scanContract(row)
	if errors.Is(err, sql.ErrNoRows) {
		return billing.Contract{}, billing.ErrContractNotFound
	}
	return c, err
}

// CreateContract inserts the contract and its installment schedule
// atomically. Either the contract and every payment are written, or
// nothing is.
func (s *Store) CreateContract(ctx context.Context, c billing.Contract, payments []billing.Payment) (billing.Contract, []billing.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return billing.Contract{}, nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO contracts (client_id, contractor_name, contractor_registration,
			start_date, duration_months, total_value)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ClientID, c.ContractorName, c.ContractorRegistration,
		c.StartDate.String(), c.DurationMonths, c.TotalValue.String())
	if err != nil {
		return billing.Contract{}, nil, err
	}

	contractID, err := res.LastInsertId()
	if err != nil {
		return billing.Contract{}, nil, err
	}
	c.ID = billing.ContractID(contractID)

	inserted := make([]billing.Payment, len(payments))
	for i, p := range payments {
		p.ContractID = c.ID
		res, err := tx.ExecContext(ctx, `
			INSERT INTO payments (contract_id, installment_number, amount, due_date,
				paid_on, status, note, original_amount, late_fee_applied)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ContractID, p.InstallmentNumber, p.Amount.String(), p.DueDate.String(),
			paidOnValue(p.PaidOn), string(p.Status), p.Note,
			p.OriginalAmount.String(), p.LateFeeApplied)
		if err != nil {
			return billing.Contract{}, nil, err
		}
		paymentID, err := res.LastInsertId()
		if err != nil {
			return billing.Contract{}, nil, err
		}
		p.ID = billing.PaymentID(paymentID)
		inserted[i] = p
	}

	if err := tx.Commit(); err != nil {
		return billing.Contract{}, nil, err
	}
	return c, inserted, nil
}

// UpdateContract rewrites the contract's mutable fields. The installment
// schedule is not regenerated; payments are edited individually.
func (s *Store) UpdateContract(ctx context.Context, c billing.Contract) (billing.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE contracts
		SET contractor_name = ?, contractor_registration = ?, start_date = ?,
			duration_months = ?, total_value = ?
		WHERE id = ?`,
		c.ContractorName, c.ContractorRegistration, c.StartDate.String(),
		c.DurationMonths, c.TotalValue.String(), c.ID)
	if err != nil {
		return billing.Contract{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return billing.Contract{}, billing.ErrContractNotFound
	}
	return c, nil
}

// DeleteContract removes the contract; its payments cascade.
func (s *Store) DeleteContract(ctx context.Context, id billing.ContractID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM contracts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return billing.ErrContractNotFound
	}
	return nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

const paymentColumns = `id, contract_id, installment_number, amount, due_date,
	paid_on, status, note, original_amount, late_fee_applied`

func scanPayment(row interface{ Scan(...any) error }) (billing.Payment, error) {
	var p billing.Payment
	var amount, dueDate, originalAmount, status string
	var paidOn sql.NullString
	err := row.Scan(&p.ID, &p.ContractID, &p.InstallmentNumber, &amount, &dueDate,
		&paidOn, &status, &p.Note, &originalAmount, &p.LateFeeApplied)
	if err != nil {
		return billing.Payment{}, err
	}
	p.Status = billing.Status(status)
	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return billing.Payment{}, fmt.Errorf("payment %d: bad amount: %w", p.ID, err)
	}
	if p.OriginalAmount, err = decimal.NewFromString(originalAmount); err != nil {
		return billing.Payment{}, fmt.Errorf("payment %d: bad original amount: %w", p.ID, err)
	}
	if p.DueDate, err = billing.ParseDate(dueDate); err != nil {
		return billing.Payment{}, fmt.Errorf("payment %d: %w", p.ID, err)
	}
	if paidOn.Valid && paidOn.String != "" {
		d, err := billing.ParseDate(paidOn.String)
		if err != nil {
			return billing.Payment{}, fmt.Errorf("payment %d: %w", p.ID, err)
		}
		p.PaidOn = &d
	}
	return p, nil
}

func paidOnValue(d *billing.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

// ListPayments returns all payments ordered by contract and installment.
func (s *Store) ListPayments(ctx context.Context) ([]billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments ORDER BY contract_id, installment_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []billing.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// GetPayment returns one payment or billing.ErrPaymentNotFound.
func (s *Store) GetPayment(ctx context.Context, id billing.PaymentID) (billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return billing.Payment{}, billing.ErrPaymentNotFound
	}
	return p, err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// UpdatePayment rewrites the payment's mutable fields and returns the
// persisted record. Implements billing.PaymentWriter.
func (s *Store) UpdatePayment(ctx context.Context, p billing.Payment) (billing.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return updatePayment(ctx, s.db, p)
}

func updatePayment(ctx context.Context, db execer, p billing.Payment) (billing.Payment, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE payments
		SET amount = ?, due_date = ?, paid_on = ?, status = ?, note = ?,
			original_amount = ?, late_fee_applied = ?
		WHERE id = ?`,
		p.Amount.String(), p.DueDate.String(), paidOnValue(p.PaidOn),
		string(p.Status), p.Note, p.OriginalAmount.String(), p.LateFeeApplied, p.ID)
	if err != nil {
		return billing.Payment{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return billing.Payment{}, billing.ErrPaymentNotFound
	}
	return p, nil
}

// UpdatePaymentsBatch applies a set of payment updates atomically. Used by
// the reconciliation job so a partial rewrite never persists.
func (s *Store) UpdatePaymentsBatch(ctx context.Context, payments []billing.Payment) error {
	if len(payments) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, p := range payments {
		if _, err := updatePayment(ctx, tx, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// =============================================================================
// FETCHER - Wholesale loads for the engine
// =============================================================================

func (s *Store) FetchClients(ctx context.Context) ([]billing.Client, error) {
	return s.ListClients(ctx)
}

func (s *Store) FetchContracts(ctx context.Context) ([]billing.Contract, error) {
	return s.ListContracts(ctx)
}

func (s *Store) FetchPayments(ctx context.Context) ([]billing.Payment, error) {
	return s.ListPayments(ctx)
}

// Compile-time interface checks.
var (
	_ billing.Fetcher       = (*Store)(nil)
	_ billing.PaymentWriter = (*Store)(nil)
)

// =============================================================================
// RECONCILIATION STATE - Once-per-day guard
// =============================================================================

const reconciliationKey = "payment-status"

// LastReconciledOn returns the date of the last completed reconciliation
// run, or ok=false when the job has never run.
func (s *Store) LastReconciledOn(ctx context.Context) (billing.Date, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var lastRun string
	err := s.db.QueryRowContext(ctx,
		`SELECT last_run_date FROM reconciliation_state WHERE id = ?`, reconciliationKey).
		Scan(&lastRun)
	if errors.Is(err, sql.ErrNoRows) {
		return billing.Date{}, false, nil
	}
	if err != nil {
		return billing.Date{}, false, err
	}

	d, err := billing.ParseDate(lastRun)
	if err != nil {
		return billing.Date{}, false, err
	}
	return d, true, nil
}

// SetLastReconciledOn records a completed reconciliation run.
func (s *Store) SetLastReconciledOn(ctx context.Context, d billing.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reconciliation_state (id, last_run_date) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET last_run_date = excluded.last_run_date`,
		reconciliationKey, d.String())
	return err
}

// DeleteAll clears every table. Scenario loading only.
func (s *Store) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"payments", "contracts", "clients", "reconciliation_state"} {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
	}
	return nil
}
