// Package store provides in-memory implementations of the billing data
// access contracts, for tests and development.
package store

import (
	"context"
	"sync"

	"github.com/warp/collections-engine/billing"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements billing.Fetcher and billing.PaymentWriter over maps.
// IDs are assigned sequentially on insert.
type Memory struct {
	mu        sync.RWMutex
	clients   []billing.Client
	contracts []billing.Contract
	payments  []billing.Payment

	nextClient   billing.ClientID
	nextContract billing.ContractID
	nextPayment  billing.PaymentID
}

func NewMemory() *Memory {
	return &Memory{
		nextClient:   1,
		nextContract: 1,
		nextPayment:  1,
	}
}

// AddClient inserts a client and returns it with its assigned id.
func (m *Memory) AddClient(c billing.Client) billing.Client {
	m.mu.Lock()
	defer m.mu.Unlock()

	c.ID = m.nextClient
	m.nextClient++
	m.clients = append(m.clients, c)
	return c
}

// AddContract inserts a contract and its installments. The payments are
// stamped with the contract id and assigned payment ids.
func (m *Memory) AddContract(c billing.Contract, payments []billing.Payment) (billing.Contract, []billing.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c.ID = m.nextContract
	m.nextContract++
	m.contracts = append(m.contracts, c)

	inserted := make([]billing.Payment, len(payments))
	for i, p := range payments {
		p.ID = m.nextPayment
		m.nextPayment++
		p.ContractID = c.ID
		m.payments = append(m.payments, p)
		inserted[i] = p
	}
	return c, inserted
}

// AddPayment inserts a single payment (tests only; production payments are
// created in bulk with their contract).
func (m *Memory) AddPayment(p billing.Payment) billing.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()

	p.ID = m.nextPayment
	m.nextPayment++
	m.payments = append(m.payments, p)
	return p
}

func (m *Memory) FetchClients(_ context.Context) ([]billing.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]billing.Client, len(m.clients))
	copy(result, m.clients)
	return result, nil
}

func (m *Memory) FetchContracts(_ context.Context) ([]billing.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]billing.Contract, len(m.contracts))
	copy(result, m.contracts)
	return result, nil
}

func (m *Memory) FetchPayments(_ context.Context) ([]billing.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]billing.Payment, len(m.payments))
	copy(result, m.payments)
	return result, nil
}

// UpdatePayment replaces the stored payment with the same id.
func (m *Memory) UpdatePayment(_ context.Context, p billing.Payment) (billing.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.payments {
		if existing.ID == p.ID {
			m.payments[i] = p
			return p, nil
		}
	}
	return billing.Payment{}, billing.ErrPaymentNotFound
}

// Compile-time interface checks.
var (
	_ billing.Fetcher       = (*Memory)(nil)
	_ billing.PaymentWriter = (*Memory)(nil)
)
