package store

import (
	"context"
	"sync"

	"github.com/baely/banksync/pkg/model"
)

// Memory is an in-process transaction store. It backs tests and deployments
// without a database configured.
type Memory struct {
	mu           sync.RWMutex
	transactions map[string]model.Transaction
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		transactions: make(map[string]model.Transaction),
	}
}

// Upsert inserts or replaces a transaction keyed by its provider ID
func (m *Memory) Upsert(_ context.Context, tx model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[tx.ID] = tx
	return nil
}

// RemoveByID deletes a transaction if present
func (m *Memory) RemoveByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.transactions, id)
	return nil
}

// Get returns a transaction by ID
func (m *Memory) Get(id string) (model.Transaction, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tx, ok := m.transactions[id]
	return tx, ok
}

// Len returns the number of stored transactions
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.transactions)
}
