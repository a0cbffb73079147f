package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"rewards/internal/core"
)

// Store keeps every customer's transactions in process memory.
type Store struct {
	mu    sync.RWMutex
	items map[string][]core.Transaction
}

func New() *Store {
	return &Store{items: make(map[string][]core.Transaction)}
}

// AddTransaction stores the transaction, assigning an ID when it has none.
func (s *Store) AddTransaction(_ context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[tx.CustomerID] = append(s.items[tx.CustomerID], tx)
	return nil
}

// TransactionsByCustomer returns a copy of the customer's history.
func (s *Store) TransactionsByCustomer(_ context.Context, customerID string) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Transaction{}, s.items[customerID]...), nil
}

// CustomerIDs returns known customers sorted by id.
func (s *Store) CustomerIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids, nil
}

// Len returns the total number of stored transactions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, txs := range s.items {
		n += len(txs)
	}
	return n
}
