package store

import (
	"context"

	"rewards/internal/core"
)

// Ports for transaction storage backends.
type (
	TransactionWriter interface {
		// AddTransaction validates and appends tx to its customer's history.
		// Invalid transactions fail with core.ErrInvalidTransaction and leave
		// the store unchanged.
		AddTransaction(ctx context.Context, tx core.Transaction) error
	}

	TransactionReader interface {
		// TransactionsByCustomer returns the customer's history in insertion
		// order. Unknown customers yield an empty slice.
		TransactionsByCustomer(ctx context.Context, customerID string) ([]core.Transaction, error)

		// CustomerIDs lists every customer with at least one transaction.
		CustomerIDs(ctx context.Context) ([]string, error)
	}

	TransactionStore interface {
		TransactionWriter
		TransactionReader
	}
)
