// Package seed loads the startup transaction set into any store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"rewards/internal/core"
	"rewards/internal/store"
)

// File is the file FromDir looks for in the seed directory.
const File = "seed_transactions.yaml"

type document struct {
	Transactions []row `yaml:"transactions"`
}

type row struct {
	CustomerID string `yaml:"customerId"`
	Amount     string `yaml:"amount"`
	Date       string `yaml:"date"`
}

var defaults = []row{
	{CustomerID: "cust1", Amount: "120", Date: "2025-01-15"},
	{CustomerID: "cust1", Amount: "75", Date: "2025-02-03"},
	{CustomerID: "cust2", Amount: "99.99", Date: "2025-01-05"},
	{CustomerID: "cust3", Amount: "200", Date: "2025-03-21"},
}

// Load reads dir/seed_transactions.yaml. A missing file yields a small
// built-in data set; an empty document yields no transactions.
func Load(dir string) ([]core.Transaction, error) {
	rows, err := readRows(filepath.Join(dir, File))
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = defaults
	}

	txs := make([]core.Transaction, 0, len(rows))
	for i, r := range rows {
		amount, err := core.ParseAmount(r.Amount)
		if err != nil {
			return nil, fmt.Errorf("seed row %d: %w", i, err)
		}
		date, err := core.ParseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("seed row %d: %w", i, err)
		}
		tx, err := core.NewTransaction(r.CustomerID, amount, date)
		if err != nil {
			return nil, fmt.Errorf("seed row %d: %w", i, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// Apply inserts txs in order.
func Apply(ctx context.Context, w store.TransactionWriter, txs []core.Transaction) error {
	for i, tx := range txs {
		if err := w.AddTransaction(ctx, tx); err != nil {
			return fmt.Errorf("seed transaction %d: %w", i, err)
		}
	}
	return nil
}

// FromDir loads dir's seed file into w and returns how many transactions
// were inserted. Nothing is inserted when the file is invalid.
func FromDir(ctx context.Context, dir string, w store.TransactionWriter) (int, error) {
	txs, err := Load(dir)
	if err != nil {
		return 0, err
	}
	if err := Apply(ctx, w, txs); err != nil {
		return 0, err
	}
	return len(txs), nil
}

func readRows(path string) ([]row, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	if doc.Transactions == nil {
		return []row{}, nil
	}
	return doc.Transactions, nil
}
