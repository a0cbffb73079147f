package memory

import (
	"context"

	"rewards/internal/store/seed"
)

// NewFromFiles builds a store seeded from base/seed_transactions.yaml.
// A missing file falls back to a small built-in data set.
func NewFromFiles(base string) (*Store, error) {
	s := New()
	if _, err := seed.FromDir(context.Background(), base, s); err != nil {
		return nil, err
	}
	return s, nil
}
