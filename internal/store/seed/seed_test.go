package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rewards/internal/core"
)

type recordingWriter struct {
	txs []core.Transaction
	err error
}

func (w *recordingWriter) AddTransaction(_ context.Context, tx core.Transaction) error {
	if w.err != nil {
		return w.err
	}
	w.txs = append(w.txs, tx)
	return nil
}

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, File), []byte(content), 0o644))
	return dir
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	txs, err := Load(t.TempDir())
	require.NoError(t, err)
	require.NotEmpty(t, txs)
	assert.Equal(t, "cust1", txs[0].CustomerID)
	assert.Equal(t, "January", txs[0].Date.Month().String())
}

func TestLoadRepositorySeedFile(t *testing.T) {
	txs, err := Load(filepath.Join("..", "..", "..", "data"))
	require.NoError(t, err)

	var january bool
	for _, tx := range txs {
		if tx.CustomerID == "cust1" && tx.Date.Month().String() == "January" {
			january = true
		}
	}
	assert.True(t, january, "data/seed_transactions.yaml must keep a January transaction for cust1")
}

func TestLoadFile(t *testing.T) {
	dir := writeSeed(t, "transactions:\n  - customerId: a\n    amount: \"10,5\"\n    date: \"2025-07-01\"\n")
	txs, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "10.5", txs[0].Amount.String())

	txs, err = Load(writeSeed(t, "transactions: []\n"))
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestLoadRejectsInvalidRows(t *testing.T) {
	for name, content := range map[string]string{
		"negative amount": "transactions:\n  - customerId: a\n    amount: \"-1\"\n    date: \"2025-06-01\"\n",
		"bad date":        "transactions:\n  - customerId: a\n    amount: \"1\"\n    date: \"June 1\"\n",
		"empty customer":  "transactions:\n  - customerId: \"\"\n    amount: \"1\"\n    date: \"2025-06-01\"\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeSeed(t, content))
			assert.ErrorIs(t, err, core.ErrInvalidTransaction)
		})
	}

	_, err := Load(writeSeed(t, "transactions: {not: a list"))
	assert.Error(t, err)
}

func TestFromDir(t *testing.T) {
	ctx := context.Background()
	w := &recordingWriter{}
	n, err := FromDir(ctx, t.TempDir(), w)
	require.NoError(t, err)
	assert.Equal(t, len(defaults), n)
	assert.Len(t, w.txs, n)

	bad := &recordingWriter{}
	_, err = FromDir(ctx, writeSeed(t, "transactions:\n  - customerId: a\n    amount: \"5\"\n    date: \"2025-06-01\"\n  - customerId: b\n    amount: \"0\"\n    date: \"2025-06-01\"\n"), bad)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	assert.Empty(t, bad.txs, "an invalid file inserts nothing")

	failing := &recordingWriter{err: errors.New("disk full")}
	_, err = FromDir(ctx, t.TempDir(), failing)
	assert.ErrorContains(t, err, "disk full")
}
