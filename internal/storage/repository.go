package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rewards/internal/core"
	"rewards/internal/log"

	_ "modernc.org/sqlite"
)

// DefaultDSN is a named, shared-cache, in-memory database. Data lives as long
// as the repository keeps a connection open.
const DefaultDSN = "file:rewards?mode=memory&cache=shared"

// IsInMemoryDSN reports whether dsn refers to a shared in-memory database.
func IsInMemoryDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "file:") &&
		strings.Contains(dsn, "mode=memory") &&
		strings.Contains(dsn, "cache=shared")
}

type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

// Option configures a SQLiteRepository.
type Option func(*SQLiteRepository)

// WithLogger sets the repository logger.
func WithLogger(l *log.Logger) Option {
	return func(r *SQLiteRepository) {
		if l != nil {
			r.logger = l
		}
	}
}

func NewSQLiteRepository(dsn string, opts ...Option) (*SQLiteRepository, error) {
	if !IsInMemoryDSN(dsn) {
		return nil, fmt.Errorf("sqlite dsn %q: only shared in-memory databases are supported", dsn)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection serializes access and keeps the in-memory database alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{db: db, logger: log.Discard()}
	for _, opt := range opts {
		opt(repo)
	}
	repo.logger = repo.logger.WithComponent(log.ComponentStorage)
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// AddTransaction implements store.TransactionWriter
func (r *SQLiteRepository) AddTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, customer_id, amount, tx_date) VALUES (?, ?, ?, ?)`,
		tx.ID, tx.CustomerID, tx.Amount.String(), tx.Date.String())
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	r.logger.DebugContext(ctx, "Transaction saved to SQLite",
		log.NewFields().
			WithTransaction(tx.ID, tx.CustomerID, tx.Amount.String(), tx.Date.String()).
			WithOperation(log.OpCreate).ToSlice()...)

	return nil
}

// TransactionsByCustomer implements store.TransactionReader
func (r *SQLiteRepository) TransactionsByCustomer(ctx context.Context, customerID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, customer_id, amount, tx_date FROM transactions WHERE customer_id = ? ORDER BY seq`,
		customerID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txs := []core.Transaction{}
	for rows.Next() {
		var (
			tx           core.Transaction
			amount, date string
		)
		if err := rows.Scan(&tx.ID, &tx.CustomerID, &amount, &date); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("decode amount for %s: %w", tx.ID, err)
		}
		if tx.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("decode date for %s: %w", tx.ID, err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	r.logger.DebugContext(ctx, "Loaded transactions from SQLite",
		log.FieldCustomerID, customerID,
		log.FieldOperation, log.OpRead,
		"count", len(txs))
	return txs, nil
}

// CustomerIDs implements store.TransactionReader
func (r *SQLiteRepository) CustomerIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT customer_id FROM transactions ORDER BY customer_id`)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return ids, nil
}
