package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and seed format for transaction dates.
const DateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	// Transaction is a single purchase. It is never modified after it has
	// been accepted by a store.
	Transaction struct {
		ID         string
		CustomerID string
		Amount     decimal.Decimal
		Date       Date
	}
)

var (
	// ErrInvalidTransaction is the only domain failure. Specific causes wrap it.
	ErrInvalidTransaction = errors.New("invalid transaction")

	ErrInvalidAmount   = fmt.Errorf("%w: amount must be greater than zero", ErrInvalidTransaction)
	ErrMalformedAmount = fmt.Errorf("%w: malformed amount", ErrInvalidTransaction)
	ErrEmptyCustomerID = fmt.Errorf("%w: empty customer id", ErrInvalidTransaction)
	ErrInvalidDate     = fmt.Errorf("%w: invalid date", ErrInvalidTransaction)
	ErrPointsOverflow  = fmt.Errorf("%w: reward points out of range", ErrInvalidTransaction)
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a date in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String returns the date in YYYY-MM-DD format.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// NewTransaction builds and validates a transaction in one step.
func NewTransaction(customerID string, amount decimal.Decimal, date Date) (Transaction, error) {
	tx := Transaction{
		CustomerID: strings.TrimSpace(customerID),
		Amount:     amount,
		Date:       date,
	}
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.CustomerID) == "" {
		return ErrEmptyCustomerID
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	return nil
}
