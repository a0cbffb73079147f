package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"rewards/internal/core"
)

const maxBodyBytes = 1 << 20

// transactionRequest is the POST /transactions body. Amount may be a JSON
// number or a string such as "100,50".
type transactionRequest struct {
	CustomerID string          `json:"customerId"`
	Amount     json.RawMessage `json:"amount"`
	Date       string          `json:"date"`
}

// errBadRequest marks bodies that are not JSON at all.
var errBadRequest = errors.New("malformed request body")

func parseTransaction(w http.ResponseWriter, r *http.Request) (core.Transaction, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	var req transactionRequest
	if err := dec.Decode(&req); err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return core.Transaction{}, fmt.Errorf("%w: trailing data", errBadRequest)
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.NewTransaction(req.CustomerID, amount, date)
}

// parseAmount applies core.ParseAmount to both JSON forms. A number may carry
// a leading minus so the domain reports it as non-positive; exponents and
// oversized numbers are rejected before any decimal arithmetic happens.
func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, core.ErrInvalidAmount
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, fmt.Errorf("%w %s", core.ErrMalformedAmount, raw)
		}
		return core.ParseAmount(s)
	}

	negative := raw[0] == '-'
	if negative {
		raw = raw[1:]
	}
	d, err := core.ParseAmount(string(raw))
	if err != nil {
		return decimal.Zero, err
	}
	if negative {
		return d.Neg(), nil
	}
	return d, nil
}
