// Package rewards implements the tiered loyalty points rule.
//
// Points per transaction: 2 per currency unit spent above 100, 1 per unit
// spent between 50 and 100, nothing for the first 50. The tiers are summed
// exactly and floored once at the end, so 100.5 earns 51 points.
package rewards

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"rewards/internal/core"
)

var (
	lowerTier = decimal.NewFromInt(50)
	upperTier = decimal.NewFromInt(100)
	two       = decimal.NewFromInt(2)
	maxPoints = decimal.NewFromInt(math.MaxInt64)
)

// CalculatePoints returns the points earned by a single purchase amount.
func CalculatePoints(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, core.ErrInvalidAmount
	}
	above := decimal.Max(amount.Sub(upperTier), decimal.Zero)
	middle := decimal.Min(amount, upperTier).Sub(decimal.Min(amount, lowerTier))
	points := above.Mul(two).Add(middle).Floor()
	if points.GreaterThan(maxPoints) {
		return 0, core.ErrPointsOverflow
	}
	return points.IntPart(), nil
}

// addPoints sums two non-negative point counts, failing instead of wrapping.
func addPoints(a, b int64) (int64, error) {
	if b > math.MaxInt64-a {
		return 0, core.ErrPointsOverflow
	}
	return a + b, nil
}

// MonthKey is the bucket name for a date: the English month name.
func MonthKey(d core.Date) string {
	return d.Month().String()
}

// AggregateByMonth sums points per month name. Only months with at least one
// transaction appear.
func AggregateByMonth(txs []core.Transaction) (map[string]int64, error) {
	monthly := make(map[string]int64)
	for _, tx := range txs {
		points, err := CalculatePoints(tx.Amount)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
		key := MonthKey(tx.Date)
		if monthly[key], err = addPoints(monthly[key], points); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
	}
	return monthly, nil
}

// CustomerRewards builds the full reward view for one customer's history.
func CustomerRewards(customerID string, txs []core.Transaction) (core.RewardResponse, error) {
	monthly, err := AggregateByMonth(txs)
	if err != nil {
		return core.RewardResponse{}, err
	}
	var total int64
	for _, points := range monthly {
		if total, err = addPoints(total, points); err != nil {
			return core.RewardResponse{}, err
		}
	}
	return core.RewardResponse{
		CustomerID:     customerID,
		MonthlyRewards: monthly,
		TotalRewards:   total,
	}, nil
}

// Apply folds one more transaction into an existing response without
// rescanning the history. The input response is not modified.
func Apply(resp core.RewardResponse, tx core.Transaction) (core.RewardResponse, error) {
	points, err := CalculatePoints(tx.Amount)
	if err != nil {
		return core.RewardResponse{}, err
	}
	key := MonthKey(tx.Date)
	month, err := addPoints(resp.MonthlyRewards[key], points)
	if err != nil {
		return core.RewardResponse{}, err
	}
	total, err := addPoints(resp.TotalRewards, points)
	if err != nil {
		return core.RewardResponse{}, err
	}
	out := resp.Clone()
	if out.CustomerID == "" {
		out.CustomerID = tx.CustomerID
	}
	out.MonthlyRewards[key] = month
	out.TotalRewards = total
	return out, nil
}
