package core

// RewardResponse is the derived reward view for one customer. TotalRewards is
// always the sum of MonthlyRewards.
type RewardResponse struct {
	CustomerID     string           `json:"customerId"`
	MonthlyRewards map[string]int64 `json:"monthlyRewards"`
	TotalRewards   int64            `json:"totalRewards"`
}

// Clone returns a deep copy so callers can't mutate cached responses.
func (r RewardResponse) Clone() RewardResponse {
	monthly := make(map[string]int64, len(r.MonthlyRewards))
	for k, v := range r.MonthlyRewards {
		monthly[k] = v
	}
	return RewardResponse{
		CustomerID:     r.CustomerID,
		MonthlyRewards: monthly,
		TotalRewards:   r.TotalRewards,
	}
}
