package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RewardUpdatedMessage announces that an accepted transaction changed a
// customer's rewards. It carries the new totals so consumers don't need
// access to the store.
type RewardUpdatedMessage struct {
	MessageID      string           `json:"messageId"`
	TransactionID  string           `json:"transactionId"`
	CustomerID     string           `json:"customerId"`
	Amount         string           `json:"amount"`
	Date           string           `json:"date"`
	PointsEarned   int64            `json:"pointsEarned"`
	MonthlyRewards map[string]int64 `json:"monthlyRewards"`
	TotalRewards   int64            `json:"totalRewards"`
	Timestamp      time.Time        `json:"timestamp"`
}

// NewRewardUpdatedMessage stamps a message with a fresh id and time.
func NewRewardUpdatedMessage(transactionID, customerID, amount, date string, pointsEarned int64, monthly map[string]int64, total int64) *RewardUpdatedMessage {
	return &RewardUpdatedMessage{
		MessageID:      uuid.NewString(),
		TransactionID:  transactionID,
		CustomerID:     customerID,
		Amount:         amount,
		Date:           date,
		PointsEarned:   pointsEarned,
		MonthlyRewards: monthly,
		TotalRewards:   total,
		Timestamp:      time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RewardUpdatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RewardUpdatedMessageFromJSON decodes and sanity-checks a message body.
func RewardUpdatedMessageFromJSON(data []byte) (*RewardUpdatedMessage, error) {
	var msg RewardUpdatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.CustomerID == "" {
		return nil, fmt.Errorf("message %s: missing customer id", msg.MessageID)
	}
	return &msg, nil
}
