package worker

import (
	"context"
	"sync"
	"time"

	"rewards/internal/amqp"
	"rewards/internal/core"
	"rewards/internal/log"
)

// AuditWorker consumes reward-updated events, checks them and keeps the
// latest snapshot per customer.
type AuditWorker struct {
	logger *log.Logger

	mu        sync.RWMutex
	latest    map[string]snapshot
	processed int64
	rejected  int64
}

type snapshot struct {
	resp     core.RewardResponse
	issuedAt time.Time
}

func NewAuditWorker(logger *log.Logger) *AuditWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &AuditWorker{
		logger: logger.WithComponent(log.ComponentWorker),
		latest: make(map[string]snapshot),
	}
}

// HandleRewardUpdated records one message. Inconsistent messages are logged
// and dropped rather than requeued, since redelivery can't fix them.
func (w *AuditWorker) HandleRewardUpdated(ctx context.Context, msg *amqp.RewardUpdatedMessage) error {
	var sum int64
	for _, v := range msg.MonthlyRewards {
		sum += v
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if sum != msg.TotalRewards {
		w.rejected++
		w.logger.ErrorContext(ctx, "Reward update total does not match monthly sum",
			log.FieldMessageID, msg.MessageID,
			log.FieldCustomerID, msg.CustomerID,
			log.FieldTotalRewards, msg.TotalRewards,
			"monthly_sum", sum)
		return nil
	}

	w.processed++
	prev, seen := w.latest[msg.CustomerID]
	if seen && msg.Timestamp.Before(prev.issuedAt) {
		w.logger.WarnContext(ctx, "Out of order reward update ignored",
			log.FieldMessageID, msg.MessageID,
			log.FieldCustomerID, msg.CustomerID)
		return nil
	}

	w.latest[msg.CustomerID] = snapshot{
		resp: core.RewardResponse{
			CustomerID:     msg.CustomerID,
			MonthlyRewards: msg.MonthlyRewards,
			TotalRewards:   msg.TotalRewards,
		}.Clone(),
		issuedAt: msg.Timestamp,
	}

	w.logger.InfoContext(ctx, "Reward update audited",
		log.NewFields().
			WithTransaction(msg.TransactionID, msg.CustomerID, msg.Amount, msg.Date).
			WithRewards(msg.PointsEarned, msg.TotalRewards).
			WithOperation(log.OpConsume).ToSlice()...)
	return nil
}

// snapshotFor returns the newest audited rewards for a customer.
func (w *AuditWorker) snapshotFor(customerID string) (core.RewardResponse, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s, ok := w.latest[customerID]
	if !ok {
		return core.RewardResponse{}, false
	}
	return s.resp.Clone(), true
}

// Counts returns how many messages were accepted and rejected.
func (w *AuditWorker) Counts() (processed, rejected int64) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.processed, w.rejected
}
