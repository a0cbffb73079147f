package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"rewards/internal/amqp"
	"rewards/internal/cache"
	"rewards/internal/core"
	"rewards/internal/log"
	"rewards/internal/rewards"
	"rewards/internal/store"
)

// Publisher announces reward changes. *amqp.Client implements it.
type Publisher interface {
	PublishRewardUpdated(ctx context.Context, msg *amqp.RewardUpdatedMessage) error
}

// RewardService validates and stores transactions and derives rewards.
type RewardService struct {
	store     store.TransactionStore
	publisher Publisher
	cache     cache.Cache[core.RewardResponse]
	logger    *log.Logger

	// Held exclusively while a transaction is stored and the cache is
	// updated, shared while a snapshot is read and cached.
	mu    sync.RWMutex
	group singleflight.Group
}

// Option configures a RewardService.
type Option func(*RewardService)

// WithPublisher enables reward-updated events.
func WithPublisher(p Publisher) Option {
	return func(s *RewardService) { s.publisher = p }
}

// WithCache caches computed responses per customer.
func WithCache(c cache.Cache[core.RewardResponse]) Option {
	return func(s *RewardService) { s.cache = c }
}

// WithLogger sets the service logger.
func WithLogger(l *log.Logger) Option {
	return func(s *RewardService) { s.logger = l }
}

func NewRewardService(st store.TransactionStore, opts ...Option) *RewardService {
	s := &RewardService{store: st}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	s.logger = s.logger.WithComponent(log.ComponentRewards)
	return s
}

// AddTransaction stores tx and returns the customer's updated rewards.
// Invalid transactions fail with core.ErrInvalidTransaction.
func (s *RewardService) AddTransaction(ctx context.Context, tx core.Transaction) (core.RewardResponse, error) {
	if err := tx.Validate(); err != nil {
		s.logRejected(ctx, tx, err)
		return core.RewardResponse{}, err
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	points, err := rewards.CalculatePoints(tx.Amount)
	if err != nil {
		s.logRejected(ctx, tx, err)
		return core.RewardResponse{}, err
	}

	resp, err := s.record(ctx, tx)
	if err != nil {
		if errors.Is(err, core.ErrInvalidTransaction) {
			s.logRejected(ctx, tx, err)
		}
		return core.RewardResponse{}, err
	}

	s.logger.InfoContext(ctx, "Transaction recorded",
		log.NewFields().
			WithTransaction(tx.ID, tx.CustomerID, tx.Amount.String(), tx.Date.String()).
			WithRewards(points, resp.TotalRewards).
			WithOperation(log.OpCreate).ToSlice()...)

	s.publish(ctx, tx, points, resp)
	return resp, nil
}

func (s *RewardService) logRejected(ctx context.Context, tx core.Transaction, err error) {
	s.logger.WarnContext(ctx, "Rejected transaction",
		log.NewFields().
			WithTransaction(tx.ID, tx.CustomerID, tx.Amount.String(), tx.Date.String()).
			WithOperation(log.OpValidate).
			WithErrorType(log.ErrorTypeValidation).
			WithError(err).ToSlice()...)
}

// record computes the customer's next response, then appends tx and
// refreshes the cache under the write lock. A transaction whose points can't
// be added is rejected before the store sees it.
func (s *RewardService) record(ctx context.Context, tx core.Transaction) (core.RewardResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, err := s.next(ctx, tx)
	if err != nil {
		return core.RewardResponse{}, err
	}

	if err := s.store.AddTransaction(ctx, tx); err != nil {
		return core.RewardResponse{}, fmt.Errorf("store transaction: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(tx.CustomerID, resp.Clone())
	}
	return resp, nil
}

// next returns the response the customer will have once tx is stored.
// Callers hold the write lock.
func (s *RewardService) next(ctx context.Context, tx core.Transaction) (core.RewardResponse, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(tx.CustomerID); ok {
			return rewards.Apply(cached, tx)
		}
	}
	txs, err := s.store.TransactionsByCustomer(ctx, tx.CustomerID)
	if err != nil {
		return core.RewardResponse{}, fmt.Errorf("load transactions for %s: %w", tx.CustomerID, err)
	}
	return rewards.CustomerRewards(tx.CustomerID, append(txs, tx))
}

// RewardsByCustomer returns the customer's rewards, or false when the
// customer has no transactions.
func (s *RewardService) RewardsByCustomer(ctx context.Context, customerID string) (core.RewardResponse, bool, error) {
	resp, err := s.rewardsFor(ctx, customerID)
	if err != nil {
		return core.RewardResponse{}, false, err
	}
	if len(resp.MonthlyRewards) == 0 {
		return core.RewardResponse{}, false, nil
	}
	return resp, true, nil
}

// AllRewards returns one response per known customer. Callers must not rely
// on the order.
func (s *RewardService) AllRewards(ctx context.Context) ([]core.RewardResponse, error) {
	ids, err := s.store.CustomerIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	out := make([]core.RewardResponse, 0, len(ids))
	for _, id := range ids {
		resp, err := s.rewardsFor(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *RewardService) rewardsFor(ctx context.Context, customerID string) (core.RewardResponse, error) {
	if s.cache != nil {
		if resp, ok := s.cache.Get(customerID); ok {
			return resp.Clone(), nil
		}
	}

	v, err, _ := s.group.Do(customerID, func() (any, error) {
		s.mu.RLock()
		defer s.mu.RUnlock()

		resp, err := s.compute(ctx, customerID)
		if err != nil {
			return core.RewardResponse{}, err
		}
		if s.cache != nil && len(resp.MonthlyRewards) > 0 {
			s.cache.Set(customerID, resp.Clone())
		}
		return resp, nil
	})
	if err != nil {
		return core.RewardResponse{}, err
	}
	return v.(core.RewardResponse).Clone(), nil
}

func (s *RewardService) compute(ctx context.Context, customerID string) (core.RewardResponse, error) {
	txs, err := s.store.TransactionsByCustomer(ctx, customerID)
	if err != nil {
		return core.RewardResponse{}, fmt.Errorf("load transactions for %s: %w", customerID, err)
	}
	return rewards.CustomerRewards(customerID, txs)
}

func (s *RewardService) publish(ctx context.Context, tx core.Transaction, points int64, resp core.RewardResponse) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewRewardUpdatedMessage(tx.ID, tx.CustomerID, tx.Amount.String(), tx.Date.String(),
		points, resp.Clone().MonthlyRewards, resp.TotalRewards)
	if err := s.publisher.PublishRewardUpdated(ctx, msg); err != nil {
		// The transaction is already stored; the event is best effort.
		s.logger.ErrorContext(ctx, "Failed to publish reward update",
			log.FieldCustomerID, tx.CustomerID,
			log.FieldTransactionID, tx.ID,
			log.FieldOperation, log.OpPublish,
			log.FieldError, err)
	}
}

// Close closes the store and publisher when they hold resources.
func (s *RewardService) Close() error {
	var errs []error
	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	return errors.Join(errs...)
}
