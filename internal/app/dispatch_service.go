// internal/app/dispatch_service.go
package app

import (
	"context"
	"fmt"

	"payflow/internal/domain/customer"
	"payflow/internal/domain/notify"
	idb "payflow/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ChannelDispatcher routes one message to the Sender registered for the
// channel. An unregistered channel is a delivery error.
type ChannelDispatcher interface {
	Dispatch(ctx context.Context, channel notify.Channel, to notify.Recipient, title, message string) error
}

// BatchResult reports one outbox drain.
type BatchResult struct {
	BatchID   string
	Processed int
	Sent      int
	Failed    int
}

// DispatchService drains the outbound notification outbox. Delivery errors
// are recorded on the row (FAILED plus reason), never propagated: one bad
// item must not abort the batch. FAILED rows are not retried automatically.
type DispatchService struct {
	notifyRepo   notify.Repository
	customerRepo customer.Repository
	dispatcher   ChannelDispatcher
	logger       *logrus.Logger
	clock        Clock
	batchSize    int
}

func NewDispatchService(nr notify.Repository, cr customer.Repository, d ChannelDispatcher, logger *logrus.Logger, clock Clock, batchSize int) *DispatchService {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &DispatchService{
		notifyRepo:   nr,
		customerRepo: cr,
		dispatcher:   d,
		logger:       logger,
		clock:        clock,
		batchSize:    batchSize,
	}
}

// ProcessPendingBatch fetches up to batchSize PENDING rows, oldest first, and
// attempts delivery for each through the channel dispatcher.
func (s *DispatchService) ProcessPendingBatch(ctx context.Context) (*BatchResult, error) {
	result := &BatchResult{BatchID: uuid.NewString()}

	pendings, err := s.notifyRepo.ListPendingOutbound(ctx, s.batchSize)
	if err != nil {
		return result, fmt.Errorf("failed to list pending outbound notifications: %w", err)
	}
	if len(pendings) == 0 {
		return result, nil
	}
	s.logger.Infof("Dispatch batch %s: %d pending notification(s)", result.BatchID, len(pendings))

	for _, out := range pendings {
		result.Processed++
		if err := s.deliver(ctx, out); err != nil {
			result.Failed++
			if markErr := s.notifyRepo.MarkOutboundFailed(ctx, out.ID, err.Error()); markErr != nil {
				s.logger.Errorf("Dispatch batch %s: failed to mark outbound %d FAILED: %v", result.BatchID, out.ID, markErr)
			}
			s.logger.Warnf("Dispatch batch %s: outbound %d via %s failed: %v", result.BatchID, out.ID, out.Channel, err)
			continue
		}
		result.Sent++
		if markErr := s.notifyRepo.MarkOutboundSent(ctx, out.ID, s.clock.Now()); markErr != nil {
			s.logger.Errorf("Dispatch batch %s: failed to mark outbound %d SENT: %v", result.BatchID, out.ID, markErr)
		}
	}

	s.logger.Infof("Dispatch batch %s done: %d sent, %d failed", result.BatchID, result.Sent, result.Failed)
	return result, nil
}

// deliver resolves the recipient and hands the row to the channel dispatcher.
func (s *DispatchService) deliver(ctx context.Context, out *notify.Outbound) error {
	var to notify.Recipient
	if out.CustomerID.Valid {
		c, err := s.customerRepo.GetByID(ctx, out.CustomerID.Int64)
		if err != nil {
			if err == idb.ErrCustomerNotFound {
				return fmt.Errorf("recipient customer %d no longer exists", out.CustomerID.Int64)
			}
			return fmt.Errorf("failed to resolve recipient customer %d: %w", out.CustomerID.Int64, err)
		}
		to = notify.Recipient{
			CustomerID: c.ID,
			Name:       c.Name,
			Phone:      c.Phone.String,
			Email:      c.Email.String,
		}
	}
	return s.dispatcher.Dispatch(ctx, out.Channel, to, out.Title, out.Message)
}
