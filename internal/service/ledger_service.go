package service

import (
	"context"
	"regexp"
	"sync"
	"time"

	"go.uber.org/zap"

	"metergrid/internal/clients"
	"metergrid/internal/domain"
)

var serialPattern = regexp.MustCompile(`^[0-9]{9}$`)

// MeterGetter is the meter lookup the ledger needs.
type MeterGetter interface {
	GetBySerial(ctx context.Context, serial string) (*domain.Meter, error)
}

// ReadingLedgerStore persists readings. RecordAtomic must apply the
// reading insert and the conditional index update as one unit and
// return a Conflict error when the index moved under it.
type ReadingLedgerStore interface {
	RecordAtomic(ctx context.Context, reading *domain.Reading, expectedIndex int64) error
	List(ctx context.Context, filter domain.ReadingFilter) ([]domain.Reading, error)
}

// BillingNotifier is the best-effort downstream hand-off.
type BillingNotifier interface {
	NotifyConsumption(ctx context.Context, notice clients.ConsumptionNotice) error
}

// LedgerService validates and records meter readings.
type LedgerService struct {
	meters        MeterGetter
	readings      ReadingLedgerStore
	billing       BillingNotifier
	logger        *zap.Logger
	notifyTimeout time.Duration

	// wg lets tests wait for in-flight notifications.
	wg sync.WaitGroup
}

// NewLedgerService builds the service. billing may be nil.
func NewLedgerService(meters MeterGetter, readings ReadingLedgerStore, billing BillingNotifier, notifyTimeout time.Duration, logger *zap.Logger) *LedgerService {
	if notifyTimeout <= 0 {
		notifyTimeout = 5 * time.Second
	}
	return &LedgerService{
		meters:        meters,
		readings:      readings,
		billing:       billing,
		logger:        logger,
		notifyTimeout: notifyTimeout,
	}
}

// Record validates and persists a new reading, advancing the meter's
// current index. The returned reading carries the derived, never
// negative consumption. Concurrent submissions against the same meter
// serialize on the store's conditional index update; the loser gets a
// retryable Conflict with no side effects.
func (s *LedgerService) Record(ctx context.Context, serial string, newIndex, agentID int64) (*domain.Reading, error) {
	if !serialPattern.MatchString(serial) {
		return nil, domain.InvalidInput("meter serial must be %d digits", domain.SerialLength)
	}
	if newIndex < 0 {
		return nil, domain.InvalidInput("new index must be non-negative")
	}
	if agentID <= 0 {
		return nil, domain.InvalidInput("agent id is required")
	}

	meter, err := s.meters.GetBySerial(ctx, serial)
	if err != nil {
		return nil, err
	}

	if newIndex < meter.CurrentIndex {
		return nil, domain.InvalidState("new index %d is below current index %d, regression not allowed", newIndex, meter.CurrentIndex)
	}

	reading := &domain.Reading{
		RecordedAt:    time.Now().UTC(),
		PreviousIndex: meter.CurrentIndex,
		NewIndex:      newIndex,
		Consumption:   newIndex - meter.CurrentIndex,
		MeterSerial:   serial,
		AgentID:       agentID,
	}

	if err := s.readings.RecordAtomic(ctx, reading, meter.CurrentIndex); err != nil {
		return nil, err
	}

	s.logger.Info("reading recorded",
		zap.String("meter", serial),
		zap.Int64("consumption", reading.Consumption),
		zap.Int64("agent_id", agentID),
	)

	s.notifyBilling(meter, reading)

	return reading, nil
}

// notifyBilling dispatches the consumption to billing off the request
// path. The reading has already committed; a failed hand-off is logged
// and dropped.
func (s *LedgerService) notifyBilling(meter *domain.Meter, reading *domain.Reading) {
	if s.billing == nil {
		return
	}
	notice := clients.ConsumptionNotice{
		MeterSerial: reading.MeterSerial,
		Consumption: reading.Consumption,
		RecordedAt:  reading.RecordedAt,
		ClientID:    meter.ClientID,
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()
		if err := s.billing.NotifyConsumption(ctx, notice); err != nil {
			s.logger.Warn("billing notification failed",
				zap.String("meter", notice.MeterSerial),
				zap.Error(err),
			)
		}
	}()
}

// List returns readings newest-first, bounded by the store.
func (s *LedgerService) List(ctx context.Context, filter domain.ReadingFilter) ([]domain.Reading, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, domain.InvalidInput("dateTo must not precede dateFrom")
	}
	return s.readings.List(ctx, filter)
}

// Flush waits for in-flight billing notifications. Used on shutdown
// and in tests.
func (s *LedgerService) Flush() {
	s.wg.Wait()
}
