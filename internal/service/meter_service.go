package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"metergrid/internal/domain"
)

// MeterRegistry is the meter persistence the registry service needs.
type MeterRegistry interface {
	GetBySerial(ctx context.Context, serial string) (*domain.Meter, error)
	List(ctx context.Context, filter domain.MeterFilter) ([]domain.Meter, error)
	Create(ctx context.Context, m *domain.Meter) error
	Update(ctx context.Context, m *domain.Meter) error
	Delete(ctx context.Context, serial string) error
	CountByAddress(ctx context.Context, addressID int64) (int64, error)
	MaxSerial(ctx context.Context) (int64, error)
}

// CreateMeterInput describes a new meter. Serial is optional; when
// empty the next sequential serial is assigned.
type CreateMeterInput struct {
	Serial    string
	Kind      domain.MeterKind
	AddressID int64
	ClientID  int64
}

// UpdateMeterInput carries partial meter changes.
type UpdateMeterInput struct {
	Kind      domain.MeterKind
	AddressID int64
	ClientID  int64
}

// MeterService manages the meter fleet.
type MeterService struct {
	meters        MeterRegistry
	maxPerAddress int64
	logger        *zap.Logger
}

// NewMeterService builds the service. maxPerAddress caps meters per
// address; zero falls back to the historical 4.
func NewMeterService(meters MeterRegistry, maxPerAddress int, logger *zap.Logger) *MeterService {
	if maxPerAddress <= 0 {
		maxPerAddress = 4
	}
	return &MeterService{
		meters:        meters,
		maxPerAddress: int64(maxPerAddress),
		logger:        logger,
	}
}

// Create registers a new meter at index zero. The address must be
// below its meter cap and the serial must be unique.
func (s *MeterService) Create(ctx context.Context, input CreateMeterInput) (*domain.Meter, error) {
	if !input.Kind.Valid() {
		return nil, domain.InvalidInput("kind must be %s or %s", domain.KindWater, domain.KindElectricity)
	}
	if input.AddressID <= 0 {
		return nil, domain.InvalidInput("address id is required")
	}
	if input.ClientID <= 0 {
		return nil, domain.InvalidInput("client id is required")
	}

	count, err := s.meters.CountByAddress(ctx, input.AddressID)
	if err != nil {
		return nil, err
	}
	if count >= s.maxPerAddress {
		return nil, domain.InvalidState("address %d already holds the maximum of %d meters", input.AddressID, s.maxPerAddress)
	}

	serial := strings.TrimSpace(input.Serial)
	if serial == "" {
		max, err := s.meters.MaxSerial(ctx)
		if err != nil {
			return nil, err
		}
		serial = fmt.Sprintf("%0*d", domain.SerialLength, max+1)
	} else if !serialPattern.MatchString(serial) {
		return nil, domain.InvalidInput("meter serial must be %d digits", domain.SerialLength)
	}

	if _, err := s.meters.GetBySerial(ctx, serial); err == nil {
		return nil, domain.InvalidState("meter with serial %s already exists", serial)
	} else if !domain.IsKind(err, domain.KindNotFound) {
		return nil, err
	}

	meter := &domain.Meter{
		Serial:       serial,
		Kind:         input.Kind,
		CurrentIndex: 0,
		AddressID:    input.AddressID,
		ClientID:     input.ClientID,
	}
	if err := s.meters.Create(ctx, meter); err != nil {
		return nil, err
	}

	s.logger.Info("meter created",
		zap.String("serial", meter.Serial),
		zap.String("kind", string(meter.Kind)),
		zap.Int64("address_id", meter.AddressID),
	)
	return meter, nil
}

// Update applies partial changes to an existing meter. The current
// index is never touched here; only the ledger advances it.
func (s *MeterService) Update(ctx context.Context, serial string, input UpdateMeterInput) (*domain.Meter, error) {
	meter, err := s.meters.GetBySerial(ctx, serial)
	if err != nil {
		return nil, err
	}

	if input.Kind != "" {
		if !input.Kind.Valid() {
			return nil, domain.InvalidInput("kind must be %s or %s", domain.KindWater, domain.KindElectricity)
		}
		meter.Kind = input.Kind
	}
	if input.AddressID > 0 {
		meter.AddressID = input.AddressID
	}
	if input.ClientID > 0 {
		meter.ClientID = input.ClientID
	}

	if err := s.meters.Update(ctx, meter); err != nil {
		return nil, err
	}
	return meter, nil
}

// Delete removes a meter.
func (s *MeterService) Delete(ctx context.Context, serial string) error {
	return s.meters.Delete(ctx, serial)
}

// List returns meters matching the filter.
func (s *MeterService) List(ctx context.Context, filter domain.MeterFilter) ([]domain.Meter, error) {
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, domain.InvalidInput("kind must be %s or %s", domain.KindWater, domain.KindElectricity)
	}
	return s.meters.List(ctx, filter)
}
