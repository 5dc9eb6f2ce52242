package service_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"metergrid/internal/domain"
	"metergrid/internal/service"
)

// fakeMeterRegistry backs the registry service with an in-memory fleet.
type fakeMeterRegistry struct {
	meters map[string]*domain.Meter
}

func newFakeMeterRegistry(meters ...domain.Meter) *fakeMeterRegistry {
	r := &fakeMeterRegistry{meters: make(map[string]*domain.Meter)}
	for i := range meters {
		m := meters[i]
		r.meters[m.Serial] = &m
	}
	return r
}

func (r *fakeMeterRegistry) GetBySerial(_ context.Context, serial string) (*domain.Meter, error) {
	m, ok := r.meters[serial]
	if !ok {
		return nil, domain.NotFound("meter %s not found", serial)
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMeterRegistry) List(_ context.Context, filter domain.MeterFilter) ([]domain.Meter, error) {
	out := make([]domain.Meter, 0, len(r.meters))
	for _, m := range r.meters {
		if filter.Kind != "" && m.Kind != filter.Kind {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

func (r *fakeMeterRegistry) Create(_ context.Context, m *domain.Meter) error {
	copied := *m
	r.meters[m.Serial] = &copied
	return nil
}

func (r *fakeMeterRegistry) Update(_ context.Context, m *domain.Meter) error {
	if _, ok := r.meters[m.Serial]; !ok {
		return domain.NotFound("meter %s not found", m.Serial)
	}
	copied := *m
	r.meters[m.Serial] = &copied
	return nil
}

func (r *fakeMeterRegistry) Delete(_ context.Context, serial string) error {
	if _, ok := r.meters[serial]; !ok {
		return domain.NotFound("meter %s not found", serial)
	}
	delete(r.meters, serial)
	return nil
}

func (r *fakeMeterRegistry) CountByAddress(_ context.Context, addressID int64) (int64, error) {
	var n int64
	for _, m := range r.meters {
		if m.AddressID == addressID {
			n++
		}
	}
	return n, nil
}

func (r *fakeMeterRegistry) MaxSerial(_ context.Context) (int64, error) {
	var max int64
	for serial := range r.meters {
		n, err := strconv.ParseInt(serial, 10, 64)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max, nil
}

func meterAt(serial string, addressID int64) domain.Meter {
	return domain.Meter{Serial: serial, Kind: domain.KindWater, AddressID: addressID, ClientID: 1}
}

func TestMeterCreate_AssignsSequentialSerial(t *testing.T) {
	registry := newFakeMeterRegistry(meterAt("000000041", 1))
	svc := service.NewMeterService(registry, 4, zap.NewNop())

	meter, err := svc.Create(context.Background(), service.CreateMeterInput{
		Kind:      domain.KindElectricity,
		AddressID: 2,
		ClientID:  3,
	})
	require.NoError(t, err)

	assert.Equal(t, "000000042", meter.Serial)
	assert.Equal(t, int64(0), meter.CurrentIndex)
	assert.Contains(t, registry.meters, "000000042")
}

func TestMeterCreate_EnforcesAddressCap(t *testing.T) {
	registry := newFakeMeterRegistry(
		meterAt("000000001", 1),
		meterAt("000000002", 1),
		meterAt("000000003", 1),
		meterAt("000000004", 1),
	)
	svc := service.NewMeterService(registry, 4, zap.NewNop())

	_, err := svc.Create(context.Background(), service.CreateMeterInput{
		Kind:      domain.KindWater,
		AddressID: 1,
		ClientID:  1,
	})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInvalidState))

	// A different address is still open.
	_, err = svc.Create(context.Background(), service.CreateMeterInput{
		Kind:      domain.KindWater,
		AddressID: 2,
		ClientID:  1,
	})
	assert.NoError(t, err)
}

func TestMeterCreate_RejectsDuplicateSerial(t *testing.T) {
	registry := newFakeMeterRegistry(meterAt("000000007", 1))
	svc := service.NewMeterService(registry, 4, zap.NewNop())

	_, err := svc.Create(context.Background(), service.CreateMeterInput{
		Serial:    "000000007",
		Kind:      domain.KindWater,
		AddressID: 2,
		ClientID:  1,
	})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInvalidState))
}

func TestMeterCreate_RejectsInvalidInput(t *testing.T) {
	svc := service.NewMeterService(newFakeMeterRegistry(), 4, zap.NewNop())

	cases := []struct {
		name  string
		input service.CreateMeterInput
	}{
		{"bad kind", service.CreateMeterInput{Kind: "GAZ", AddressID: 1, ClientID: 1}},
		{"missing address", service.CreateMeterInput{Kind: domain.KindWater, ClientID: 1}},
		{"missing client", service.CreateMeterInput{Kind: domain.KindWater, AddressID: 1}},
		{"malformed serial", service.CreateMeterInput{Serial: "12", Kind: domain.KindWater, AddressID: 1, ClientID: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.input)
			require.Error(t, err)
			assert.True(t, domain.IsKind(err, domain.KindInvalidInput))
		})
	}
}

func TestMeterUpdate_NeverTouchesIndex(t *testing.T) {
	registry := newFakeMeterRegistry(domain.Meter{
		Serial:       "000000007",
		Kind:         domain.KindWater,
		CurrentIndex: 500,
		AddressID:    1,
		ClientID:     1,
	})
	svc := service.NewMeterService(registry, 4, zap.NewNop())

	meter, err := svc.Update(context.Background(), "000000007", service.UpdateMeterInput{
		Kind:      domain.KindElectricity,
		AddressID: 9,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.KindElectricity, meter.Kind)
	assert.Equal(t, int64(9), meter.AddressID)
	assert.Equal(t, int64(1), meter.ClientID)
	assert.Equal(t, int64(500), meter.CurrentIndex)
}

func TestMeterDelete_UnknownSerial(t *testing.T) {
	svc := service.NewMeterService(newFakeMeterRegistry(), 4, zap.NewNop())

	err := svc.Delete(context.Background(), "000000404")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestMeterList_RejectsUnknownKindFilter(t *testing.T) {
	svc := service.NewMeterService(newFakeMeterRegistry(), 4, zap.NewNop())

	_, err := svc.List(context.Background(), domain.MeterFilter{Kind: "GAZ"})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInvalidInput))
}
