package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"metergrid/internal/domain"
	"metergrid/internal/service"
)

type stubMeterGetter struct {
	meters map[string]domain.Meter
}

func (s *stubMeterGetter) GetBySerial(_ context.Context, serial string) (*domain.Meter, error) {
	m, ok := s.meters[serial]
	if !ok {
		return nil, domain.NotFound("meter %s not found", serial)
	}
	return &m, nil
}

type stubReadingStore struct {
	readings []domain.Reading
	err      error
}

func (s *stubReadingStore) RecordAtomic(_ context.Context, reading *domain.Reading, _ int64) error {
	if s.err != nil {
		return s.err
	}
	reading.ID = int64(len(s.readings) + 1)
	s.readings = append(s.readings, *reading)
	return nil
}

func (s *stubReadingStore) List(_ context.Context, _ domain.ReadingFilter) ([]domain.Reading, error) {
	return s.readings, nil
}

func newLedger(store *stubReadingStore, meters map[string]domain.Meter) *service.LedgerService {
	return service.NewLedgerService(&stubMeterGetter{meters: meters}, store, nil, time.Second, zap.NewNop())
}

func TestRecordReadingHandler_Created(t *testing.T) {
	store := &stubReadingStore{}
	ledger := newLedger(store, map[string]domain.Meter{
		"000000123": {Serial: "000000123", CurrentIndex: 100},
	})
	handler := NewRecordReadingHandler(ledger)

	body := `{"meterSerial":"000000123","newIndex":130,"agentId":7}`
	req := httptest.NewRequest(http.MethodPost, "/api/readings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		ReadingID   int64 `json:"readingId"`
		Consumption int64 `json:"consumption"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.ReadingID)
	assert.Equal(t, int64(30), resp.Consumption)
	require.Len(t, store.readings, 1)
}

func TestRecordReadingHandler_MissingFields(t *testing.T) {
	handler := NewRecordReadingHandler(newLedger(&stubReadingStore{}, nil))

	// newIndex absent entirely, not just zero.
	body := `{"meterSerial":"000000123","agentId":7}`
	req := httptest.NewRequest(http.MethodPost, "/api/readings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordReadingHandler_ZeroIndexIsValid(t *testing.T) {
	store := &stubReadingStore{}
	ledger := newLedger(store, map[string]domain.Meter{
		"000000123": {Serial: "000000123", CurrentIndex: 0},
	})
	handler := NewRecordReadingHandler(ledger)

	body := `{"meterSerial":"000000123","newIndex":0,"agentId":7}`
	req := httptest.NewRequest(http.MethodPost, "/api/readings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRecordReadingHandler_InvalidJSON(t *testing.T) {
	handler := NewRecordReadingHandler(newLedger(&stubReadingStore{}, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/readings", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordReadingHandler_UnknownMeter(t *testing.T) {
	handler := NewRecordReadingHandler(newLedger(&stubReadingStore{}, nil))

	body := `{"meterSerial":"000000999","newIndex":10,"agentId":7}`
	req := httptest.NewRequest(http.MethodPost, "/api/readings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecordReadingHandler_Regression(t *testing.T) {
	ledger := newLedger(&stubReadingStore{}, map[string]domain.Meter{
		"000000123": {Serial: "000000123", CurrentIndex: 100},
	})
	handler := NewRecordReadingHandler(ledger)

	body := `{"meterSerial":"000000123","newIndex":99,"agentId":7}`
	req := httptest.NewRequest(http.MethodPost, "/api/readings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRecordReadingHandler_Conflict(t *testing.T) {
	store := &stubReadingStore{err: domain.Conflict("meter 000000123 index changed concurrently")}
	ledger := newLedger(store, map[string]domain.Meter{
		"000000123": {Serial: "000000123", CurrentIndex: 100},
	})
	handler := NewRecordReadingHandler(ledger)

	body := `{"meterSerial":"000000123","newIndex":130,"agentId":7}`
	req := httptest.NewRequest(http.MethodPost, "/api/readings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListReadingsHandler_FilterParsing(t *testing.T) {
	handler := NewListReadingsHandler(newLedger(&stubReadingStore{}, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/readings?dateFrom=2025-06-01&dateTo=2025-06-30&zone=3", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Readings []domain.Reading `json:"readings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Readings)
}

func TestListReadingsHandler_BadDate(t *testing.T) {
	handler := NewListReadingsHandler(newLedger(&stubReadingStore{}, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/readings?dateFrom=junk", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListReadingsHandler_InvertedRange(t *testing.T) {
	handler := NewListReadingsHandler(newLedger(&stubReadingStore{}, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/readings?dateFrom=2025-06-30&dateTo=2025-06-01", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMockBillingHandler_EstimatesAmount(t *testing.T) {
	handler := NewMockBillingHandler(zap.NewNop())

	body := `{"meterSerial":"000000123","consumption":30,"clientId":7}`
	req := httptest.NewRequest(http.MethodPost, "/api/mock/billing", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success         bool   `json:"success"`
		EstimatedAmount string `json:"estimatedAmount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "52.2", resp.EstimatedAmount)
}

func TestMockBillingHandler_RequiresConsumption(t *testing.T) {
	handler := NewMockBillingHandler(zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/mock/billing", strings.NewReader(`{"meterSerial":"000000123"}`))
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
