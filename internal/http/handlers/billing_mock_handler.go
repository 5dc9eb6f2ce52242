package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"metergrid/internal/domain"
)

// Flat simulated unit rate applied by the mock billing system.
var mockUnitRate = decimal.RequireFromString("1.74")

// NewMockBillingHandler returns POST /api/mock/billing: a stand-in for
// the ERP billing endpoint that acknowledges consumption hand-offs and
// echoes an estimated invoice amount.
func NewMockBillingHandler(logger *zap.Logger) http.HandlerFunc {
	type request struct {
		MeterSerial string     `json:"meterSerial"`
		Consumption *int64     `json:"consumption"`
		RecordedAt  *time.Time `json:"recordedAt"`
		ClientID    int64      `json:"clientId"`
	}
	type response struct {
		Success         bool      `json:"success"`
		MeterSerial     string    `json:"meterSerial"`
		Consumption     int64     `json:"consumption"`
		RecordedAt      time.Time `json:"recordedAt"`
		ClientID        int64     `json:"clientId"`
		EstimatedAmount string    `json:"estimatedAmount"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "invalid JSON body")
			return
		}
		if req.MeterSerial == "" || req.Consumption == nil {
			writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "meterSerial and consumption are required")
			return
		}

		recordedAt := time.Now().UTC()
		if req.RecordedAt != nil {
			recordedAt = req.RecordedAt.UTC()
		}

		amount := mockUnitRate.Mul(decimal.NewFromInt(*req.Consumption)).Round(2)

		logger.Info("mock billing hand-off received",
			zap.String("meter", req.MeterSerial),
			zap.Int64("consumption", *req.Consumption),
			zap.String("estimated_amount", amount.String()),
		)

		writeJSON(w, http.StatusOK, response{
			Success:         true,
			MeterSerial:     req.MeterSerial,
			Consumption:     *req.Consumption,
			RecordedAt:      recordedAt,
			ClientID:        req.ClientID,
			EstimatedAmount: amount.String(),
		})
	}
}
