package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// BillingClient hands recorded consumptions to the billing system.
// Every call is best-effort: failures are logged and never bubble into
// the reading that triggered them.
type BillingClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// ConsumptionNotice payload for the billing hand-off.
type ConsumptionNotice struct {
	MeterSerial string    `json:"meterSerial"`
	Consumption int64     `json:"consumption"`
	RecordedAt  time.Time `json:"recordedAt"`
	ClientID    int64     `json:"clientId"`
}

// NewBillingClient returns HTTP client wrapper.
func NewBillingClient(baseURL string, timeout time.Duration, logger *zap.Logger) *BillingClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &BillingClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// NotifyConsumption best-effort call.
func (c *BillingClient) NotifyConsumption(ctx context.Context, notice ConsumptionNotice) error {
	if c.baseURL == "" {
		c.logger.Debug("billing client disabled, skip consumption notification")
		return nil
	}
	return c.post(ctx, "/api/mock/billing", notice)
}

func (c *BillingClient) post(ctx context.Context, path string, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s%s", c.baseURL, path), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("billing client request failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		c.logger.Warn("billing client returned non-success", zap.Int("status", resp.StatusCode))
	}
	return nil
}
