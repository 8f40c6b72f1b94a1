package paygate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"staysync/internal/pkg/config"
	"staysync/internal/pkg/errs"
)

// RefundReasonPMSFailed is the machine-readable reason attached to refunds
// issued because the PMS never confirmed the reservation.
const RefundReasonPMSFailed = "PMS_CONFIRMATION_FAILED"

type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	httpc   *http.Client
}

func NewClient(cfg config.PayGateConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		timeout: cfg.CallTimeout,
		httpc:   &http.Client{},
	}
}

type refundBody struct {
	PaymentIntentID string `json:"payment_intent_id"`
	Reason          string `json:"reason"`
	Note            string `json:"note"`
}

// Refund issues a full refund against the original payment intent. The note
// carries the booking id so gateway-side records trace back here.
func (c *Client) Refund(ctx context.Context, paymentIntentID, reason, note string) error {
	payload, err := json.Marshal(refundBody{
		PaymentIntentID: paymentIntentID,
		Reason:          reason,
		Note:            note,
	})
	if err != nil {
		return errs.Wrap(err, "failed to encode refund request")
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+"/refunds", bytes.NewReader(payload))
	if err != nil {
		return errs.Wrap(err, "failed to build refund request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errs.Wrap(err, "refund request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return errs.New(fmt.Sprintf("refund rejected by gateway (status %d): %s", resp.StatusCode, string(raw)))
	}

	return nil
}
