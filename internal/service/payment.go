package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/iliyamo/song-share-ledger/internal/ledger"
)

// PaymentClient talks JSON over HTTP to the payment provider.  The
// caller's reference is forwarded as the idempotency key, so replaying
// a charge or payout after a crash cannot move money twice.
type PaymentClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// NewPaymentClient returns a client with a bounded request timeout.
func NewPaymentClient(baseURL, apiKey string) *PaymentClient {
	return &PaymentClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type paymentRequest struct {
	UserID      uint64 `json:"user_id"`
	AmountCents int64  `json:"amount_cents"`
	Reference   string `json:"reference"`
}

type paymentResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Charge debits the user and returns the provider's charge id.  A
// declined card maps to ledger.ErrInsufficientFunds so the saga can
// compensate without string matching.
func (c *PaymentClient) Charge(ctx context.Context, userID uint64, amountCents int64, reference string) (string, error) {
	return c.post(ctx, "/v1/charges", userID, amountCents, reference)
}

// Payout credits the user and returns the provider's payout id.
func (c *PaymentClient) Payout(ctx context.Context, userID uint64, amountCents int64, reference string) (string, error) {
	return c.post(ctx, "/v1/payouts", userID, amountCents, reference)
}

func (c *PaymentClient) post(ctx context.Context, path string, userID uint64, amountCents int64, reference string) (string, error) {
	body, err := json.Marshal(paymentRequest{UserID: userID, AmountCents: amountCents, Reference: reference})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Idempotency-Key", reference)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out paymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("payment: decode response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusPaymentRequired || out.Status == "declined":
		return "", ledger.ErrInsufficientFunds
	case resp.StatusCode >= 300:
		return "", fmt.Errorf("payment: %s returned %d: %s", path, resp.StatusCode, out.Error)
	}
	return out.ID, nil
}
