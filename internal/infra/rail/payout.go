package rail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/splitflow/splitflow/internal/domain"
)

// PayoutClient talks to the external fiat/crypto payout rail.
// It implements domain.PayoutRail.
type PayoutClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewPayoutClient creates a rail client. apiKey may be empty for rails that
// authenticate at the network layer.
func NewPayoutClient(baseURL, apiKey string) *PayoutClient {
	return &PayoutClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// createPayoutBody is the rail's creation payload. Exactly one destination
// identifier is set per request.
type createPayoutBody struct {
	IdempotencyKey string `json:"idempotency_key"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	AddressBookID  string `json:"address_book_id,omitempty"`
	WalletID       string `json:"wallet_id,omitempty"`
	Address        string `json:"address,omitempty"`
	Chain          string `json:"chain,omitempty"`
}

// CreatePayout issues a payout creation. A non-2xx response is an error and
// the caller never retries creation — duplicate creation risk outweighs a
// failed settlement leg.
func (c *PayoutClient) CreatePayout(ctx context.Context, req domain.PayoutRequest) (domain.CreatedPayout, error) {
	body := createPayoutBody{
		IdempotencyKey: req.IdempotencyKey,
		Amount:         req.Amount.Amount.StringFixed(2),
		Currency:       req.Amount.Currency,
		AddressBookID:  req.Destination.AddressBookID,
		WalletID:       req.Destination.WalletID,
		Address:        req.Destination.Address,
		Chain:          req.Destination.Chain,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return domain.CreatedPayout{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payouts", bytes.NewReader(payload))
	if err != nil {
		return domain.CreatedPayout{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return domain.CreatedPayout{}, fmt.Errorf("%w: %v", domain.ErrRailUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.CreatedPayout{}, fmt.Errorf("payout create returned %d: %s", resp.StatusCode, snippet)
	}

	var created domain.CreatedPayout
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return domain.CreatedPayout{}, fmt.Errorf("decode payout response: %w", err)
	}
	if created.ID == "" {
		return domain.CreatedPayout{}, fmt.Errorf("rail returned no payout id")
	}
	return created, nil
}

// GetPayout fetches the current status of a payout.
func (c *PayoutClient) GetPayout(ctx context.Context, id string) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/payouts/"+id, nil)
	if err != nil {
		return "", err
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrRailUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("payout status returned %d", resp.StatusCode)
	}

	var out struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode status response: %w", err)
	}
	return out.Status, nil
}
