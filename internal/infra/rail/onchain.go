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

// OnChainClient records transfer intents against the on-chain settlement
// rail. It implements domain.OnChainRail. Contract call construction is the
// rail's job, not ours.
type OnChainClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewOnChainClient creates an on-chain rail client.
func NewOnChainClient(baseURL, apiKey string) *OnChainClient {
	return &OnChainClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Transfer submits a transfer intent and returns the rail's transfer id.
func (c *OnChainClient) Transfer(ctx context.Context, address string, amount domain.Money) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"to":       address,
		"amount":   amount.Amount.StringFixed(2),
		"currency": amount.Currency,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/transfers", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrRailUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("transfer returned %d: %s", resp.StatusCode, snippet)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode transfer response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("rail returned no transfer id")
	}
	return out.ID, nil
}
