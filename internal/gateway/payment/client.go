package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"ms-orders/internal/apperr"
	"ms-orders/internal/models"
)

// Client issues charge requests against the payment service. Every charge
// carries a derived idempotency key so a retried order-creation call maps
// to the same payment attempt instead of double-charging.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{BaseURL: baseURL, HTTP: httpClient}
}

func (c *Client) Charge(ctx context.Context, idempotencyKey string, charge models.ChargeRequest) (*models.ChargeResponse, error) {
	reqBody, err := json.Marshal(charge)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "marshal charge request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/charge", bytes.NewReader(reqBody))
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "build charge request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "payment service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, apperr.WithDetail(apperr.Upstream,
			fmt.Sprintf("charge returned status %d", resp.StatusCode), string(detail))
	}

	var body models.ChargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "decode charge response", err)
	}

	return &body, nil
}
