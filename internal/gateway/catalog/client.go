package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"ms-orders/internal/apperr"
	"ms-orders/internal/models"
)

// Client is the read-only view of the catalog service used by the order
// flow. The only question it answers is whether an event exists.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{BaseURL: baseURL, HTTP: httpClient}
}

func (c *Client) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	url := fmt.Sprintf("%s/v1/events/%s", c.BaseURL, eventID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "build catalog request", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "catalog service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperr.New(apperr.NotFound, fmt.Sprintf("event %s not found", eventID))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.WithDetail(apperr.Upstream,
			fmt.Sprintf("catalog returned status %d", resp.StatusCode), resp.Status)
	}

	var body struct {
		Event *models.Event `json:"event"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "decode catalog response", err)
	}
	if body.Event == nil {
		return nil, apperr.New(apperr.NotFound, fmt.Sprintf("event %s not found", eventID))
	}

	return body.Event, nil
}
