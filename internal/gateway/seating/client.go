package seating

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ms-orders/internal/apperr"
	"ms-orders/internal/models"
)

// Client talks to the seating service, which owns all seat lifecycle side
// effects: availability, time-boxed holds, allocation and release.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{BaseURL: baseURL, HTTP: httpClient}
}

// FetchAvailability returns the authoritative seat list for an event.
// Prices are reported in integer minor units; no currency heuristics.
func (c *Client) FetchAvailability(ctx context.Context, eventID string) ([]models.SeatSnapshot, error) {
	url := fmt.Sprintf("%s/v1/seats/availability?eventId=%s", c.BaseURL, eventID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "build availability request", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "seating service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.WithDetail(apperr.Upstream,
			fmt.Sprintf("seating availability returned status %d", resp.StatusCode), readBodyForDetail(resp.Body))
	}

	var body models.SeatAvailabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "decode availability response", err)
	}

	return body.Seats, nil
}

// Reserve places an all-or-nothing hold on the requested seats. A
// success:false response means at least one seat lost the race.
func (c *Client) Reserve(ctx context.Context, eventID string, seatIDs []string, userID string, ttl time.Duration) error {
	payload := models.ReserveRequest{
		EventID:    eventID,
		SeatIDs:    seatIDs,
		UserID:     userID,
		TTLSeconds: int(ttl.Seconds()),
	}

	var body models.ReserveResponse
	if err := c.post(ctx, "/v1/seats/reserve", payload, &body); err != nil {
		return err
	}
	if !body.Success {
		return apperr.WithDetail(apperr.Client, "seats no longer available", body.Message)
	}
	return nil
}

// Allocate converts a hold into a permanent assignment. Called only after
// a successful payment, so a failure here is a post-payment condition that
// the caller must compensate.
func (c *Client) Allocate(ctx context.Context, orderID, eventID string, seatIDs []string) error {
	payload := models.AllocateRequest{OrderID: orderID, EventID: eventID, SeatIDs: seatIDs}
	return c.post(ctx, "/v1/seats/allocate", payload, nil)
}

// Release frees held or allocated seats. Idempotent on the seating side;
// callers treat failures as best-effort and log them.
func (c *Client) Release(ctx context.Context, orderID, eventID string, seatIDs []string) error {
	payload := models.ReleaseRequest{OrderID: orderID, EventID: eventID, SeatIDs: seatIDs}
	return c.post(ctx, "/v1/seats/release", payload, nil)
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "marshal seating request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return apperr.Wrap(apperr.Internal, "build seating request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.Upstream, "seating service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperr.WithDetail(apperr.Upstream,
			fmt.Sprintf("seating %s returned status %d", path, resp.StatusCode), readBodyForDetail(resp.Body))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperr.Wrap(apperr.Upstream, "decode seating response", err)
		}
	}
	return nil
}

func readBodyForDetail(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 1024))
	return string(b)
}
