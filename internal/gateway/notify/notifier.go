package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"ms-orders/internal/logger"
	"ms-orders/internal/models"
)

// Notifier dispatches fire-and-forget notifications. Delivery is fully
// decoupled from the transactional outcome: a failure is logged after a
// bounded number of retries and never propagated.
type Notifier struct {
	BaseURL     string
	HTTP        *http.Client
	Logger      *logger.Logger
	MaxAttempts uint64
}

func NewNotifier(baseURL string, httpClient *http.Client, log *logger.Logger) *Notifier {
	return &Notifier{
		BaseURL:     baseURL,
		HTTP:        httpClient,
		Logger:      log,
		MaxAttempts: 3,
	}
}

// Dispatch sends the notification with exponential backoff and logs the
// outcome. It never returns an error to the caller.
func (n *Notifier) Dispatch(ctx context.Context, notifyType, orderID string, seats []string) {
	payload := models.NotifyRequest{Type: notifyType, OrderID: orderID, Seats: seats}

	op := func() error {
		return n.send(ctx, payload)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(newShortBackoff(), n.MaxAttempts-1), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		n.Logger.Warn("NOTIFY", fmt.Sprintf("giving up on %s for order %s: %v", notifyType, orderID, err))
		return
	}
	n.Logger.Info("NOTIFY", fmt.Sprintf("%s dispatched for order %s", notifyType, orderID))
}

func (n *Notifier) send(ctx context.Context, payload models.NotifyRequest) error {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return backoff.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.BaseURL+"/v1/notify", bytes.NewReader(reqBody))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notification service returned status %d", resp.StatusCode)
	}
	return nil
}

func newShortBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 10 * time.Second
	return b
}
