package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-orders/internal/gateway/notify"
	"ms-orders/internal/logger"
	"ms-orders/internal/models"
)

func TestDispatch_Delivers(t *testing.T) {
	var got models.NotifyRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/notify", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	n := notify.NewNotifier(server.URL, server.Client(), logger.NewLogger())
	n.Dispatch(context.Background(), models.NotifyOrderConfirmed, "o1", []string{"10", "11"})

	assert.Equal(t, models.NotifyOrderConfirmed, got.Type)
	assert.Equal(t, "o1", got.OrderID)
	assert.Equal(t, []string{"10", "11"}, got.Seats)
}

func TestDispatch_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := notify.NewNotifier(server.URL, server.Client(), logger.NewLogger())
	n.Dispatch(context.Background(), models.NotifyOrderFailed, "o1", []string{"10"})

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

// Exhausting the retry budget must be silent toward the caller.
func TestDispatch_GivesUpQuietly(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	n := notify.NewNotifier(server.URL, server.Client(), logger.NewLogger())
	n.Dispatch(context.Background(), models.NotifyOrderFailed, "o1", []string{"10"})

	assert.Equal(t, int32(n.MaxAttempts), atomic.LoadInt32(&calls))
}
