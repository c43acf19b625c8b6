package catalog_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-orders/internal/apperr"
	"ms-orders/internal/gateway/catalog"
)

func TestGetEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/events/event456", r.URL.Path)
		fmt.Fprint(w, `{"event":{"event_id":"event456","name":"Summer Gala","venue_id":"v1"}}`)
	}))
	defer server.Close()

	client := catalog.NewClient(server.URL, server.Client())
	event, err := client.GetEvent(context.Background(), "event456")

	require.NoError(t, err)
	assert.Equal(t, "event456", event.EventID)
	assert.Equal(t, "Summer Gala", event.Name)
}

func TestGetEvent_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such event", http.StatusNotFound)
	}))
	defer server.Close()

	client := catalog.NewClient(server.URL, server.Client())
	_, err := client.GetEvent(context.Background(), "missing")

	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestGetEvent_NullEventIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"event":null}`)
	}))
	defer server.Close()

	client := catalog.NewClient(server.URL, server.Client())
	_, err := client.GetEvent(context.Background(), "event456")

	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestGetEvent_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := catalog.NewClient(server.URL, server.Client())
	_, err := client.GetEvent(context.Background(), "event456")

	assert.True(t, apperr.Is(err, apperr.Upstream))
}
