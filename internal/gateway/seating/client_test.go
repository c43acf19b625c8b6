package seating_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-orders/internal/apperr"
	"ms-orders/internal/gateway/seating"
	"ms-orders/internal/models"
)

func TestFetchAvailability(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/seats/availability", r.URL.Path)
		assert.Equal(t, "event456", r.URL.Query().Get("eventId"))
		json.NewEncoder(w).Encode(models.SeatAvailabilityResponse{
			EventID: "event456",
			Seats: []models.SeatSnapshot{
				{SeatID: "10", SeatCode: "A10", Status: models.SeatStatusAvailable, PriceCents: 1500},
				{SeatID: "11", SeatCode: "A11", Status: models.SeatStatusReserved, PriceCents: 2000},
			},
		})
	}))
	defer server.Close()

	client := seating.NewClient(server.URL, server.Client())
	seats, err := client.FetchAvailability(context.Background(), "event456")

	require.NoError(t, err)
	require.Len(t, seats, 2)
	assert.Equal(t, int64(1500), seats[0].PriceCents)
	assert.Equal(t, models.SeatStatusReserved, seats[1].Status)
}

func TestFetchAvailability_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := seating.NewClient(server.URL, server.Client())
	_, err := client.FetchAvailability(context.Background(), "event456")

	assert.True(t, apperr.Is(err, apperr.Upstream))
}

func TestReserve(t *testing.T) {
	var got models.ReserveRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/seats/reserve", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(models.ReserveResponse{Success: true})
	}))
	defer server.Close()

	client := seating.NewClient(server.URL, server.Client())
	err := client.Reserve(context.Background(), "event456", []string{"10", "11"}, "user123", 15*time.Minute)

	require.NoError(t, err)
	assert.Equal(t, "event456", got.EventID)
	assert.Equal(t, []string{"10", "11"}, got.SeatIDs)
	assert.Equal(t, 900, got.TTLSeconds)
}

// success:false means a seat lost the race after the snapshot. That is a
// client-level conflict, not an upstream fault.
func TestReserve_Conflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.ReserveResponse{Success: false, Message: "seat 11 already held"})
	}))
	defer server.Close()

	client := seating.NewClient(server.URL, server.Client())
	err := client.Reserve(context.Background(), "event456", []string{"10", "11"}, "user123", 15*time.Minute)

	assert.True(t, apperr.Is(err, apperr.Client))
}

func TestAllocateAndRelease(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := seating.NewClient(server.URL, server.Client())
	require.NoError(t, client.Allocate(context.Background(), "o1", "event456", []string{"10"}))
	require.NoError(t, client.Release(context.Background(), "o1", "event456", []string{"10"}))

	assert.Equal(t, []string{"/v1/seats/allocate", "/v1/seats/release"}, paths)
}

func TestAllocate_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "seats not in reserved status", http.StatusConflict)
	}))
	defer server.Close()

	client := seating.NewClient(server.URL, server.Client())
	err := client.Allocate(context.Background(), "o1", "event456", []string{"10"})

	assert.True(t, apperr.Is(err, apperr.Upstream))
}
