package models

import "time"

// Event is the catalog service's view of an event. Only existence matters
// to the order flow; the rest is passed through for logging.
type Event struct {
	EventID   string    `json:"event_id"`
	Name      string    `json:"name"`
	VenueID   string    `json:"venue_id"`
	StartsAt  time.Time `json:"starts_at"`
	CreatedAt time.Time `json:"created_at"`
}
