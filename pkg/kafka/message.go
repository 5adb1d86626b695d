package kafka

import (
	"encoding/json"
	"fmt"
	"time"
)

// IncomingMessage is a fetched Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string
}

// EventType returns the event_type header, or empty when absent.
func (m *IncomingMessage) EventType() string {
	return m.Headers["event_type"]
}

// ListingEvent is the envelope published by the listing service whenever a
// property or request is created, updated, or deactivated. This service
// consumes it to keep its listing read model current.
type ListingEvent struct {
	EventType   string    `json:"event_type"` // listing.upserted, listing.deactivated
	ListingID   string    `json:"listing_id"`
	ListingType string    `json:"listing_type"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug,omitempty"`
	IsActive    bool      `json:"is_active"`
	Timestamp   time.Time `json:"timestamp"`
}

// ParseListingEvent decodes the message value as a listing event.
func (m *IncomingMessage) ParseListingEvent() (*ListingEvent, error) {
	var event ListingEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		return nil, fmt.Errorf("failed to parse listing event: %w", err)
	}

	if event.EventType == "" {
		event.EventType = m.EventType()
	}
	if event.ListingID == "" {
		return nil, fmt.Errorf("listing event is missing listing_id")
	}

	return &event, nil
}
