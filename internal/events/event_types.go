package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketOpened    EventType = "ticket_opened"
	EventTicketClosed    EventType = "ticket_closed"
	EventReviewPublished EventType = "review_published"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketOpenedPayload payload.
type TicketOpenedPayload struct {
	TicketNumber int    `json:"ticket_number"`
	RequesterID  string `json:"requester_id"`
	ChannelID    string `json:"channel_id"`
	ServiceType  string `json:"service_type"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	TicketNumber int    `json:"ticket_number"`
	RequesterID  string `json:"requester_id"`
	ChannelID    string `json:"channel_id"`
	ClosedBy     string `json:"closed_by"`
}

// ReviewPublishedPayload payload.
type ReviewPublishedPayload struct {
	RequesterID string `json:"requester_id"`
	Rating      int    `json:"rating"`
	HasComment  bool   `json:"has_comment"`
}
