package events

import (
	"time"

	"github.com/primewheels/agent-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventApplicationSubmitted EventType = "application_submitted"
	EventApplicationApproved  EventType = "application_approved"
	EventApplicationRejected  EventType = "application_rejected"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID            string      `json:"id"`
	Type          EventType   `json:"type"`
	ApplicationID string      `json:"application_id"`
	ActorID       *string     `json:"actor_id,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
	Payload       interface{} `json:"payload"`
}

// ApplicationSubmittedPayload payload.
type ApplicationSubmittedPayload struct {
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	WorkHours domain.WorkHours `json:"work_hours"`
}

// ApplicationReviewedPayload is shared by approve and reject events.
type ApplicationReviewedPayload struct {
	Name            string                   `json:"name"`
	Email           string                   `json:"email"`
	Status          domain.ApplicationStatus `json:"status"`
	RejectionReason string                   `json:"rejection_reason,omitempty"`
}
