package events

import (
	"context"
	"time"
)

const (
	EventApprovalRequested  = "approval.requested"
	EventApprovalDecided    = "approval.decided"
	EventRegistrationMerged = "registration.merged"
	EventSessionExpired     = "session.expired"
)

// DomainEvent represents a domain event interface
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetOccurredAt() time.Time
	GetVersion() int
}

// BaseEvent provides common fields for all domain events
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	OccurredAt  time.Time `json:"occurred_at"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string {
	return e.AggregateID
}

func (e BaseEvent) GetEventType() string {
	return e.EventType
}

func (e BaseEvent) GetOccurredAt() time.Time {
	return e.OccurredAt
}

func (e BaseEvent) GetVersion() int {
	return e.Version
}

// WorkflowEvent is emitted on every maker-checker state change so checker
// inboxes and dashboards can refresh without polling.
type WorkflowEvent struct {
	BaseEvent
	SessionID    string `json:"session_id,omitempty"`
	RequestID    string `json:"request_id,omitempty"`
	EntityType   string `json:"entity_type,omitempty"`
	Status       string `json:"status,omitempty"`
	ApproverRole string `json:"approver_role,omitempty"`
	ActorID      uint   `json:"actor_id,omitempty"`
	SubAuthority string `json:"sub_authority,omitempty"`
}

// NewWorkflowEvent stamps a workflow event for aggregateID.
func NewWorkflowEvent(eventType, aggregateID string, occurredAt time.Time) WorkflowEvent {
	return WorkflowEvent{
		BaseEvent: BaseEvent{
			AggregateID: aggregateID,
			EventType:   eventType,
			OccurredAt:  occurredAt,
			Version:     1,
		},
	}
}

// EventHandler handles events of the types it subscribes to.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
}

// EventPublisher delivers events after the business transaction committed.
// Implementations must not be called from inside a transaction.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
}
