package events

import (
	"time"

	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/sla"
)

// EventType enumerates engine event identifiers.
type EventType string

const (
	EventItemCreated       EventType = "item.created"
	EventItemStatusChanged EventType = "item.status_changed"
	EventItemAssigned      EventType = "item.assigned"
	EventItemReturned      EventType = "item.returned"
	EventItemEscalated     EventType = "item.escalated"
	EventSlaAtRisk         EventType = "sla.at_risk"
	EventSlaOverdue        EventType = "sla.overdue"
)

// Event is a fire-and-forget notification emitted by the engine. Delivery
// failures never affect engine state.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ItemID    string      `json:"item_id"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	Kind      domain.Kind   `json:"kind"`
	OldStatus domain.Status `json:"old_status"`
	NewStatus domain.Status `json:"new_status"`
	Comment   string        `json:"comment,omitempty"`
}

// AssignedPayload payload.
type AssignedPayload struct {
	AssigneeID string        `json:"assignee_id"`
	NewStatus  domain.Status `json:"new_status"`
}

// ReturnedPayload payload.
type ReturnedPayload struct {
	Reason string `json:"reason"`
}

// EscalatedPayload payload.
type EscalatedPayload struct {
	Reason    string        `json:"reason"`
	OldStatus domain.Status `json:"old_status"`
}

// SlaPayload payload for SLA sweep events.
type SlaPayload struct {
	Reference      string       `json:"reference"`
	RiskTier       sla.RiskTier `json:"risk_tier"`
	RemainingHours float64      `json:"remaining_hours"`
}
