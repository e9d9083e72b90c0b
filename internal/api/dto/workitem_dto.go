package dto

import (
	"time"

	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/sla"
)

// CreateWorkItemRequest payload for intake.
type CreateWorkItemRequest struct {
	Kind         string `json:"kind" validate:"required,oneof=BATCH COMPLAINT"`
	ClientID     string `json:"client_id" validate:"required"`
	Reference    string `json:"reference,omitempty"`
	PriorityHint string `json:"priority_hint,omitempty"`
	ReadyForScan bool   `json:"ready_for_scan,omitempty"`
}

// TransitionRequest payload for a status change.
type TransitionRequest struct {
	Target  string `json:"target" validate:"required"`
	Comment string `json:"comment,omitempty"`
}

// EscalateRequest payload for an escalation.
type EscalateRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// ReturnRequest payload for sending an item back to supervision.
type ReturnRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// WorkItemSummary is the list representation.
type WorkItemSummary struct {
	ID                   string          `json:"id"`
	Kind                 domain.Kind     `json:"kind"`
	Reference            string          `json:"reference"`
	ClientID             string          `json:"client_id"`
	ContractualDelayDays int             `json:"contractual_delay_days"`
	Status               domain.Status   `json:"status"`
	Priority             domain.Priority `json:"priority,omitempty"`
	OwnerID              *string         `json:"owner_id,omitempty"`
	Version              int64           `json:"version"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// HistoryResponse is one audit trail entry.
type HistoryResponse struct {
	ID          string               `json:"id"`
	ActorID     string               `json:"actor_id"`
	Action      domain.HistoryAction `json:"action"`
	FromStatus  domain.Status        `json:"from_status,omitempty"`
	ToStatus    domain.Status        `json:"to_status"`
	Description string               `json:"description,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

// WorkItemDetailResponse is the full read view.
type WorkItemDetailResponse struct {
	WorkItemSummary
	ReturnedFromID *string           `json:"returned_from_id,omitempty"`
	ReturnedReason string            `json:"returned_reason,omitempty"`
	Sla            sla.Annotation    `json:"sla"`
	History        []HistoryResponse `json:"history"`
}
