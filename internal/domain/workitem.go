package domain

import "time"

// Kind discriminates the two work-item variants.
type Kind string

const (
	KindBatch     Kind = "BATCH"
	KindComplaint Kind = "COMPLAINT"
)

// Priority enumerates ordinal severity. Batches carry NONE; complaints use
// the remaining three.
type Priority string

const (
	PriorityNone     Priority = "NONE"
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityCritical Priority = "CRITICAL"
)

// WorkItem is the aggregate tracked by the workflow engine: a document batch
// or a customer complaint moving through the processing pipeline.
type WorkItem struct {
	ID                   string
	Kind                 Kind
	Reference            string
	ClientID             string
	ContractualDelayDays int
	Status               Status
	Priority             Priority
	OwnerID              *string
	ReturnedFromID       *string
	ReturnedReason       string
	Version              int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Owned reports whether the item is assigned to the given actor.
func (w *WorkItem) Owned(actorID string) bool {
	return w.OwnerID != nil && *w.OwnerID == actorID
}

// Terminal reports whether the item reached a machine-terminal state.
func (w *WorkItem) Terminal() bool {
	return IsTerminal(w.Kind, w.Status)
}
