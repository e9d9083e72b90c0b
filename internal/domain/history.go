package domain

import "time"

// HistoryAction labels what a history entry records.
type HistoryAction string

const (
	ActionCreate       HistoryAction = "create"
	ActionStatusChange HistoryAction = "status_change"
	ActionAssign       HistoryAction = "assign"
	ActionReturn       HistoryAction = "return"
	ActionEscalation   HistoryAction = "escalation"
)

// HistoryEntry is an append-only audit record. One entry is written for
// every accepted transition; entries are never mutated or deleted, and the
// item's current status always equals the ToStatus of its latest entry.
type HistoryEntry struct {
	ID          string
	WorkItemID  string
	ActorID     string
	Action      HistoryAction
	FromStatus  Status
	ToStatus    Status
	Description string
	CreatedAt   time.Time
}
