package dto

// AssignRequest payload for bulk assignment.
type AssignRequest struct {
	ItemIDs    []string `json:"item_ids" validate:"required,min=1,dive,required"`
	AssigneeID string   `json:"assignee_id" validate:"required"`
}

// AutoAssignRequest payload for load-balanced assignment.
type AutoAssignRequest struct {
	ItemID string `json:"item_id" validate:"required"`
}

// BulkTransitionRequest payload for applying one transition to many items.
type BulkTransitionRequest struct {
	ItemIDs []string `json:"item_ids" validate:"required,min=1,dive,required"`
	Target  string   `json:"target" validate:"required"`
	Comment string   `json:"comment,omitempty"`
}

// BulkImportItem is one row of a bulk intake file.
type BulkImportItem struct {
	Kind         string `json:"kind" validate:"required,oneof=BATCH COMPLAINT"`
	ClientID     string `json:"client_id" validate:"required"`
	Reference    string `json:"reference,omitempty"`
	PriorityHint string `json:"priority_hint,omitempty"`
	ReadyForScan bool   `json:"ready_for_scan,omitempty"`
}

// BulkImportRequest payload for bulk intake.
type BulkImportRequest struct {
	Items []BulkImportItem `json:"items" validate:"required,min=1,dive"`
}
