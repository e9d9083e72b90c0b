package domain

import "time"

// Client is the counterparty owning work items. Its contractual delay is
// copied onto items at creation; later contract changes never retroactively
// alter existing items.
type Client struct {
	ID                   string
	Name                 string
	ContractualDelayDays int
	Active               bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
