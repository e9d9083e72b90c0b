package corbeille

import (
	"time"

	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/sla"
)

// Item is a work item annotated with its SLA state for queue display.
type Item struct {
	domain.WorkItem
	Sla sla.Annotation `json:"sla"`
}

// Stats aggregates counts over the visible set.
type Stats struct {
	Unassigned int `json:"unassigned"`
	InProgress int `json:"in_progress"`
	Treated    int `json:"treated"`
	Returned   int `json:"returned"`
	EnRetard   int `json:"en_retard"`
	Critiques  int `json:"critiques"`
}

// Partition is a role-scoped queue view. Buckets are disjoint and their
// union is exactly the visible subset of the input.
type Partition struct {
	Unassigned []Item `json:"unassigned"`
	InProgress []Item `json:"in_progress"`
	Treated    []Item `json:"treated"`
	Returned   []Item `json:"returned"`
	Stats      Stats  `json:"stats"`
}

// Options tune partitioning. TreatedWindow bounds how far back the treated
// bucket reaches; zero means the default seven days.
type Options struct {
	TreatedWindow time.Duration
}

const defaultTreatedWindow = 7 * 24 * time.Hour

type bucket int

const (
	bucketNone bucket = iota
	bucketUnassigned
	bucketInProgress
	bucketTreated
	bucketReturned
)

// PartitionItems classifies a snapshot of work items into the corbeille view
// for the given role and actor. It is pure: items are annotated, never
// mutated, and the result is recomputed on every call.
func PartitionItems(items []domain.WorkItem, role domain.Role, actorID string, now time.Time, opts Options) Partition {
	window := opts.TreatedWindow
	if window <= 0 {
		window = defaultTreatedWindow
	}
	supervisory := domain.CapabilitiesFor(role).SeesOpenPool

	var result Partition
	for i := range items {
		item := &items[i]
		var target bucket
		if supervisory {
			target = classifySupervisory(item, now, window)
		} else {
			target = classifyContributor(item, actorID, now, window)
		}
		if target == bucketNone {
			continue
		}

		annotated := Item{WorkItem: *item, Sla: sla.ComputeFor(item, now)}
		switch target {
		case bucketUnassigned:
			result.Unassigned = append(result.Unassigned, annotated)
			result.Stats.Unassigned++
		case bucketInProgress:
			result.InProgress = append(result.InProgress, annotated)
			result.Stats.InProgress++
		case bucketTreated:
			result.Treated = append(result.Treated, annotated)
			result.Stats.Treated++
		case bucketReturned:
			result.Returned = append(result.Returned, annotated)
			result.Stats.Returned++
		}

		if annotated.Sla.RiskTier == sla.TierOverdue {
			result.Stats.EnRetard++
		}
		if annotated.Sla.RiskTier == sla.TierCritical || item.Priority == domain.PriorityCritical {
			result.Stats.Critiques++
		}
	}
	return result
}

// classifySupervisory assigns each item to at most one bucket with fixed
// precedence: returned, then treated, then in-progress, then unassigned.
// Items matching no rule (for example batches still at the scan station) are
// not part of this role's corbeille.
func classifySupervisory(item *domain.WorkItem, now time.Time, window time.Duration) bucket {
	switch {
	case item.ReturnedFromID != nil && item.Status == domain.ReturnStatus(item.Kind):
		return bucketReturned
	case domain.IsTreated(item.Status):
		if item.UpdatedAt.Before(now.Add(-window)) {
			return bucketNone
		}
		return bucketTreated
	case item.OwnerID != nil && !item.Terminal():
		return bucketInProgress
	case item.OwnerID == nil && domain.IsAssignable(item.Status):
		return bucketUnassigned
	default:
		return bucketNone
	}
}

// classifyContributor restricts visibility to the actor's own items plus the
// ones they sent back. Individual contributors never see the open pool.
func classifyContributor(item *domain.WorkItem, actorID string, now time.Time, window time.Duration) bucket {
	returnedByActor := item.ReturnedFromID != nil && *item.ReturnedFromID == actorID
	if !item.Owned(actorID) && !returnedByActor {
		return bucketNone
	}
	switch {
	case returnedByActor:
		return bucketReturned
	case domain.IsTreated(item.Status):
		if item.UpdatedAt.Before(now.Add(-window)) {
			return bucketNone
		}
		return bucketTreated
	default:
		return bucketInProgress
	}
}
