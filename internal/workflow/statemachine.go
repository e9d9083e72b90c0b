package workflow

import (
	"strings"
	"time"

	"github.com/spec-kit/workflow-service/internal/domain"
	apperrors "github.com/spec-kit/workflow-service/pkg/util"
)

// Machine validates and applies status transitions. It is pure: callers get
// back a modified copy of the item plus the history entry to persist; the
// two must be committed atomically by the persistence layer.
type Machine struct{}

// NewMachine constructs the state machine.
func NewMachine() *Machine {
	return &Machine{}
}

// Result pairs the mutated item with its audit record.
type Result struct {
	Item  domain.WorkItem
	Entry domain.HistoryEntry
}

// Apply validates a regular transition against the kind's adjacency table
// and the actor's role permissions.
func (m *Machine) Apply(item domain.WorkItem, target domain.Status, actor domain.Actor, comment string) (Result, error) {
	if !domain.KnownStatus(item.Kind, target) {
		return Result{}, apperrors.NewInvalidTransition(string(item.Status), string(target), map[string]any{"kind": item.Kind})
	}
	if !domain.CanTransition(item.Kind, item.Status, target) {
		return Result{}, apperrors.NewInvalidTransition(string(item.Status), string(target), map[string]any{"kind": item.Kind})
	}
	if !domain.MayTransition(actor.Role, item.Status, target) {
		return Result{}, apperrors.NewForbidden("role not permitted for this transition")
	}
	return m.mutate(item, target, actor, domain.ActionStatusChange, comment), nil
}

// Escalate forces the item into supervisory attention. It bypasses the
// adjacency check: any non-terminal state escalates, but only actors whose
// role carries the escalation capability.
func (m *Machine) Escalate(item domain.WorkItem, actor domain.Actor, reason string) (Result, error) {
	if !domain.CapabilitiesFor(actor.Role).CanEscalate {
		return Result{}, apperrors.NewForbidden("role not permitted to escalate")
	}
	if item.Terminal() {
		return Result{}, apperrors.NewInvalidTransition(string(item.Status), string(domain.EscalationStatus(item.Kind)), map[string]any{"kind": item.Kind})
	}
	return m.mutate(item, domain.EscalationStatus(item.Kind), actor, domain.ActionEscalation, reason), nil
}

// ApplyAssign moves the item along its kind's assignment edge and sets the
// owner. Assignment clears any previous return marker.
func (m *Machine) ApplyAssign(item domain.WorkItem, assignee domain.Actor, actor domain.Actor) (Result, error) {
	if !domain.CapabilitiesFor(actor.Role).CanAssign && actor.ID != assignee.ID {
		return Result{}, apperrors.NewForbidden("role not permitted to assign")
	}
	if !domain.IsAssignable(item.Status) {
		return Result{}, apperrors.NewInvalidTransition(string(item.Status), string(domain.AssignedStatus(item.Kind)), map[string]any{"kind": item.Kind})
	}
	if !assignee.Active {
		return Result{}, apperrors.NewValidationError("assignee inactive", map[string]any{"actor_id": assignee.ID})
	}
	if assignee.Role != domain.RoleGestionnaire {
		return Result{}, apperrors.NewValidationError("assignee role not eligible", map[string]any{"actor_id": assignee.ID, "role": assignee.Role})
	}

	res := m.mutate(item, domain.AssignedStatus(item.Kind), actor, domain.ActionAssign, "assigned to "+assignee.ID)
	res.Item.OwnerID = &assignee.ID
	res.Item.ReturnedFromID = nil
	res.Item.ReturnedReason = ""
	return res, nil
}

// ApplyReturn sends an owned item back to the supervisory queue. The reason
// is mandatory; ownership is cleared and the return marker set.
func (m *Machine) ApplyReturn(item domain.WorkItem, actor domain.Actor, reason string) (Result, error) {
	if strings.TrimSpace(reason) == "" {
		return Result{}, apperrors.NewValidationError("return reason required", nil)
	}
	if item.Terminal() {
		return Result{}, apperrors.NewInvalidTransition(string(item.Status), string(domain.ReturnStatus(item.Kind)), map[string]any{"kind": item.Kind})
	}
	if !item.Owned(actor.ID) && !domain.CapabilitiesFor(actor.Role).Supervisory {
		return Result{}, apperrors.NewForbidden("only the owner or a supervisor may return an item")
	}

	res := m.mutate(item, domain.ReturnStatus(item.Kind), actor, domain.ActionReturn, reason)
	res.Item.OwnerID = nil
	res.Item.ReturnedFromID = &actor.ID
	res.Item.ReturnedReason = reason
	return res, nil
}

func (m *Machine) mutate(item domain.WorkItem, target domain.Status, actor domain.Actor, action domain.HistoryAction, description string) Result {
	entry := domain.HistoryEntry{
		WorkItemID:  item.ID,
		ActorID:     actor.ID,
		Action:      action,
		FromStatus:  item.Status,
		ToStatus:    target,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	item.Status = target
	return Result{Item: item, Entry: entry}
}
