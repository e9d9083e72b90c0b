package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/events"
	"github.com/spec-kit/workflow-service/internal/repository"
	"github.com/spec-kit/workflow-service/internal/workflow"
	apperrors "github.com/spec-kit/workflow-service/pkg/util"
)

// AssignmentService handles assignment, return and escalation of work items.
type AssignmentService struct {
	items      repository.WorkItemRepository
	directory  repository.DirectoryRepository
	machine    *workflow.Machine
	bulk       *BulkCoordinator
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	ItemRepo      repository.WorkItemRepository
	DirectoryRepo repository.DirectoryRepository
	Machine       *workflow.Machine
	Bulk          *BulkCoordinator
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		items:      deps.ItemRepo,
		directory:  deps.DirectoryRepo,
		machine:    deps.Machine,
		bulk:       deps.Bulk,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// Assign assigns many items to one actor, isolating per-item failures. A
// missing assignee fails the whole call; everything item-level lands in the
// result's error list instead.
func (s *AssignmentService) Assign(ctx context.Context, itemIDs []string, assigneeID string, actor domain.Actor) (BulkResult, error) {
	assignee, err := s.directory.GetByID(ctx, assigneeID)
	if err != nil {
		return BulkResult{}, mapActorErr(err, assigneeID)
	}

	result := s.bulk.Run(ctx, itemIDs, func(ctx context.Context, id string) error {
		_, err := s.assignOne(ctx, id, assignee, actor)
		return err
	})
	return result, nil
}

// AssignOne assigns a single item.
func (s *AssignmentService) AssignOne(ctx context.Context, itemID, assigneeID string, actor domain.Actor) (*domain.WorkItem, error) {
	assignee, err := s.directory.GetByID(ctx, assigneeID)
	if err != nil {
		return nil, mapActorErr(err, assigneeID)
	}
	return s.assignOne(ctx, itemID, assignee, actor)
}

func (s *AssignmentService) assignOne(ctx context.Context, itemID string, assignee *domain.Actor, actor domain.Actor) (*domain.WorkItem, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, mapItemErr(err, itemID)
	}

	res, err := s.machine.ApplyAssign(*item, *assignee, actor)
	if err != nil {
		return nil, err
	}
	if err := s.items.SaveWithHistory(ctx, &res.Item, item.Version, &res.Entry); err != nil {
		return nil, mapItemErr(err, itemID)
	}

	s.publish(ctx, events.Event{
		Type:    events.EventItemAssigned,
		ItemID:  res.Item.ID,
		ActorID: actor.ID,
		Payload: events.AssignedPayload{AssigneeID: assignee.ID, NewStatus: res.Item.Status},
	})
	return &res.Item, nil
}

// AutoAssign picks the eligible actor with the least open load and assigns
// the item to them. Ties break by actor id ascending so the choice is
// reproducible given a stable load snapshot.
func (s *AssignmentService) AutoAssign(ctx context.Context, itemID string, actor domain.Actor) (*domain.WorkItem, error) {
	candidates, err := s.directory.ListByRole(ctx, domain.RoleGestionnaire, true)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(candidates) == 0 {
		return nil, apperrors.NewConflict("no eligible assignee available", nil)
	}

	ids := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		ids = append(ids, candidate.ID)
	}
	loads, err := s.items.CountOpenByOwner(ctx, ids)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	// Candidates arrive sorted by id ascending; strict less keeps the
	// first (lowest id) winner on equal load.
	selected := candidates[0]
	for _, candidate := range candidates[1:] {
		if loads[candidate.ID] < loads[selected.ID] {
			selected = candidate
		}
	}

	s.logger.Info("auto-assign selected",
		zap.String("item_id", itemID),
		zap.String("assignee_id", selected.ID),
		zap.Int("load", loads[selected.ID]))

	return s.assignOne(ctx, itemID, &selected, actor)
}

// ReturnToSupervisor sends an item back to the supervisory queue.
func (s *AssignmentService) ReturnToSupervisor(ctx context.Context, itemID, reason string, actor domain.Actor) (*domain.WorkItem, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, mapItemErr(err, itemID)
	}

	res, err := s.machine.ApplyReturn(*item, actor, reason)
	if err != nil {
		return nil, err
	}
	if err := s.items.SaveWithHistory(ctx, &res.Item, item.Version, &res.Entry); err != nil {
		return nil, mapItemErr(err, itemID)
	}

	s.publish(ctx, events.Event{
		Type:    events.EventItemReturned,
		ItemID:  res.Item.ID,
		ActorID: actor.ID,
		Payload: events.ReturnedPayload{Reason: reason},
	})
	return &res.Item, nil
}

// Escalate forces an item into supervisory attention from any non-terminal
// state.
func (s *AssignmentService) Escalate(ctx context.Context, itemID, reason string, actor domain.Actor) (*domain.WorkItem, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, mapItemErr(err, itemID)
	}

	res, err := s.machine.Escalate(*item, actor, reason)
	if err != nil {
		return nil, err
	}
	if err := s.items.SaveWithHistory(ctx, &res.Item, item.Version, &res.Entry); err != nil {
		return nil, mapItemErr(err, itemID)
	}

	s.publish(ctx, events.Event{
		Type:    events.EventItemEscalated,
		ItemID:  res.Item.ID,
		ActorID: actor.ID,
		Payload: events.EscalatedPayload{Reason: reason, OldStatus: item.Status},
	})
	return &res.Item, nil
}

func (s *AssignmentService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
