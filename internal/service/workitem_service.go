package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/events"
	"github.com/spec-kit/workflow-service/internal/reference"
	"github.com/spec-kit/workflow-service/internal/repository"
	"github.com/spec-kit/workflow-service/internal/sla"
	"github.com/spec-kit/workflow-service/internal/workflow"
	apperrors "github.com/spec-kit/workflow-service/pkg/util"
)

// WorkItemService coordinates work-item lifecycles.
type WorkItemService struct {
	items      repository.WorkItemRepository
	history    repository.HistoryRepository
	clients    repository.ClientRepository
	machine    *workflow.Machine
	refs       *reference.Generator
	slaCache   *sla.Cache
	bulk       *BulkCoordinator
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// WorkItemDependencies bundles collaborators.
type WorkItemDependencies struct {
	ItemRepo    repository.WorkItemRepository
	HistoryRepo repository.HistoryRepository
	ClientRepo  repository.ClientRepository
	Machine     *workflow.Machine
	References  *reference.Generator
	SlaCache    *sla.Cache
	Bulk        *BulkCoordinator
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewWorkItemService constructs the service.
func NewWorkItemService(deps WorkItemDependencies) *WorkItemService {
	return &WorkItemService{
		items:      deps.ItemRepo,
		history:    deps.HistoryRepo,
		clients:    deps.ClientRepo,
		machine:    deps.Machine,
		refs:       deps.References,
		slaCache:   deps.SlaCache,
		bulk:       deps.Bulk,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// CreateInput describes creation payload. PriorityHint comes from an
// external classifier and is treated as an untrusted suggestion.
type CreateInput struct {
	Kind         domain.Kind
	ClientID     string
	Reference    string
	PriorityHint domain.Priority
	ReadyForScan bool
}

// WorkItemDetail is a read view: item plus derived SLA state and audit
// trail.
type WorkItemDetail struct {
	Item    domain.WorkItem
	Sla     sla.Annotation
	History []domain.HistoryEntry
}

// Create registers a new work item in its kind's canonical initial state.
// Batches flagged ready-for-scan advance immediately along the
// EN_ATTENTE -> A_SCANNER edge rather than entering at A_SCANNER.
func (s *WorkItemService) Create(ctx context.Context, input CreateInput, actor domain.Actor) (*domain.WorkItem, error) {
	if !domain.CapabilitiesFor(actor.Role).CanIntake {
		return nil, apperrors.NewForbidden("role not permitted to create work items")
	}
	if input.Kind != domain.KindBatch && input.Kind != domain.KindComplaint {
		return nil, apperrors.NewValidationError("unknown work item kind", map[string]any{"kind": input.Kind})
	}

	client, err := s.clients.GetByID(ctx, input.ClientID)
	if err != nil {
		return nil, mapClientErr(err, input.ClientID)
	}
	if !client.Active {
		return nil, apperrors.NewValidationError("client inactive", map[string]any{"client_id": client.ID})
	}
	delayDays := client.ContractualDelayDays
	if delayDays < 1 {
		return nil, apperrors.NewValidationError("client has no contractual delay configured", map[string]any{"client_id": client.ID})
	}

	ref, err := s.resolveReference(ctx, input.Kind, input.Reference)
	if err != nil {
		return nil, err
	}

	item := &domain.WorkItem{
		Kind:                 input.Kind,
		Reference:            ref,
		ClientID:             client.ID,
		ContractualDelayDays: delayDays,
		Status:               domain.InitialStatus(input.Kind),
		Priority:             resolvePriority(input.Kind, input.PriorityHint),
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, apperrors.MapError(err)
	}

	entry := &domain.HistoryEntry{
		WorkItemID:  item.ID,
		ActorID:     actor.ID,
		Action:      domain.ActionCreate,
		ToStatus:    item.Status,
		Description: "created",
	}
	if err := s.history.Append(ctx, entry); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:    events.EventItemCreated,
		ItemID:  item.ID,
		ActorID: actor.ID,
		Payload: events.StatusChangedPayload{Kind: item.Kind, NewStatus: item.Status},
	})

	if input.ReadyForScan && input.Kind == domain.KindBatch {
		return s.Transition(ctx, item.ID, domain.StatusAScanner, "intake: ready for scan", actor)
	}
	return item, nil
}

// Transition applies a validated status change and commits it atomically
// with its history entry.
func (s *WorkItemService) Transition(ctx context.Context, itemID string, target domain.Status, comment string, actor domain.Actor) (*domain.WorkItem, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, mapItemErr(err, itemID)
	}

	res, err := s.machine.Apply(*item, target, actor, comment)
	if err != nil {
		return nil, err
	}
	if err := s.items.SaveWithHistory(ctx, &res.Item, item.Version, &res.Entry); err != nil {
		return nil, mapItemErr(err, itemID)
	}

	s.publish(ctx, events.Event{
		Type:    events.EventItemStatusChanged,
		ItemID:  res.Item.ID,
		ActorID: actor.ID,
		Payload: events.StatusChangedPayload{
			Kind:      res.Item.Kind,
			OldStatus: item.Status,
			NewStatus: res.Item.Status,
			Comment:   comment,
		},
	})
	return &res.Item, nil
}

// Get returns the item with its recomputed SLA annotation and audit trail.
func (s *WorkItemService) Get(ctx context.Context, itemID string, now time.Time) (*WorkItemDetail, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, mapItemErr(err, itemID)
	}
	entries, err := s.history.ListByItem(ctx, itemID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &WorkItemDetail{
		Item:    *item,
		Sla:     s.slaCache.Annotate(item, now),
		History: entries,
	}, nil
}

// List returns a filtered snapshot of work items.
func (s *WorkItemService) List(ctx context.Context, filter repository.WorkItemFilter) ([]domain.WorkItem, error) {
	items, err := s.items.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// BulkTransition applies the same target status to many items with
// per-item failure isolation.
func (s *WorkItemService) BulkTransition(ctx context.Context, itemIDs []string, target domain.Status, comment string, actor domain.Actor) BulkResult {
	return s.bulk.Run(ctx, itemIDs, func(ctx context.Context, id string) error {
		_, err := s.Transition(ctx, id, target, comment, actor)
		return err
	})
}

// BulkImport creates many items from an intake file. Rows are isolated the
// same way bulk transitions are; error indices refer to file rows. Rows are
// addressed by position so duplicate references collide at save, not here.
func (s *WorkItemService) BulkImport(ctx context.Context, inputs []CreateInput, actor domain.Actor) BulkResult {
	labels := make([]string, len(inputs))
	for i, input := range inputs {
		labels[i] = fmt.Sprintf("row-%d", i)
		if input.Reference != "" {
			labels[i] = input.Reference
		}
	}
	return s.bulk.RunIndexed(ctx, labels, func(ctx context.Context, i int) error {
		_, err := s.Create(ctx, inputs[i], actor)
		return err
	})
}

func (s *WorkItemService) resolveReference(ctx context.Context, kind domain.Kind, supplied string) (string, error) {
	if supplied != "" {
		exists, err := s.items.ReferenceExists(ctx, kind, supplied)
		if err != nil {
			return "", apperrors.MapError(err)
		}
		if exists {
			return "", apperrors.NewConflict("reference already in use", map[string]any{"reference": supplied})
		}
		return supplied, nil
	}

	for attempt := 0; attempt < 3; attempt++ {
		ref := s.refs.Next(kind)
		exists, err := s.items.ReferenceExists(ctx, kind, ref)
		if err != nil {
			return "", apperrors.MapError(err)
		}
		if !exists {
			return ref, nil
		}
	}
	return "", apperrors.NewConflict("could not generate a unique reference", nil)
}

// resolvePriority clamps the classifier hint: batches never carry priority
// and unknown complaint values fall back to MEDIUM.
func resolvePriority(kind domain.Kind, hint domain.Priority) domain.Priority {
	if kind == domain.KindBatch {
		return domain.PriorityNone
	}
	switch hint {
	case domain.PriorityLow, domain.PriorityMedium, domain.PriorityCritical:
		return hint
	default:
		return domain.PriorityMedium
	}
}

func (s *WorkItemService) publish(ctx context.Context, event events.Event) {
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
