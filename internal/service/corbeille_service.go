package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/workflow-service/internal/corbeille"
	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/repository"
	apperrors "github.com/spec-kit/workflow-service/pkg/util"
)

// CorbeilleService renders role-scoped queue views. Partitioning itself is
// pure; this layer adds the item snapshot and the Redis read-through.
type CorbeilleService struct {
	items    repository.WorkItemRepository
	snapshot *corbeille.SnapshotCache
	options  corbeille.Options
	logger   *zap.Logger
}

// NewCorbeilleService creates the service.
func NewCorbeilleService(items repository.WorkItemRepository, snapshot *corbeille.SnapshotCache, options corbeille.Options, logger *zap.Logger) *CorbeilleService {
	return &CorbeilleService{items: items, snapshot: snapshot, options: options, logger: logger}
}

// View returns the corbeille for the actor, serving a cached snapshot when
// one is fresh enough.
func (s *CorbeilleService) View(ctx context.Context, actor domain.Actor, now time.Time) (*corbeille.Partition, error) {
	if cached, ok := s.snapshot.Get(ctx, string(actor.Role), actor.ID); ok {
		return cached, nil
	}

	items, err := s.loadVisible(ctx, actor)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	partition := corbeille.PartitionItems(items, actor.Role, actor.ID, now, s.options)
	s.snapshot.Set(ctx, string(actor.Role), actor.ID, &partition)
	return &partition, nil
}

// loadVisible narrows the fetch for individual contributors: they only ever
// see items they own or sent back, so the full table scan is reserved for
// supervisory roles.
func (s *CorbeilleService) loadVisible(ctx context.Context, actor domain.Actor) ([]domain.WorkItem, error) {
	// Queue views need the whole visible set, not a page.
	const snapshotLimit = 10000

	if domain.CapabilitiesFor(actor.Role).SeesOpenPool {
		return s.items.List(ctx, repository.WorkItemFilter{Limit: snapshotLimit})
	}

	owned, err := s.items.List(ctx, repository.WorkItemFilter{OwnerID: &actor.ID, Limit: snapshotLimit})
	if err != nil {
		return nil, err
	}
	returned, err := s.items.List(ctx, repository.WorkItemFilter{ReturnedOnly: true, Limit: snapshotLimit})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(owned))
	for _, item := range owned {
		seen[item.ID] = struct{}{}
	}
	for _, item := range returned {
		if _, dup := seen[item.ID]; dup {
			continue
		}
		if item.ReturnedFromID != nil && *item.ReturnedFromID == actor.ID {
			owned = append(owned, item)
		}
	}
	return owned, nil
}
