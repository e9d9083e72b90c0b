package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/events"
	"github.com/spec-kit/workflow-service/internal/repository"
	"github.com/spec-kit/workflow-service/internal/workflow"
	apperrors "github.com/spec-kit/workflow-service/pkg/util"
)

type assignmentFixture struct {
	items      *repository.MemoryWorkItemRepository
	directory  *repository.MemoryDirectoryRepository
	dispatcher events.Dispatcher
	service    *AssignmentService
}

func newAssignmentFixture(t *testing.T) *assignmentFixture {
	t.Helper()
	items := repository.NewMemoryWorkItemRepository()
	directory := repository.NewMemoryDirectoryRepository()
	dispatcher := events.NewInMemoryDispatcher()
	logger := zap.NewNop()
	svc := NewAssignmentService(AssignmentDependencies{
		ItemRepo:      items,
		DirectoryRepo: directory,
		Machine:       workflow.NewMachine(),
		Bulk:          NewBulkCoordinator(logger),
		Dispatcher:    dispatcher,
		Logger:        logger,
	})
	return &assignmentFixture{items: items, directory: directory, dispatcher: dispatcher, service: svc}
}

func (f *assignmentFixture) addActor(t *testing.T, id string, role domain.Role, active bool) domain.Actor {
	t.Helper()
	actor := domain.Actor{ID: id, Name: id, Email: id + "@corp.test", Role: role, Active: active}
	require.NoError(t, f.directory.Create(context.Background(), &actor))
	return actor
}

func (f *assignmentFixture) addItem(t *testing.T, id string, kind domain.Kind, status domain.Status, ownerID *string) domain.WorkItem {
	t.Helper()
	item := domain.WorkItem{
		ID:                   id,
		Kind:                 kind,
		Reference:            "REF-" + id,
		ClientID:             "client-1",
		ContractualDelayDays: 7,
		Status:               status,
		OwnerID:              ownerID,
	}
	require.NoError(t, f.items.Create(context.Background(), &item))
	return item
}

func TestBulkAssignIsolatesTerminalItem(t *testing.T) {
	f := newAssignmentFixture(t)
	chef := f.addActor(t, "chef-1", domain.RoleChefEquipe, true)
	gest := f.addActor(t, "gest-1", domain.RoleGestionnaire, true)

	f.addItem(t, "item-a", domain.KindBatch, domain.StatusScanne, nil)
	f.addItem(t, "item-b", domain.KindBatch, domain.StatusCloture, nil)
	f.addItem(t, "item-c", domain.KindBatch, domain.StatusAAffecter, nil)

	result, err := f.service.Assign(context.Background(), []string{"item-a", "item-b", "item-c"}, gest.ID, chef)
	require.NoError(t, err)

	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 1, result.Errors[0].Index)
	assert.Equal(t, "item-b", result.Errors[0].ID)
	assert.Equal(t, "INVALID_TRANSITION", result.Errors[0].Code)

	// The failures never rolled back the successes.
	itemA, err := f.items.GetByID(context.Background(), "item-a")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigne, itemA.Status)
	require.NotNil(t, itemA.OwnerID)
	assert.Equal(t, gest.ID, *itemA.OwnerID)

	itemB, err := f.items.GetByID(context.Background(), "item-b")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCloture, itemB.Status)
	assert.Nil(t, itemB.OwnerID)
}

func TestAssignUnknownAssigneeFailsWholeCall(t *testing.T) {
	f := newAssignmentFixture(t)
	chef := f.addActor(t, "chef-1", domain.RoleChefEquipe, true)
	f.addItem(t, "item-a", domain.KindBatch, domain.StatusScanne, nil)

	_, err := f.service.Assign(context.Background(), []string{"item-a"}, "ghost", chef)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.CodeOf(err))
}

func TestAssignComplaintUsesKindEdge(t *testing.T) {
	f := newAssignmentFixture(t)
	chef := f.addActor(t, "chef-1", domain.RoleChefEquipe, true)
	gest := f.addActor(t, "gest-1", domain.RoleGestionnaire, true)
	f.addItem(t, "rec-1", domain.KindComplaint, domain.StatusOpen, nil)

	item, err := f.service.AssignOne(context.Background(), "rec-1", gest.ID, chef)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, item.Status)
}

func TestAutoAssignPicksLeastLoaded(t *testing.T) {
	f := newAssignmentFixture(t)
	chef := f.addActor(t, "chef-1", domain.RoleChefEquipe, true)
	g1 := f.addActor(t, "gest-01", domain.RoleGestionnaire, true)
	g2 := f.addActor(t, "gest-02", domain.RoleGestionnaire, true)
	f.addActor(t, "gest-03", domain.RoleGestionnaire, false)

	f.addItem(t, "busy-1", domain.KindBatch, domain.StatusEnCours, &g1.ID)
	f.addItem(t, "busy-2", domain.KindBatch, domain.StatusEnCours, &g1.ID)
	f.addItem(t, "busy-3", domain.KindComplaint, domain.StatusInProgress, &g2.ID)
	f.addItem(t, "target", domain.KindBatch, domain.StatusAAffecter, nil)

	item, err := f.service.AutoAssign(context.Background(), "target", chef)
	require.NoError(t, err)
	require.NotNil(t, item.OwnerID)
	assert.Equal(t, g2.ID, *item.OwnerID)
}

func TestAutoAssignTieBreaksOnLowestID(t *testing.T) {
	f := newAssignmentFixture(t)
	chef := f.addActor(t, "chef-1", domain.RoleChefEquipe, true)
	g1 := f.addActor(t, "gest-01", domain.RoleGestionnaire, true)
	g2 := f.addActor(t, "gest-02", domain.RoleGestionnaire, true)

	f.addItem(t, "busy-1", domain.KindBatch, domain.StatusEnCours, &g1.ID)
	f.addItem(t, "busy-2", domain.KindBatch, domain.StatusEnCours, &g2.ID)
	f.addItem(t, "target", domain.KindBatch, domain.StatusScanne, nil)

	item, err := f.service.AutoAssign(context.Background(), "target", chef)
	require.NoError(t, err)
	require.NotNil(t, item.OwnerID)
	assert.Equal(t, g1.ID, *item.OwnerID)
}

func TestAutoAssignTreatedItemsDoNotCount(t *testing.T) {
	f := newAssignmentFixture(t)
	chef := f.addActor(t, "chef-1", domain.RoleChefEquipe, true)
	g1 := f.addActor(t, "gest-01", domain.RoleGestionnaire, true)
	g2 := f.addActor(t, "gest-02", domain.RoleGestionnaire, true)

	// g1 looks busier on raw count but everything owned is settled.
	f.addItem(t, "done-1", domain.KindBatch, domain.StatusTraite, &g1.ID)
	f.addItem(t, "done-2", domain.KindComplaint, domain.StatusResolved, &g1.ID)
	f.addItem(t, "busy-1", domain.KindBatch, domain.StatusEnCours, &g2.ID)
	f.addItem(t, "target", domain.KindBatch, domain.StatusScanne, nil)

	item, err := f.service.AutoAssign(context.Background(), "target", chef)
	require.NoError(t, err)
	require.NotNil(t, item.OwnerID)
	assert.Equal(t, g1.ID, *item.OwnerID)
}

func TestAutoAssignNoCandidates(t *testing.T) {
	f := newAssignmentFixture(t)
	chef := f.addActor(t, "chef-1", domain.RoleChefEquipe, true)
	f.addActor(t, "gest-01", domain.RoleGestionnaire, false)
	f.addItem(t, "target", domain.KindBatch, domain.StatusScanne, nil)

	_, err := f.service.AutoAssign(context.Background(), "target", chef)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.CodeOf(err))
}

func TestReturnRequiresReason(t *testing.T) {
	f := newAssignmentFixture(t)
	gest := f.addActor(t, "gest-01", domain.RoleGestionnaire, true)
	f.addItem(t, "mine", domain.KindBatch, domain.StatusEnCours, &gest.ID)

	_, err := f.service.ReturnToSupervisor(context.Background(), "mine", "   ", gest)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperrors.CodeOf(err))
}

func TestReturnClearsOwnerAndSetsMarker(t *testing.T) {
	f := newAssignmentFixture(t)
	gest := f.addActor(t, "gest-01", domain.RoleGestionnaire, true)
	f.addItem(t, "mine", domain.KindBatch, domain.StatusEnCours, &gest.ID)

	item, err := f.service.ReturnToSupervisor(context.Background(), "mine", "missing scan pages", gest)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnDifficulte, item.Status)
	assert.Nil(t, item.OwnerID)
	require.NotNil(t, item.ReturnedFromID)
	assert.Equal(t, gest.ID, *item.ReturnedFromID)
	assert.Equal(t, "missing scan pages", item.ReturnedReason)
}

func TestEscalatePublishesEvent(t *testing.T) {
	f := newAssignmentFixture(t)
	chef := f.addActor(t, "chef-1", domain.RoleChefEquipe, true)
	f.addItem(t, "rec-1", domain.KindComplaint, domain.StatusInProgress, nil)

	var received []events.Event
	f.dispatcher.Subscribe(events.EventItemEscalated, func(_ context.Context, event events.Event) error {
		received = append(received, event)
		return nil
	})

	item, err := f.service.Escalate(context.Background(), "rec-1", "client threatening regulator complaint", chef)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEscalated, item.Status)

	require.Len(t, received, 1)
	assert.Equal(t, "rec-1", received[0].ItemID)
	payload, ok := received[0].Payload.(events.EscalatedPayload)
	require.True(t, ok)
	assert.Equal(t, domain.StatusInProgress, payload.OldStatus)
}

func TestEscalateForbiddenForContributor(t *testing.T) {
	f := newAssignmentFixture(t)
	gest := f.addActor(t, "gest-01", domain.RoleGestionnaire, true)
	f.addItem(t, "rec-1", domain.KindComplaint, domain.StatusInProgress, &gest.ID)

	_, err := f.service.Escalate(context.Background(), "rec-1", "too hard", gest)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.CodeOf(err))
}
