package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/workflow-service/internal/domain"
	apperrors "github.com/spec-kit/workflow-service/pkg/util"
)

var (
	chef = domain.Actor{ID: "chef-1", Role: domain.RoleChefEquipe, Active: true}
	gest = domain.Actor{ID: "gest-1", Role: domain.RoleGestionnaire, Active: true}
	scan = domain.Actor{ID: "scan-1", Role: domain.RoleScanAgent, Active: true}
)

func batchAt(status domain.Status) domain.WorkItem {
	return domain.WorkItem{ID: "b-1", Kind: domain.KindBatch, Status: status}
}

func complaintAt(status domain.Status) domain.WorkItem {
	return domain.WorkItem{ID: "c-1", Kind: domain.KindComplaint, Status: status}
}

func TestApplyValidTransition(t *testing.T) {
	m := NewMachine()

	res, err := m.Apply(batchAt(domain.StatusAScanner), domain.StatusScanEnCours, scan, "scan started")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusScanEnCours, res.Item.Status)
	assert.Equal(t, domain.ActionStatusChange, res.Entry.Action)
	assert.Equal(t, domain.StatusAScanner, res.Entry.FromStatus)
	assert.Equal(t, domain.StatusScanEnCours, res.Entry.ToStatus)
	assert.Equal(t, scan.ID, res.Entry.ActorID)
}

func TestApplyRejectsNonAdjacentTarget(t *testing.T) {
	m := NewMachine()

	_, err := m.Apply(batchAt(domain.StatusAScanner), domain.StatusCloture, chef, "")
	require.Error(t, err)
	assert.Equal(t, "INVALID_TRANSITION", apperrors.CodeOf(err))
}

func TestApplyRejectsForeignKindStatus(t *testing.T) {
	m := NewMachine()

	_, err := m.Apply(complaintAt(domain.StatusOpen), domain.StatusAssigne, chef, "")
	require.Error(t, err)
	assert.Equal(t, "INVALID_TRANSITION", apperrors.CodeOf(err))
}

func TestApplyRejectsRoleWithoutPermission(t *testing.T) {
	m := NewMachine()

	// A scan agent has no business moving payment statuses.
	_, err := m.Apply(batchAt(domain.StatusPretVirement), domain.StatusVirementEnCours, scan, "")
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.CodeOf(err))
}

func TestApplyRejectsAssigneeReopen(t *testing.T) {
	m := NewMachine()

	_, err := m.Apply(complaintAt(domain.StatusResolved), domain.StatusInProgress, gest, "")
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.CodeOf(err))

	// The supervisor may re-open.
	res, err := m.Apply(complaintAt(domain.StatusResolved), domain.StatusInProgress, chef, "reopened")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, res.Item.Status)
}

func TestSideStatesReachableFromMainPath(t *testing.T) {
	m := NewMachine()

	for _, from := range []domain.Status{domain.StatusAssigne, domain.StatusEnCours, domain.StatusPretVirement} {
		res, err := m.Apply(batchAt(from), domain.StatusEnDifficulte, chef, "blocked")
		require.NoError(t, err, "from %s", from)
		assert.Equal(t, domain.StatusEnDifficulte, res.Item.Status)
	}

	// And back into the main path once unblocked.
	res, err := m.Apply(batchAt(domain.StatusPartiel), domain.StatusTraite, gest, "completed")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTraite, res.Item.Status)
}

func TestEscalateFromAnyNonTerminalState(t *testing.T) {
	m := NewMachine()

	for _, status := range []domain.Status{
		domain.StatusOpen,
		domain.StatusInProgress,
		domain.StatusPendingClientReply,
		domain.StatusResolved,
	} {
		res, err := m.Escalate(complaintAt(status), chef, "needs attention")
		require.NoError(t, err, "from %s", status)
		assert.Equal(t, domain.StatusEscalated, res.Item.Status)
		assert.Equal(t, domain.ActionEscalation, res.Entry.Action)
	}
}

func TestEscalateRejectsTerminalAndUnauthorized(t *testing.T) {
	m := NewMachine()

	_, err := m.Escalate(complaintAt(domain.StatusClosed), chef, "too late")
	require.Error(t, err)
	assert.Equal(t, "INVALID_TRANSITION", apperrors.CodeOf(err))

	_, err = m.Escalate(complaintAt(domain.StatusInProgress), gest, "please")
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.CodeOf(err))
}

func TestApplyAssignSetsOwnerAndStatus(t *testing.T) {
	m := NewMachine()

	res, err := m.ApplyAssign(batchAt(domain.StatusAAffecter), gest, chef)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigne, res.Item.Status)
	require.NotNil(t, res.Item.OwnerID)
	assert.Equal(t, gest.ID, *res.Item.OwnerID)
	assert.Equal(t, domain.ActionAssign, res.Entry.Action)

	res, err = m.ApplyAssign(complaintAt(domain.StatusOpen), gest, chef)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, res.Item.Status)
}

func TestApplyAssignDirectlyFromScanOutcome(t *testing.T) {
	m := NewMachine()

	// Assigning from SCANNE skips the A_AFFECTER parking state.
	res, err := m.ApplyAssign(batchAt(domain.StatusScanne), gest, chef)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigne, res.Item.Status)
	assert.Equal(t, domain.StatusScanne, res.Entry.FromStatus)
	assert.Equal(t, domain.StatusAssigne, res.Entry.ToStatus)
}

func TestApplyAssignRejectsUnassignableStatus(t *testing.T) {
	m := NewMachine()

	_, err := m.ApplyAssign(batchAt(domain.StatusEnCours), gest, chef)
	require.Error(t, err)
	assert.Equal(t, "INVALID_TRANSITION", apperrors.CodeOf(err))
}

func TestApplyAssignRejectsIneligibleAssignee(t *testing.T) {
	m := NewMachine()

	inactive := domain.Actor{ID: "gest-2", Role: domain.RoleGestionnaire, Active: false}
	_, err := m.ApplyAssign(batchAt(domain.StatusAAffecter), inactive, chef)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperrors.CodeOf(err))

	_, err = m.ApplyAssign(batchAt(domain.StatusAAffecter), scan, chef)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperrors.CodeOf(err))
}

func TestApplyAssignClearsReturnMarker(t *testing.T) {
	m := NewMachine()

	item := batchAt(domain.StatusEnDifficulte)
	from := "gest-9"
	item.ReturnedFromID = &from
	item.ReturnedReason = "missing documents"

	res, err := m.ApplyAssign(item, gest, chef)
	require.NoError(t, err)
	assert.Nil(t, res.Item.ReturnedFromID)
	assert.Empty(t, res.Item.ReturnedReason)
}

func TestApplyReturn(t *testing.T) {
	m := NewMachine()

	item := batchAt(domain.StatusEnCours)
	item.OwnerID = &gest.ID

	res, err := m.ApplyReturn(item, gest, "cannot read scans")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnDifficulte, res.Item.Status)
	assert.Nil(t, res.Item.OwnerID)
	require.NotNil(t, res.Item.ReturnedFromID)
	assert.Equal(t, gest.ID, *res.Item.ReturnedFromID)
	assert.Equal(t, domain.ActionReturn, res.Entry.Action)
}

func TestApplyReturnRequiresReason(t *testing.T) {
	m := NewMachine()

	item := complaintAt(domain.StatusInProgress)
	item.OwnerID = &gest.ID

	_, err := m.ApplyReturn(item, gest, "   ")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperrors.CodeOf(err))
}

func TestApplyReturnRejectsNonOwner(t *testing.T) {
	m := NewMachine()

	other := "gest-7"
	item := batchAt(domain.StatusEnCours)
	item.OwnerID = &other

	_, err := m.ApplyReturn(item, gest, "not mine")
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.CodeOf(err))
}
