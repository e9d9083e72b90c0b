package corbeille

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/workflow-service/internal/domain"
)

var now = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func batchItem(id string, status domain.Status, owner *string) domain.WorkItem {
	return domain.WorkItem{
		ID:                   id,
		Kind:                 domain.KindBatch,
		Status:               status,
		OwnerID:              owner,
		ContractualDelayDays: 30,
		CreatedAt:            now.Add(-24 * time.Hour),
		UpdatedAt:            now.Add(-time.Hour),
	}
}

func ptr(s string) *string { return &s }

func TestPartitionSupervisoryBuckets(t *testing.T) {
	items := []domain.WorkItem{}
	for i := 0; i < 4; i++ {
		items = append(items, batchItem(fmt.Sprintf("u-%d", i), domain.StatusAAffecter, nil))
	}
	for i := 0; i < 3; i++ {
		items = append(items, batchItem(fmt.Sprintf("p-%d", i), domain.StatusEnCours, ptr("gest-1")))
	}
	for i := 0; i < 3; i++ {
		items = append(items, batchItem(fmt.Sprintf("t-%d", i), domain.StatusTraite, ptr("gest-1")))
	}

	partition := PartitionItems(items, domain.RoleChefEquipe, "chef-1", now, Options{})

	assert.Len(t, partition.Unassigned, 4)
	assert.Len(t, partition.InProgress, 3)
	assert.Len(t, partition.Treated, 3)
	assert.Len(t, partition.Returned, 0)
	total := partition.Stats.Unassigned + partition.Stats.InProgress + partition.Stats.Treated + partition.Stats.Returned
	assert.Equal(t, 10, total)
}

func TestPartitionBucketsAreDisjointAndExhaustive(t *testing.T) {
	returned := batchItem("r-1", domain.StatusEnDifficulte, nil)
	returned.ReturnedFromID = ptr("gest-1")

	items := []domain.WorkItem{
		batchItem("u-1", domain.StatusScanne, nil),
		batchItem("p-1", domain.StatusAssigne, ptr("gest-1")),
		batchItem("t-1", domain.StatusCloture, ptr("gest-1")),
		returned,
		// Not visible to a chef: still at the scan station.
		batchItem("x-1", domain.StatusScanEnCours, nil),
	}

	partition := PartitionItems(items, domain.RoleChefEquipe, "chef-1", now, Options{})

	seen := map[string]int{}
	for _, bucketItems := range [][]Item{partition.Unassigned, partition.InProgress, partition.Treated, partition.Returned} {
		for _, item := range bucketItems {
			seen[item.ID]++
		}
	}
	for id, count := range seen {
		assert.Equal(t, 1, count, "item %s appears in %d buckets", id, count)
	}
	assert.Len(t, seen, 4)
	assert.NotContains(t, seen, "x-1")
}

func TestPartitionContributorVisibility(t *testing.T) {
	returned := batchItem("r-1", domain.StatusEnDifficulte, nil)
	returned.ReturnedFromID = ptr("gest-1")

	items := []domain.WorkItem{
		batchItem("mine-1", domain.StatusEnCours, ptr("gest-1")),
		batchItem("mine-2", domain.StatusTraite, ptr("gest-1")),
		returned,
		batchItem("other-1", domain.StatusEnCours, ptr("gest-2")),
		batchItem("pool-1", domain.StatusAAffecter, nil),
	}

	partition := PartitionItems(items, domain.RoleGestionnaire, "gest-1", now, Options{})

	assert.Len(t, partition.Unassigned, 0, "contributors never see the open pool")
	assert.Len(t, partition.InProgress, 1)
	assert.Len(t, partition.Treated, 1)
	assert.Len(t, partition.Returned, 1)
	assert.Equal(t, "mine-1", partition.InProgress[0].ID)
}

func TestPartitionTreatedWindow(t *testing.T) {
	recent := batchItem("t-recent", domain.StatusTraite, ptr("gest-1"))
	stale := batchItem("t-stale", domain.StatusTraite, ptr("gest-1"))
	stale.UpdatedAt = now.Add(-30 * 24 * time.Hour)

	partition := PartitionItems([]domain.WorkItem{recent, stale}, domain.RoleChefEquipe, "chef-1", now, Options{})

	require.Len(t, partition.Treated, 1)
	assert.Equal(t, "t-recent", partition.Treated[0].ID)
}

func TestPartitionStatsRiskCounts(t *testing.T) {
	overdue := batchItem("o-1", domain.StatusEnCours, ptr("gest-1"))
	overdue.CreatedAt = now.Add(-60 * 24 * time.Hour)

	critical := batchItem("c-1", domain.StatusEnCours, ptr("gest-1"))
	critical.CreatedAt = now.Add(-28 * 24 * time.Hour)

	priority := domain.WorkItem{
		ID:                   "pc-1",
		Kind:                 domain.KindComplaint,
		Status:               domain.StatusInProgress,
		OwnerID:              ptr("gest-1"),
		Priority:             domain.PriorityCritical,
		ContractualDelayDays: 30,
		CreatedAt:            now.Add(-24 * time.Hour),
		UpdatedAt:            now,
	}

	partition := PartitionItems([]domain.WorkItem{overdue, critical, priority}, domain.RoleChefEquipe, "chef-1", now, Options{})

	assert.Equal(t, 1, partition.Stats.EnRetard)
	assert.Equal(t, 2, partition.Stats.Critiques)
	assert.Equal(t, 3, partition.Stats.InProgress)
}

func TestPartitionDoesNotMutateInput(t *testing.T) {
	items := []domain.WorkItem{batchItem("u-1", domain.StatusAAffecter, nil)}
	before := items[0]

	_ = PartitionItems(items, domain.RoleChefEquipe, "chef-1", now, Options{})

	assert.Equal(t, before, items[0])
}
