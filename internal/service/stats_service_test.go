package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/repository"
)

func TestWorkflowStatsPerStation(t *testing.T) {
	items := repository.NewMemoryWorkItemRepository()
	seed := []domain.Status{
		domain.StatusEnAttente,
		domain.StatusAScanner,
		domain.StatusAScanner,
		domain.StatusEnCours,
		domain.StatusTraite,
		domain.StatusOpen,
		domain.StatusResolved,
	}
	for i, status := range seed {
		kind := domain.KindBatch
		if status == domain.StatusOpen || status == domain.StatusResolved {
			kind = domain.KindComplaint
		}
		item := domain.WorkItem{
			Kind:                 kind,
			Reference:            "REF-" + string(rune('a'+i)),
			ClientID:             "client-1",
			ContractualDelayDays: 7,
			Status:               status,
		}
		require.NoError(t, items.Create(context.Background(), &item))
	}

	stats, err := NewStatsService(items).Workflow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 7, stats.Total)
	assert.Equal(t, 2, stats.Treated)
	assert.Equal(t, 5, stats.Open)

	counts := map[domain.Status]int{}
	for _, station := range stats.Stations {
		counts[station.Status] = station.Count
	}
	assert.Equal(t, 2, counts[domain.StatusAScanner])
	assert.Equal(t, 1, counts[domain.StatusResolved])

	// Station rows follow the workflow order, batch path before complaints.
	require.NotEmpty(t, stats.Stations)
	assert.Equal(t, domain.StatusEnAttente, stats.Stations[0].Status)
}
