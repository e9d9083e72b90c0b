package service

import (
	"context"

	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/repository"
	apperrors "github.com/spec-kit/workflow-service/pkg/util"
)

// StationStats counts items waiting at one workflow station.
type StationStats struct {
	Status domain.Status `json:"status"`
	Count  int           `json:"count"`
}

// WorkflowStats is the per-station breakdown shown on supervision
// dashboards.
type WorkflowStats struct {
	Total    int            `json:"total"`
	Open     int            `json:"open"`
	Treated  int            `json:"treated"`
	Stations []StationStats `json:"stations"`
}

// StatsService aggregates workflow counters.
type StatsService struct {
	items repository.WorkItemRepository
}

// NewStatsService creates the service.
func NewStatsService(items repository.WorkItemRepository) *StatsService {
	return &StatsService{items: items}
}

// statStations fixes the dashboard row order. Unknown statuses in storage
// are still reported, appended after the known stations.
var statStations = []domain.Status{
	domain.StatusEnAttente,
	domain.StatusAScanner,
	domain.StatusScanEnCours,
	domain.StatusScanne,
	domain.StatusAAffecter,
	domain.StatusAssigne,
	domain.StatusEnCours,
	domain.StatusEnDifficulte,
	domain.StatusPartiel,
	domain.StatusTraite,
	domain.StatusPretVirement,
	domain.StatusVirementEnCours,
	domain.StatusVirementExecute,
	domain.StatusVirementRejete,
	domain.StatusCloture,
	domain.StatusOpen,
	domain.StatusInProgress,
	domain.StatusEscalated,
	domain.StatusPendingClientReply,
	domain.StatusResolved,
	domain.StatusClosed,
}

// Workflow returns item counts per station plus open/treated totals.
func (s *StatsService) Workflow(ctx context.Context) (*WorkflowStats, error) {
	counts, err := s.items.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	stats := &WorkflowStats{Stations: make([]StationStats, 0, len(counts))}
	seen := make(map[domain.Status]bool, len(counts))
	for _, status := range statStations {
		count, ok := counts[status]
		if !ok {
			continue
		}
		seen[status] = true
		stats.Stations = append(stats.Stations, StationStats{Status: status, Count: count})
	}
	for status, count := range counts {
		if !seen[status] {
			stats.Stations = append(stats.Stations, StationStats{Status: status, Count: count})
		}
	}

	for status, count := range counts {
		stats.Total += count
		if domain.IsTreated(status) {
			stats.Treated += count
		}
		if !domain.StopsSLAClock(status) {
			stats.Open += count
		}
	}
	return stats, nil
}
