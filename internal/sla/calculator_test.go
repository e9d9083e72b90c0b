package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/workflow-service/internal/domain"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func TestComputeAtRisk(t *testing.T) {
	createdAt := mustTime(t, "2024-01-01T00:00:00Z")
	now := mustTime(t, "2024-01-06T12:00:00Z")

	ann := Compute(createdAt, 7, domain.StatusOpen, now)

	assert.InDelta(t, 78.6, ann.PercentageUsed, 0.1)
	assert.Equal(t, TierAtRisk, ann.RiskTier)
	assert.Greater(t, ann.RemainingHours, 0.0)
}

func TestComputeOverdue(t *testing.T) {
	createdAt := mustTime(t, "2024-01-01T00:00:00Z")
	now := mustTime(t, "2024-01-08T01:00:00Z")

	ann := Compute(createdAt, 7, domain.StatusOpen, now)

	assert.Equal(t, 0.0, ann.RemainingHours)
	assert.Equal(t, TierOverdue, ann.RiskTier)
	assert.Equal(t, 100.0, ann.PercentageUsed)
}

func TestComputeTierPrecedence(t *testing.T) {
	createdAt := mustTime(t, "2024-01-01T00:00:00Z")

	cases := []struct {
		name string
		now  string
		want RiskTier
	}{
		{"fresh", "2024-01-01T06:00:00Z", TierOnTime},
		{"just under at-risk", "2024-01-05T20:00:00Z", TierOnTime},
		{"at-risk boundary", "2024-01-05T21:36:00Z", TierAtRisk},
		{"critical boundary", "2024-01-07T07:12:00Z", TierCritical},
		{"deadline exact", "2024-01-08T00:00:00Z", TierOverdue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ann := Compute(createdAt, 7, domain.StatusInProgress, mustTime(t, tc.now))
			assert.Equal(t, tc.want, ann.RiskTier)
		})
	}
}

func TestComputeTerminalPinsOnTime(t *testing.T) {
	createdAt := mustTime(t, "2024-01-01T00:00:00Z")
	farFuture := mustTime(t, "2030-01-01T00:00:00Z")

	for _, status := range []domain.Status{
		domain.StatusResolved,
		domain.StatusClosed,
		domain.StatusTraite,
		domain.StatusVirementExecute,
		domain.StatusCloture,
	} {
		ann := Compute(createdAt, 7, status, farFuture)
		assert.Equal(t, TierOnTime, ann.RiskTier, "status %s", status)
		assert.Equal(t, 0.0, ann.RemainingHours)
		assert.Equal(t, 100.0, ann.PercentageUsed)
	}
}

func TestComputeRejectedPaymentKeepsBleeding(t *testing.T) {
	createdAt := mustTime(t, "2024-01-01T00:00:00Z")
	past := mustTime(t, "2024-02-01T00:00:00Z")

	ann := Compute(createdAt, 7, domain.StatusVirementRejete, past)
	assert.Equal(t, TierOverdue, ann.RiskTier)
}

func TestTierMonotonicOverTime(t *testing.T) {
	createdAt := mustTime(t, "2024-01-01T00:00:00Z")
	previous := -1
	for hour := 0; hour <= 24*10; hour++ {
		now := createdAt.Add(time.Duration(hour) * time.Hour)
		ann := Compute(createdAt, 7, domain.StatusEnCours, now)
		severity := ann.RiskTier.Severity()
		require.GreaterOrEqual(t, severity, previous, "tier regressed at hour %d", hour)
		previous = severity
	}
}

func TestComputeBeforeCreation(t *testing.T) {
	createdAt := mustTime(t, "2024-01-05T00:00:00Z")
	now := mustTime(t, "2024-01-04T00:00:00Z")

	ann := Compute(createdAt, 7, domain.StatusOpen, now)
	assert.Equal(t, 0.0, ann.PercentageUsed)
	assert.Equal(t, TierOnTime, ann.RiskTier)
}

func TestCacheReturnsComputedAnnotation(t *testing.T) {
	createdAt := mustTime(t, "2024-01-01T00:00:00Z")
	now := mustTime(t, "2024-01-02T00:00:00Z")
	item := &domain.WorkItem{
		ID:                   "wi-1",
		Kind:                 domain.KindComplaint,
		Status:               domain.StatusOpen,
		ContractualDelayDays: 7,
		CreatedAt:            createdAt,
		Version:              1,
	}

	cache := NewCache(30 * time.Second)
	first := cache.Annotate(item, now)
	second := cache.Annotate(item, now.Add(time.Second))
	assert.Equal(t, first, second)

	// A version bump must bypass the cached value.
	item.Version = 2
	item.Status = domain.StatusResolved
	third := cache.Annotate(item, now)
	assert.Equal(t, TierOnTime, third.RiskTier)
}
