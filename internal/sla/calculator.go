package sla

import (
	"time"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// RiskTier classifies remaining SLA time.
type RiskTier string

const (
	TierOnTime   RiskTier = "ON_TIME"
	TierAtRisk   RiskTier = "AT_RISK"
	TierCritical RiskTier = "CRITICAL"
	TierOverdue  RiskTier = "OVERDUE"
)

// Severity orders tiers from least to most severe.
func (t RiskTier) Severity() int {
	switch t {
	case TierAtRisk:
		return 1
	case TierCritical:
		return 2
	case TierOverdue:
		return 3
	default:
		return 0
	}
}

// Annotation is derived SLA state. It is recomputed on every read and never
// persisted; a stored annotation would go stale within the hour.
type Annotation struct {
	Deadline       time.Time `json:"deadline"`
	RemainingHours float64   `json:"remaining_hours"`
	PercentageUsed float64   `json:"percentage_used"`
	RiskTier       RiskTier  `json:"risk_tier"`
}

const (
	atRiskThreshold   = 70.0
	criticalThreshold = 90.0
)

// Compute derives the SLA annotation for a work item snapshot. Items whose
// status settles the SLA clock are pinned to ON_TIME regardless of elapsed
// time: a resolved item does not keep bleeding risk.
func Compute(createdAt time.Time, contractualDelayDays int, status domain.Status, now time.Time) Annotation {
	deadline := createdAt.Add(time.Duration(contractualDelayDays) * 24 * time.Hour)

	if domain.StopsSLAClock(status) {
		return Annotation{
			Deadline:       deadline,
			RemainingHours: 0,
			PercentageUsed: 100,
			RiskTier:       TierOnTime,
		}
	}

	total := deadline.Sub(createdAt)
	elapsed := now.Sub(createdAt)
	if elapsed < 0 {
		elapsed = 0
	}

	pct := 100.0
	if total > 0 {
		pct = float64(elapsed) / float64(total) * 100
		if pct > 100 {
			pct = 100
		}
	}

	remaining := deadline.Sub(now).Hours()
	if remaining < 0 {
		remaining = 0
	}

	tier := TierOnTime
	switch {
	case !now.Before(deadline):
		tier = TierOverdue
	case pct >= criticalThreshold:
		tier = TierCritical
	case pct >= atRiskThreshold:
		tier = TierAtRisk
	}

	return Annotation{
		Deadline:       deadline,
		RemainingHours: remaining,
		PercentageUsed: pct,
		RiskTier:       tier,
	}
}

// ComputeFor is a convenience over Compute for a loaded item.
func ComputeFor(item *domain.WorkItem, now time.Time) Annotation {
	return Compute(item.CreatedAt, item.ContractualDelayDays, item.Status, now)
}
