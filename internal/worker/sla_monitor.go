package worker

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/workflow-service/internal/events"
	"github.com/spec-kit/workflow-service/internal/repository"
	"github.com/spec-kit/workflow-service/internal/sla"
)

// SLAMonitor periodically sweeps open work items and emits risk events for
// anything past the warning thresholds. Deadlines are never enforced here;
// the sweep only surfaces them.
type SLAMonitor struct {
	items      repository.WorkItemRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	interval   time.Duration
	jitter     time.Duration

	// lastTier remembers the worst tier already reported per item version so
	// a long-running sweep does not spam the same warning every pass. Keyed
	// like the sla.Cache: a status change bumps the version and resets dedup.
	lastTier map[string]sla.RiskTier
}

// NewSLAMonitor builds a monitor. Interval defaults to 15 minutes; jitter
// spreads sweeps across replicas so they do not hammer the database in sync.
func NewSLAMonitor(items repository.WorkItemRepository, dispatcher events.Dispatcher, logger *zap.Logger, interval, jitter time.Duration) *SLAMonitor {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if jitter < 0 {
		jitter = 0
	}
	return &SLAMonitor{
		items:      items,
		dispatcher: dispatcher,
		logger:     logger,
		interval:   interval,
		jitter:     jitter,
		lastTier:   map[string]sla.RiskTier{},
	}
}

// Run blocks until the context is cancelled, sweeping on each tick.
func (m *SLAMonitor) Run(ctx context.Context) {
	m.logger.Info("sla monitor started",
		zap.Duration("interval", m.interval),
		zap.Duration("jitter", m.jitter))

	for {
		wait := m.interval
		if m.jitter > 0 {
			wait += time.Duration(rand.Int63n(int64(m.jitter)))
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			m.logger.Info("sla monitor stopped")
			return
		case <-timer.C:
		}

		if err := m.Sweep(ctx, time.Now().UTC()); err != nil {
			m.logger.Error("sla sweep failed", zap.Error(err))
		}
	}
}

// Sweep evaluates every open item once and publishes at-risk and overdue
// events for newly degraded items. It is exposed for on-demand sweeps.
func (m *SLAMonitor) Sweep(ctx context.Context, now time.Time) error {
	open, err := m.items.ListOpen(ctx)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(open))
	atRisk, overdue := 0, 0
	for i := range open {
		item := &open[i]
		key := fmt.Sprintf("%s#%d", item.ID, item.Version)
		seen[key] = struct{}{}
		ann := sla.ComputeFor(item, now)

		var eventType events.EventType
		switch ann.RiskTier {
		case sla.TierOverdue:
			eventType = events.EventSlaOverdue
			overdue++
		case sla.TierCritical, sla.TierAtRisk:
			eventType = events.EventSlaAtRisk
			atRisk++
		default:
			delete(m.lastTier, key)
			continue
		}

		if m.lastTier[key].Severity() >= ann.RiskTier.Severity() {
			continue
		}
		m.lastTier[key] = ann.RiskTier

		event := events.Event{
			ID:        uuid.NewString(),
			Type:      eventType,
			ItemID:    item.ID,
			Timestamp: now,
			Payload: events.SlaPayload{
				Reference:      item.Reference,
				RiskTier:       ann.RiskTier,
				RemainingHours: ann.RemainingHours,
			},
		}
		if err := m.dispatcher.Publish(ctx, event); err != nil {
			m.logger.Warn("sla event publish failed",
				zap.String("item_id", item.ID),
				zap.Error(err))
		}
	}

	// Items that settled or changed since the last pass no longer need
	// dedup state under their old key.
	for key := range m.lastTier {
		if _, stillOpen := seen[key]; !stillOpen {
			delete(m.lastTier, key)
		}
	}

	m.logger.Info("sla sweep done",
		zap.Int("open", len(open)),
		zap.Int("at_risk", atRisk),
		zap.Int("overdue", overdue))
	return nil
}
