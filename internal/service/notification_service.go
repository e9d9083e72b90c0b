package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/workflow-service/internal/events"
)

// NotificationService listens to engine events and fans them out to
// delivery channels. Channels are stubbed as structured log lines until
// the mail and webhook integrations land.
type NotificationService struct {
	logger *zap.Logger
}

// NewNotificationService creates the service and registers its listeners.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	s := &NotificationService{logger: logger}
	dispatcher.Subscribe(events.EventItemAssigned, s.onAssigned)
	dispatcher.Subscribe(events.EventItemReturned, s.onReturned)
	dispatcher.Subscribe(events.EventItemEscalated, s.onEscalated)
	dispatcher.Subscribe(events.EventSlaAtRisk, s.onSlaAtRisk)
	dispatcher.Subscribe(events.EventSlaOverdue, s.onSlaOverdue)
	return s
}

func (s *NotificationService) onAssigned(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AssignedPayload)
	if !ok {
		return nil
	}
	s.logger.Info("notify: item assigned",
		zap.String("item_id", event.ItemID),
		zap.String("assignee_id", payload.AssigneeID),
		zap.String("channel", "email"))
	return nil
}

func (s *NotificationService) onReturned(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ReturnedPayload)
	if !ok {
		return nil
	}
	s.logger.Info("notify: item returned to supervision",
		zap.String("item_id", event.ItemID),
		zap.String("reason", payload.Reason),
		zap.String("channel", "email"))
	return nil
}

func (s *NotificationService) onEscalated(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.EscalatedPayload)
	if !ok {
		return nil
	}
	s.logger.Warn("notify: item escalated",
		zap.String("item_id", event.ItemID),
		zap.String("reason", payload.Reason),
		zap.String("channel", "webhook"))
	return nil
}

func (s *NotificationService) onSlaAtRisk(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SlaPayload)
	if !ok {
		return nil
	}
	s.logger.Warn("notify: item approaching deadline",
		zap.String("item_id", event.ItemID),
		zap.String("reference", payload.Reference),
		zap.Float64("remaining_hours", payload.RemainingHours),
		zap.String("channel", "email"))
	return nil
}

func (s *NotificationService) onSlaOverdue(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SlaPayload)
	if !ok {
		return nil
	}
	s.logger.Error("notify: item past contractual deadline",
		zap.String("item_id", event.ItemID),
		zap.String("reference", payload.Reference),
		zap.String("channel", "webhook"))
	return nil
}
