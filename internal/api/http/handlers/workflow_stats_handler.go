package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workflow-service/internal/auth"
	"github.com/spec-kit/workflow-service/internal/service"
	apperrors "github.com/spec-kit/workflow-service/pkg/util"
)

// WorkflowStatsHandler serves supervision dashboard counters.
type WorkflowStatsHandler struct {
	stats *service.StatsService
}

// NewWorkflowStatsHandler constructs handler.
func NewWorkflowStatsHandler(stats *service.StatsService) *WorkflowStatsHandler {
	return &WorkflowStatsHandler{stats: stats}
}

// Workflow GET /workflow/stats.
func (h *WorkflowStatsHandler) Workflow(c *fiber.Ctx) error {
	if _, ok := auth.ActorFromContext(c); !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	stats, err := h.stats.Workflow(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}
