package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workflow-service/internal/api/dto"
	"github.com/spec-kit/workflow-service/internal/auth"
	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/service"
	apperrors "github.com/spec-kit/workflow-service/pkg/util"
)

// BulkHandler exposes bulk intake and bulk transition endpoints.
type BulkHandler struct {
	workItems *service.WorkItemService
}

// NewBulkHandler constructs handler.
func NewBulkHandler(workItems *service.WorkItemService) *BulkHandler {
	return &BulkHandler{workItems: workItems}
}

// Import POST /bulk/import.
func (h *BulkHandler) Import(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	var req dto.BulkImportRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	inputs := make([]service.CreateInput, 0, len(req.Items))
	for _, row := range req.Items {
		inputs = append(inputs, service.CreateInput{
			Kind:         domain.Kind(row.Kind),
			ClientID:     row.ClientID,
			Reference:    row.Reference,
			PriorityHint: domain.Priority(row.PriorityHint),
			ReadyForScan: row.ReadyForScan,
		})
	}
	result := h.workItems.BulkImport(c.Context(), inputs, *actor)
	return c.JSON(fiber.Map{"data": result})
}

// Transition POST /bulk/transition.
func (h *BulkHandler) Transition(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	var req dto.BulkTransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	result := h.workItems.BulkTransition(c.Context(), req.ItemIDs, domain.Status(req.Target), req.Comment, *actor)
	return c.JSON(fiber.Map{"data": result})
}
