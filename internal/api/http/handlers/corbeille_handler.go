package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workflow-service/internal/auth"
	"github.com/spec-kit/workflow-service/internal/service"
	apperrors "github.com/spec-kit/workflow-service/pkg/util"
)

// CorbeilleHandler serves role-scoped queue views.
type CorbeilleHandler struct {
	corbeille *service.CorbeilleService
}

// NewCorbeilleHandler constructs handler.
func NewCorbeilleHandler(corbeilleService *service.CorbeilleService) *CorbeilleHandler {
	return &CorbeilleHandler{corbeille: corbeilleService}
}

// View GET /corbeille. The view is always scoped to the authenticated
// operator; there is no way to request someone else's queue.
func (h *CorbeilleHandler) View(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	partition, err := h.corbeille.View(c.Context(), *actor, time.Now().UTC())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": partition})
}
