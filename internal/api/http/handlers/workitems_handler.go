package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workflow-service/internal/api/dto"
	"github.com/spec-kit/workflow-service/internal/auth"
	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/repository"
	"github.com/spec-kit/workflow-service/internal/service"
	apperrors "github.com/spec-kit/workflow-service/pkg/util"
)

// WorkItemsHandler manages intake, listing and lifecycle endpoints.
type WorkItemsHandler struct {
	workItems   *service.WorkItemService
	assignments *service.AssignmentService
}

// NewWorkItemsHandler constructs handler.
func NewWorkItemsHandler(workItems *service.WorkItemService, assignments *service.AssignmentService) *WorkItemsHandler {
	return &WorkItemsHandler{workItems: workItems, assignments: assignments}
}

// Create POST /work-items.
func (h *WorkItemsHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	var req dto.CreateWorkItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	item, err := h.workItems.Create(c.Context(), service.CreateInput{
		Kind:         domain.Kind(req.Kind),
		ClientID:     req.ClientID,
		Reference:    req.Reference,
		PriorityHint: domain.Priority(req.PriorityHint),
		ReadyForScan: req.ReadyForScan,
	}, *actor)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": workItemSummary(item)})
}

// List GET /work-items.
func (h *WorkItemsHandler) List(c *fiber.Ctx) error {
	if _, ok := auth.ActorFromContext(c); !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	items, err := h.workItems.List(c.Context(), parseWorkItemQuery(c))
	if err != nil {
		return err
	}
	summaries := make([]dto.WorkItemSummary, 0, len(items))
	for i := range items {
		summaries = append(summaries, workItemSummary(&items[i]))
	}
	return c.JSON(fiber.Map{"data": summaries})
}

// Get GET /work-items/:id.
func (h *WorkItemsHandler) Get(c *fiber.Ctx) error {
	if _, ok := auth.ActorFromContext(c); !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	detail, err := h.workItems.Get(c.Context(), c.Params("id"), time.Now().UTC())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workItemDetail(detail)})
}

// Transition POST /work-items/:id/transition.
func (h *WorkItemsHandler) Transition(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	item, err := h.workItems.Transition(c.Context(), c.Params("id"), domain.Status(req.Target), req.Comment, *actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workItemSummary(item)})
}

// Escalate POST /work-items/:id/escalate.
func (h *WorkItemsHandler) Escalate(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	var req dto.EscalateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	item, err := h.assignments.Escalate(c.Context(), c.Params("id"), req.Reason, *actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workItemSummary(item)})
}

// Return POST /work-items/:id/return.
func (h *WorkItemsHandler) Return(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	var req dto.ReturnRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	item, err := h.assignments.ReturnToSupervisor(c.Context(), c.Params("id"), req.Reason, *actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workItemSummary(item)})
}

func parseWorkItemQuery(c *fiber.Ctx) repository.WorkItemFilter {
	filter := repository.WorkItemFilter{}
	if kind := c.Query("kind"); kind != "" {
		k := domain.Kind(kind)
		filter.Kind = &k
	}
	if owner := c.Query("owner_id"); owner != "" {
		filter.OwnerID = &owner
	}
	if client := c.Query("client_id"); client != "" {
		filter.ClientID = &client
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.Status(strings.TrimSpace(part)))
		}
	}
	if c.Query("returned") == "true" {
		filter.ReturnedOnly = true
	}
	return filter
}

func workItemSummary(item *domain.WorkItem) dto.WorkItemSummary {
	return dto.WorkItemSummary{
		ID:                   item.ID,
		Kind:                 item.Kind,
		Reference:            item.Reference,
		ClientID:             item.ClientID,
		ContractualDelayDays: item.ContractualDelayDays,
		Status:               item.Status,
		Priority:             item.Priority,
		OwnerID:              item.OwnerID,
		Version:              item.Version,
		CreatedAt:            item.CreatedAt,
		UpdatedAt:            item.UpdatedAt,
	}
}

func workItemDetail(detail *service.WorkItemDetail) dto.WorkItemDetailResponse {
	history := make([]dto.HistoryResponse, 0, len(detail.History))
	for _, entry := range detail.History {
		history = append(history, dto.HistoryResponse{
			ID:          entry.ID,
			ActorID:     entry.ActorID,
			Action:      entry.Action,
			FromStatus:  entry.FromStatus,
			ToStatus:    entry.ToStatus,
			Description: entry.Description,
			CreatedAt:   entry.CreatedAt,
		})
	}
	return dto.WorkItemDetailResponse{
		WorkItemSummary: workItemSummary(&detail.Item),
		ReturnedFromID:  detail.Item.ReturnedFromID,
		ReturnedReason:  detail.Item.ReturnedReason,
		Sla:             detail.Sla,
		History:         history,
	}
}
