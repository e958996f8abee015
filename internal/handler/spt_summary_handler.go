package handler

import (
	"context"
	"pajak-web/internal/models"
	"pajak-web/internal/utils"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type sptSummaryService interface {
	Create(ctx context.Context, req models.SPTSummaryRequest) (*models.SPTSummary, error)
	Get(ctx context.Context, name string) (*models.SPTSummary, error)
	List(ctx context.Context, filter models.SPTSummaryFilter) ([]models.SPTSummary, error)
	Recalculate(ctx context.Context, name string) (*models.SPTSummary, error)
	Submit(ctx context.Context, name string) (*models.SPTSummary, error)
	Cancel(ctx context.Context, name string) (*models.SPTSummary, error)
}

type SPTSummaryHandler struct {
	summaries sptSummaryService
}

func NewSPTSummaryHandler(summaries sptSummaryService) *SPTSummaryHandler {
	return &SPTSummaryHandler{summaries: summaries}
}

func (h *SPTSummaryHandler) Create(c *fiber.Ctx) error {
	var req models.SPTSummaryRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	summary, err := h.summaries.Create(c.UserContext(), req)
	if err != nil {
		return utils.ErrorResponse(c, statusFor(err), "Failed to create SPT summary", err)
	}
	return utils.CreatedResponse(c, "SPT summary created", summary)
}

func (h *SPTSummaryHandler) List(c *fiber.Ctx) error {
	year, _ := strconv.Atoi(c.Query("year"))
	filter := models.SPTSummaryFilter{
		Company:  c.Query("company"),
		JenisSPT: c.Query("jenis_spt"),
		Year:     year,
	}
	if filter.JenisSPT != "" {
		category, err := models.ParseTaxCategory(filter.JenisSPT)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid tax category", err)
		}
		filter.JenisSPT = string(category)
	}

	summaries, err := h.summaries.List(c.UserContext(), filter)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve SPT summaries", err)
	}
	return utils.SuccessResponse(c, "SPT summaries retrieved successfully", summaries)
}

func (h *SPTSummaryHandler) Get(c *fiber.Ctx) error {
	summary, err := h.summaries.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, statusFor(err), "SPT summary not found", err)
	}
	return utils.SuccessResponse(c, "SPT summary retrieved successfully", summary)
}

func (h *SPTSummaryHandler) Recalculate(c *fiber.Ctx) error {
	summary, err := h.summaries.Recalculate(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, statusFor(err), "Failed to recalculate SPT summary", err)
	}
	return utils.SuccessResponse(c, "SPT summary recalculated", summary)
}

func (h *SPTSummaryHandler) Submit(c *fiber.Ctx) error {
	summary, err := h.summaries.Submit(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, statusFor(err), "Failed to submit SPT summary", err)
	}
	return utils.SuccessResponse(c, "SPT summary submitted", summary)
}

func (h *SPTSummaryHandler) Cancel(c *fiber.Ctx) error {
	summary, err := h.summaries.Cancel(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, statusFor(err), "Failed to cancel SPT summary", err)
	}
	return utils.SuccessResponse(c, "SPT summary cancelled", summary)
}
