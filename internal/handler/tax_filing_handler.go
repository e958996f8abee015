package handler

import (
	"context"
	"pajak-web/internal/models"
	"pajak-web/internal/service"
	"pajak-web/internal/utils"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type filingService interface {
	Get(ctx context.Context, name string) (*models.TaxFilingSummary, error)
	List(ctx context.Context, filter models.FilingFilter) ([]models.TaxFilingSummary, int, error)
	Update(ctx context.Context, name string, req models.FilingUpdateRequest) (*models.TaxFilingSummary, error)
	AddAttachment(ctx context.Context, name string, req models.FilingAttachmentRequest) (*models.TaxFilingSummary, error)
	Submit(ctx context.Context, name string) (*models.TaxFilingSummary, error)
	Cancel(ctx context.Context, name string) (*models.TaxFilingSummary, []service.Notice, error)
}

type settlementService interface {
	GeneratePaymentEntry(ctx context.Context, filingID string) models.SettlementResult
	GenerateAdjustmentEntry(ctx context.Context, filingID string, opts service.AdjustmentOptions) models.SettlementResult
}

type TaxFilingHandler struct {
	filings    filingService
	settlement settlementService
}

func NewTaxFilingHandler(filings filingService, settlement settlementService) *TaxFilingHandler {
	return &TaxFilingHandler{
		filings:    filings,
		settlement: settlement,
	}
}

func (h *TaxFilingHandler) List(c *fiber.Ctx) error {
	params := utils.GetPaginationParams(c)
	year, _ := strconv.Atoi(c.Query("year"))

	filter := models.FilingFilter{
		Company:     c.Query("company"),
		TaxCategory: c.Query("tax_category"),
		Year:        year,
		State:       c.Query("state"),
		Page:        params.Page,
		Limit:       params.Limit,
	}
	if filter.TaxCategory != "" {
		category, err := models.ParseTaxCategory(filter.TaxCategory)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid tax category", err)
		}
		filter.TaxCategory = string(category)
	}

	filings, total, err := h.filings.List(c.UserContext(), filter)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve tax filings", err)
	}

	pagination := utils.CalculatePagination(params.Page, params.Limit, int64(total))
	return utils.PaginatedResponseBuilder(c, "Tax filings retrieved successfully", filings, pagination)
}

func (h *TaxFilingHandler) Get(c *fiber.Ctx) error {
	filing, err := h.filings.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, statusFor(err), "Tax filing not found", err)
	}
	return utils.SuccessResponse(c, "Tax filing retrieved successfully", filing)
}

func (h *TaxFilingHandler) Update(c *fiber.Ctx) error {
	var req models.FilingUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	filing, err := h.filings.Update(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return utils.ErrorResponse(c, statusFor(err), "Failed to update tax filing", err)
	}
	return utils.SuccessResponse(c, "Tax filing updated successfully", filing)
}

func (h *TaxFilingHandler) AddAttachment(c *fiber.Ctx) error {
	var req models.FilingAttachmentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if req.Title == "" || req.FileURL == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Title and file URL are required", nil)
	}

	filing, err := h.filings.AddAttachment(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return utils.ErrorResponse(c, statusFor(err), "Failed to attach file", err)
	}
	return utils.SuccessResponse(c, "Attachment saved", filing)
}

func (h *TaxFilingHandler) Submit(c *fiber.Ctx) error {
	filing, err := h.filings.Submit(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, statusFor(err), "Failed to submit tax filing", err)
	}
	return utils.SuccessResponse(c, "Tax filing submitted", filing)
}

func (h *TaxFilingHandler) Cancel(c *fiber.Ctx) error {
	filing, notices, err := h.filings.Cancel(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, statusFor(err), "Failed to cancel tax filing", err)
	}
	return utils.SuccessResponse(c, "Tax filing cancelled", fiber.Map{
		"filing":  filing,
		"notices": notices,
	})
}

func (h *TaxFilingHandler) GeneratePayment(c *fiber.Ctx) error {
	result := h.settlement.GeneratePaymentEntry(c.UserContext(), c.Params("id"))
	return settlementResponse(c, "Payment entry created", result)
}

type adjustmentRequest struct {
	BaseRate *string `json:"base_rate"`
}

func (h *TaxFilingHandler) GenerateAdjustment(c *fiber.Ctx) error {
	var req adjustmentRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
		}
	}

	var opts service.AdjustmentOptions
	if req.BaseRate != nil && *req.BaseRate != "" {
		rate, err := decimal.NewFromString(*req.BaseRate)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid base rate", err)
		}
		opts.BaseRate = &rate
	}

	result := h.settlement.GenerateAdjustmentEntry(c.UserContext(), c.Params("id"), opts)
	return settlementResponse(c, "Adjustment entry created", result)
}

func settlementResponse(c *fiber.Ctx, message string, result models.SettlementResult) error {
	if !result.OK() {
		return c.Status(fiber.StatusBadRequest).JSON(utils.Response{
			Success: false,
			Message: result.Message,
			Data:    result,
		})
	}
	return utils.CreatedResponse(c, message, result)
}
