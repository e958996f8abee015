package handler

import (
	"context"
	"pajak-web/internal/models"
	"pajak-web/internal/utils"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

type taxReportService interface {
	GetTaxReportingData(ctx context.Context, year, month int, taxCategory, company string) *models.TaxReportData
	GenerateTaxFiling(ctx context.Context, req models.GenerateFilingRequest, createdBy *int) models.GenerateFilingResult
}

type TaxReportHandler struct {
	reports taxReportService
}

func NewTaxReportHandler(reports taxReportService) *TaxReportHandler {
	return &TaxReportHandler{reports: reports}
}

// GetReport returns the period summary and contributing documents. Failures
// are carried in summary.error, so the status is always 200 once the query
// parameters parse.
func (h *TaxReportHandler) GetReport(c *fiber.Ctx) error {
	now := time.Now()
	year, err := strconv.Atoi(c.Query("year", strconv.Itoa(now.Year())))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid year", err)
	}
	month, err := strconv.Atoi(c.Query("month", strconv.Itoa(int(now.Month()))))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid month", err)
	}
	company := c.Query("company")
	if company == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Company is required", nil)
	}

	data := h.reports.GetTaxReportingData(c.UserContext(), year, month, c.Query("tax_category", string(models.TaxCategoryPPN)), company)
	return utils.SuccessResponse(c, "Tax report retrieved successfully", data)
}

func (h *TaxReportHandler) GenerateFiling(c *fiber.Ctx) error {
	var req models.GenerateFilingRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	var createdBy *int
	if userID, ok := c.Locals("user_id").(int); ok {
		createdBy = &userID
	}

	result := h.reports.GenerateTaxFiling(c.UserContext(), req, createdBy)
	switch result.Status {
	case models.GenerateStatusSuccess:
		return utils.CreatedResponse(c, "Tax filing generated", result)
	case models.GenerateStatusExists:
		return utils.SuccessResponse(c, "Tax filing already exists", result)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(utils.Response{
			Success: false,
			Message: result.Message,
			Data:    result,
		})
	}
}
