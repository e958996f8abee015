package handler

import (
	"context"
	"pajak-web/internal/models"
	"pajak-web/internal/service"
	"pajak-web/internal/utils"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type exportService interface {
	ExportEfaktur(ctx context.Context, company string, period models.FiscalPeriod, format string) (*service.ExportFile, error)
	ExportEbupot(ctx context.Context, company string, category models.TaxCategory, period models.FiscalPeriod, format string) (*service.ExportFile, error)
}

type ExportHandler struct {
	exports exportService
}

func NewExportHandler(exports exportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

func (h *ExportHandler) ExportEfaktur(c *fiber.Ctx) error {
	company, period, err := exportParams(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	file, err := h.exports.ExportEfaktur(c.UserContext(), company, period, c.Query("format", service.ExportFormatCSV))
	if err != nil {
		return utils.ErrorResponse(c, statusFor(err), "Failed to export E-Faktur", err)
	}
	return c.Download(file.Path, file.Filename)
}

func (h *ExportHandler) ExportEbupot(c *fiber.Ctx) error {
	company, period, err := exportParams(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}
	category, err := models.ParseTaxCategory(c.Query("tax_category", string(models.TaxCategoryPPh23)))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid tax category", err)
	}

	file, err := h.exports.ExportEbupot(c.UserContext(), company, category, period, c.Query("format", service.ExportFormatCSV))
	if err != nil {
		return utils.ErrorResponse(c, statusFor(err), "Failed to export E-Bupot", err)
	}
	return c.Download(file.Path, file.Filename)
}

func exportParams(c *fiber.Ctx) (string, models.FiscalPeriod, error) {
	company := c.Query("company")
	if company == "" {
		return "", models.FiscalPeriod{}, fiber.NewError(fiber.StatusBadRequest, "company is required")
	}
	year, _ := strconv.Atoi(c.Query("year"))
	month, _ := strconv.Atoi(c.Query("month"))
	period, err := models.NewFiscalPeriod(year, month)
	if err != nil {
		return "", models.FiscalPeriod{}, err
	}
	return company, period, nil
}
