package handler

import (
	"errors"
	"pajak-web/internal/models"
	"pajak-web/internal/service"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps a service error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrFilingExists),
		errors.Is(err, service.ErrPaymentExists),
		errors.Is(err, service.ErrAdjustmentExists),
		errors.Is(err, service.ErrSPTSummaryExists),
		errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrEmailTaken):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUserInactive):
		return fiber.StatusUnauthorized
	case errors.Is(err, service.ErrFilingNotFound),
		errors.Is(err, service.ErrSPTSummaryNotFound),
		errors.Is(err, service.ErrPenyelesaianNotFound):
		return fiber.StatusNotFound
	case service.IsValidationError(err):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}
