package handler

import (
	"context"
	"pajak-web/internal/models"
	"pajak-web/internal/utils"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type penyelesaianService interface {
	Create(ctx context.Context, req models.PenyelesaianRequest) (*models.PenyelesaianPajak, error)
	Update(ctx context.Context, name string, req models.PenyelesaianRequest) (*models.PenyelesaianPajak, error)
	Get(ctx context.Context, name string) (*models.PenyelesaianPajak, error)
	List(ctx context.Context, filter models.PenyelesaianFilter) ([]models.PenyelesaianPajak, error)
	Submit(ctx context.Context, name string) (*models.PenyelesaianPajak, error)
	Complete(ctx context.Context, name, ntpn string) (*models.PenyelesaianPajak, error)
	Cancel(ctx context.Context, name string) (*models.PenyelesaianPajak, error)
}

// PenyelesaianHandler serves tax settlements (Penyelesaian Pajak).
type PenyelesaianHandler struct {
	records penyelesaianService
}

func NewPenyelesaianHandler(records penyelesaianService) *PenyelesaianHandler {
	return &PenyelesaianHandler{records: records}
}

func (h *PenyelesaianHandler) Create(c *fiber.Ctx) error {
	var req models.PenyelesaianRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	record, err := h.records.Create(c.UserContext(), req)
	if err != nil {
		return utils.ErrorResponse(c, statusFor(err), "Failed to create tax settlement", err)
	}
	return utils.CreatedResponse(c, "Tax settlement created", record)
}

func (h *PenyelesaianHandler) Update(c *fiber.Ctx) error {
	var req models.PenyelesaianRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	record, err := h.records.Update(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return utils.ErrorResponse(c, statusFor(err), "Failed to update tax settlement", err)
	}
	return utils.SuccessResponse(c, "Tax settlement updated successfully", record)
}

func (h *PenyelesaianHandler) List(c *fiber.Ctx) error {
	year, _ := strconv.Atoi(c.Query("year"))
	records, err := h.records.List(c.UserContext(), models.PenyelesaianFilter{
		Company: c.Query("company"),
		Status:  c.Query("status"),
		Year:    year,
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve tax settlements", err)
	}
	return utils.SuccessResponse(c, "Tax settlements retrieved successfully", records)
}

func (h *PenyelesaianHandler) Get(c *fiber.Ctx) error {
	record, err := h.records.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, statusFor(err), "Tax settlement not found", err)
	}
	return utils.SuccessResponse(c, "Tax settlement retrieved successfully", record)
}

func (h *PenyelesaianHandler) Submit(c *fiber.Ctx) error {
	record, err := h.records.Submit(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, statusFor(err), "Failed to submit tax settlement", err)
	}
	return utils.SuccessResponse(c, "Tax settlement submitted", record)
}

type completeRequest struct {
	NTPN string `json:"ntpn"`
}

func (h *PenyelesaianHandler) Complete(c *fiber.Ctx) error {
	var req completeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if req.NTPN == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "NTPN is required", nil)
	}

	record, err := h.records.Complete(c.UserContext(), c.Params("id"), req.NTPN)
	if err != nil {
		return utils.ErrorResponse(c, statusFor(err), "Failed to complete tax settlement", err)
	}
	return utils.SuccessResponse(c, "Tax settlement paid", record)
}

func (h *PenyelesaianHandler) Cancel(c *fiber.Ctx) error {
	record, err := h.records.Cancel(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, statusFor(err), "Failed to cancel tax settlement", err)
	}
	return utils.SuccessResponse(c, "Tax settlement cancelled", record)
}
