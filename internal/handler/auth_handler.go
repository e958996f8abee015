package handler

import (
	"context"
	"pajak-web/internal/models"
	"pajak-web/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
}

type AuthHandler struct {
	authService authService
}

func NewAuthHandler(authService authService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if req.Username == "" || req.Password == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Username and password are required", nil)
	}

	resp, err := h.authService.Login(c.UserContext(), req)
	if err != nil {
		return utils.ErrorResponse(c, statusFor(err), err.Error(), nil)
	}

	return utils.SuccessResponse(c, "Login successful", resp)
}

// Logout is a no-op for bearer tokens; clients drop the token.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	return utils.SuccessResponse(c, "Logout successful", nil)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(int)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Not authenticated", nil)
	}

	user, err := h.authService.GetUserByID(c.UserContext(), userID)
	if err != nil {
		return utils.ErrorResponse(c, statusFor(err), "User not found", err)
	}

	return utils.SuccessResponse(c, "User retrieved successfully", user)
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	user, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		return utils.ErrorResponse(c, statusFor(err), err.Error(), nil)
	}

	return utils.CreatedResponse(c, "Registration successful", fiber.Map{
		"user": user,
	})
}
