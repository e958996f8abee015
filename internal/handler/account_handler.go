package handler

import (
	"context"
	"errors"
	"fmt"
	"pajak-web/internal/models"
	"pajak-web/internal/utils"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

type accountStore interface {
	GetAccount(ctx context.Context, name string) (*models.Account, error)
	ListAccounts(ctx context.Context, company string, accountTypes []string) ([]models.Account, error)
	ListBindings(ctx context.Context, company string) ([]models.AccountBinding, error)
	SaveBinding(ctx context.Context, binding *models.AccountBinding) error
	DeleteBinding(ctx context.Context, company string, role models.TaxRole) error
}

type accountResolver interface {
	Resolve(ctx context.Context, company string, role models.TaxRole) (string, bool)
	Invalidate(ctx context.Context, company string, role models.TaxRole)
}

// AccountHandler exposes ledger accounts and the per-company tax role
// bindings. Every binding change drops the cached resolution.
type AccountHandler struct {
	accounts accountStore
	resolver accountResolver
}

func NewAccountHandler(accounts accountStore, resolver accountResolver) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		resolver: resolver,
	}
}

func (h *AccountHandler) GetAccounts(c *fiber.Ctx) error {
	company := c.Query("company")
	if company == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Company is required", nil)
	}

	var types []string
	if raw := c.Query("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, t)
			}
		}
	}

	accounts, err := h.accounts.ListAccounts(c.UserContext(), company, types)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve accounts", err)
	}
	return utils.SuccessResponse(c, "Accounts retrieved successfully", accounts)
}

func (h *AccountHandler) GetBindings(c *fiber.Ctx) error {
	company := c.Query("company")
	if company == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Company is required", nil)
	}

	bindings, err := h.accounts.ListBindings(c.UserContext(), company)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve account bindings", err)
	}
	return utils.SuccessResponse(c, "Account bindings retrieved successfully", bindings)
}

func (h *AccountHandler) SaveBinding(c *fiber.Ctx) error {
	var req models.AccountBindingRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if req.Company == "" || req.TaxRole == "" || req.Account == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Company, tax role and account are required", nil)
	}

	role, err := models.ParseTaxRole(req.TaxRole)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid tax role", err)
	}

	ctx := c.UserContext()
	account, err := h.accounts.GetAccount(ctx, req.Account)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Account does not exist", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load account", err)
	}
	if account.Company != req.Company {
		return utils.ErrorResponse(c, fiber.StatusBadRequest,
			fmt.Sprintf("Account %s does not belong to company %s", account.Name, req.Company), nil)
	}

	binding := &models.AccountBinding{
		Company:   req.Company,
		TaxRole:   role,
		Account:   account.Name,
		UpdatedAt: time.Now(),
	}
	if err := h.accounts.SaveBinding(ctx, binding); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save account binding", err)
	}
	h.resolver.Invalidate(ctx, req.Company, role)

	return utils.SuccessResponse(c, "Account binding saved", binding)
}

func (h *AccountHandler) DeleteBinding(c *fiber.Ctx) error {
	company := c.Query("company")
	role, err := models.ParseTaxRole(c.Query("tax_role"))
	if company == "" || err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Company and a valid tax role are required", err)
	}

	ctx := c.UserContext()
	if err := h.accounts.DeleteBinding(ctx, company, role); err != nil {
		return utils.ErrorResponse(c, statusFor(err), "Failed to delete account binding", err)
	}
	h.resolver.Invalidate(ctx, company, role)

	return utils.SuccessResponse(c, "Account binding deleted", nil)
}

// Resolve reports which account the resolver currently picks for a role.
func (h *AccountHandler) Resolve(c *fiber.Ctx) error {
	company := c.Query("company")
	role, err := models.ParseTaxRole(c.Query("tax_role"))
	if company == "" || err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Company and a valid tax role are required", err)
	}

	account, ok := h.resolver.Resolve(c.UserContext(), company, role)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusNotFound,
			fmt.Sprintf("No %s account found for company %s", role, company), nil)
	}
	return utils.SuccessResponse(c, "Account resolved", fiber.Map{
		"company":  company,
		"tax_role": role,
		"account":  account,
	})
}
