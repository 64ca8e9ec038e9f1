package handler

import (
	"github.com/gofiber/fiber/v2"

	"blood-donation/internal/domain"
	"blood-donation/internal/service/account"
)

type AccountHandler struct {
	accountService account.Service
}

func NewAccountHandler(accountService account.Service) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

func (h *AccountHandler) Me(c *fiber.Ctx) error {
	acct, err := currentAccount(c)
	if err != nil {
		return err
	}

	profile, err := h.accountService.Me(c.UserContext(), acct.ID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(profile)
}

func (h *AccountHandler) UpdateMe(c *fiber.Ctx) error {
	acct, err := currentAccount(c)
	if err != nil {
		return err
	}

	var input domain.UpdateAccountInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	updated, err := h.accountService.UpdateMe(c.UserContext(), acct.ID, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(updated)
}

func (h *AccountHandler) UpdateCustomerProfile(c *fiber.Ctx) error {
	acct, err := currentAccount(c)
	if err != nil {
		return err
	}

	var input domain.UpdateCustomerInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	customer, err := h.accountService.UpdateCustomerProfile(c.UserContext(), acct.ID, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(customer)
}

func (h *AccountHandler) List(c *fiber.Ctx) error {
	result, err := h.accountService.List(c.UserContext(), queryPtr[domain.AccountRole](c, "role"), getPaginationParams(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *AccountHandler) AssignRole(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var input domain.AssignRoleInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	updated, err := h.accountService.AssignRole(c.UserContext(), id, input.Role)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(updated)
}
