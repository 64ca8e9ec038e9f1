package handler

import (
	"github.com/gofiber/fiber/v2"

	accountsvc "blood-donation/internal/service/account"
)

type WebhookHandler struct {
	accountService accountsvc.Service
}

func NewWebhookHandler(accountService accountsvc.Service) *WebhookHandler {
	return &WebhookHandler{accountService: accountService}
}

// Identity consumes identity-provider user events. The signature is checked by
// middleware.VerifyWebhook before this runs.
func (h *WebhookHandler) Identity(c *fiber.Ctx) error {
	event, err := accountsvc.ParseWebhook(c.Body())
	if err != nil {
		return err
	}

	if err := h.accountService.HandleEvent(c.UserContext(), event); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true, "type": event.Type})
}
