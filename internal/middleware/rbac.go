package middleware

import (
	"github.com/gofiber/fiber/v2"

	"blood-donation/internal/domain"
)

// RequireRole admits accounts holding any of roles. Admins pass staff checks.
func RequireRole(roles ...domain.AccountRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		account := GetCurrentAccount(c)
		if account == nil {
			return Unauthorized("Account not authenticated")
		}

		if !account.HasRole(roles...) {
			return Forbidden("Insufficient permissions for this operation")
		}

		return c.Next()
	}
}
