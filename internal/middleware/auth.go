package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"blood-donation/internal/domain"
)

const AccountContextKey = "account"

// Authenticator resolves a bearer token to an active account.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Account, error)
}

func AuthRequired(authService Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return Unauthorized("Missing authorization header")
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return Unauthorized("Invalid authorization header format")
		}

		account, err := authService.Authenticate(c.UserContext(), token)
		if err != nil {
			return err
		}

		c.Locals(AccountContextKey, account)
		return c.Next()
	}
}

func GetCurrentAccount(c *fiber.Ctx) *domain.Account {
	account, ok := c.Locals(AccountContextKey).(*domain.Account)
	if !ok {
		return nil
	}
	return account
}

func GetCurrentAccountID(c *fiber.Ctx) uuid.UUID {
	if account := GetCurrentAccount(c); account != nil {
		return account.ID
	}
	return uuid.Nil
}
