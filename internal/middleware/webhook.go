package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"blood-donation/internal/service/account"
)

// VerifyWebhook rejects identity-provider deliveries whose signature does not
// match the raw body.
func VerifyWebhook(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := account.VerifyWebhook(secret,
			c.Get("Webhook-Id"),
			c.Get("Webhook-Timestamp"),
			c.Get("Webhook-Signature"),
			c.Body(),
			time.Now(),
		)
		if err != nil {
			return err
		}
		return c.Next()
	}
}
