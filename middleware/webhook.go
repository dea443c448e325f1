package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// WebhookKey accepts callbacks carrying secret in X-Webhook-Key. An empty
// secret disables the endpoint.
func WebhookKey(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		got := c.Get("X-Webhook-Key")
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid webhook key!", nil)
		}
		return c.Next()
	}
}
