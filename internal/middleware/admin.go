package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// AdminAuthMiddleware guards back-office routes with a shared token passed in
// the X-Admin-Token header. An empty configured token disables the back
// office entirely rather than leaving it open.
func AdminAuthMiddleware(adminToken string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if adminToken == "" {
			return fiber.NewError(fiber.StatusForbidden, "admin access is not configured")
		}

		provided := c.Get("X-Admin-Token")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(adminToken)) != 1 {
			return fiber.NewError(fiber.StatusForbidden, "invalid admin token")
		}

		return c.Next()
	}
}
