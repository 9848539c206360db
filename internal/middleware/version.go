package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// VersionHeader reports the running build on every response
func VersionHeader(version string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Builder-Version", version)
		c.Locals("builderVersion", version)
		return c.Next()
	}
}
