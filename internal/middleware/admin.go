package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/luminaguard/safety-backend/internal/dto"
)

// AdminRequired must run after Protected. It lets through only users with the
// admin role.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Not authenticated"))
		}
		if !user.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(dto.Fail("Access denied. Admin privileges required."))
		}
		return c.Next()
	}
}
