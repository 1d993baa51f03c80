package middleware

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/luminaguard/safety-backend/internal/dto"
	"github.com/luminaguard/safety-backend/internal/models"
	"github.com/luminaguard/safety-backend/internal/services"
)

const userLocalsKey = "user"

// TokenVerifier resolves a bearer token to the user id it was issued for.
type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

// UserFinder loads a user by id.
type UserFinder interface {
	FindByID(id uuid.UUID) (*models.User, error)
}

// Protected rejects requests without a valid bearer token for an existing,
// active user. On success the user is available through CurrentUser.
func Protected(tokens TokenVerifier, users UserFinder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearerToken(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			return unauthorized(c, "Not authenticated. Please login to access this resource.")
		}

		userID, err := tokens.Verify(raw)
		if err != nil {
			return unauthorized(c, "Invalid or expired token. Please login again.")
		}

		user, err := users.FindByID(userID)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				return unauthorized(c, "User not found. Token is invalid.")
			}
			slog.Error("auth guard user lookup failed", "user_id", userID.String(), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Authentication failed"))
		}
		if !user.IsActive {
			return unauthorized(c, "Your account has been deactivated.")
		}

		c.Locals(userLocalsKey, user)
		return c.Next()
	}
}

// CurrentUser returns the user attached by Protected, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocalsKey).(*models.User)
	return user
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail(message))
}
