package handlers

import (
	"errors"
	"fmt"
	"log/slog"

	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"

	"github.com/luminaguard/safety-backend/internal/dto"
	"github.com/luminaguard/safety-backend/internal/middleware"
	"github.com/luminaguard/safety-backend/internal/services"
)

// respondError translates a service error into the JSON envelope. Anything
// outside the domain taxonomy is logged, reported to Sentry, and answered with
// the generic fallback message.
func respondError(c *fiber.Ctx, err error, fallback string) error {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail(ve.Message))
	case errors.Is(err, services.ErrEmailTaken):
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Email already registered"))
	case errors.Is(err, services.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Invalid email or password"))
	case errors.Is(err, services.ErrNotAlertOwner):
		return c.Status(fiber.StatusForbidden).JSON(dto.Fail("Not authorized to modify this alert"))
	case errors.Is(err, services.ErrAlertNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.Fail("Alert not found"))
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.Fail("User not found"))
	case errors.Is(err, services.ErrAlertNotActive):
		return c.Status(fiber.StatusConflict).JSON(dto.Fail("Alert is no longer active"))
	}

	attrs := []any{
		"method", c.Method(),
		"path", c.Path(),
		"request_id", requestID(c),
		"error", err.Error(),
	}
	if user := middleware.CurrentUser(c); user != nil {
		attrs = append(attrs, "user_id", user.ID.String())
	}
	if id := c.Params("id"); id != "" {
		attrs = append(attrs, "alert_id", id)
	}
	slog.Error(fallback, attrs...)

	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}

	return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail(fallback))
}

func requestID(c *fiber.Ctx) string {
	if id := c.Locals("requestid"); id != nil {
		return fmt.Sprint(id)
	}
	return ""
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid request body"))
}
