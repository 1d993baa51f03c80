package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/luminaguard/safety-backend/internal/dto"
	"github.com/luminaguard/safety-backend/internal/middleware"
	"github.com/luminaguard/safety-backend/internal/models"
	"github.com/luminaguard/safety-backend/internal/services"
)

type AdminHandler struct {
	authService *services.AuthService
}

func NewAdminHandler(authService *services.AuthService) *AdminHandler {
	return &AdminHandler{authService: authService}
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	users, err := h.authService.ListUsers(page, limit)
	if err != nil {
		return respondError(c, err, "Failed to fetch users")
	}
	return c.JSON(dto.OK("Users retrieved", users))
}

func (h *AdminHandler) Deactivate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid user ID"))
	}
	if id == middleware.CurrentUser(c).ID {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("You cannot deactivate your own account"))
	}

	user, err := h.authService.Deactivate(id)
	return h.userResult(c, user, err, "User deactivated")
}

func (h *AdminHandler) Reactivate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid user ID"))
	}

	user, err := h.authService.Reactivate(id)
	return h.userResult(c, user, err, "User reactivated")
}

func (h *AdminHandler) userResult(c *fiber.Ctx, user *models.User, err error, message string) error {
	if err != nil {
		return respondError(c, err, "Failed to update user")
	}
	return c.JSON(dto.OK(message, dto.UserEnvelope{User: dto.NewUserResponse(user)}))
}
