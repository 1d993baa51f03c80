package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/luminaguard/safety-backend/internal/dto"
	"github.com/luminaguard/safety-backend/internal/middleware"
	"github.com/luminaguard/safety-backend/internal/services"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	resp, err := h.authService.Register(&req)
	if err != nil {
		return respondError(c, err, "Registration failed")
	}

	return c.Status(fiber.StatusCreated).JSON(dto.OK("Registration successful", resp))
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		return respondError(c, err, "Login failed")
	}

	return c.JSON(dto.OK("Login successful", resp))
}

// Logout exists for client symmetry. Tokens are not revoked server-side; the
// client discards its copy.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	return c.JSON(dto.OK("Logout successful", nil))
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.Fail("User not found"))
	}
	return c.JSON(dto.OK("Profile retrieved", dto.UserEnvelope{User: dto.NewProfileResponse(user)}))
}

func (h *AuthHandler) UpdateContacts(c *fiber.Ctx) error {
	var req dto.UpdateContactsRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	user, err := h.authService.UpdateContacts(middleware.CurrentUser(c).ID, &req)
	if err != nil {
		return respondError(c, err, "Failed to update emergency contacts")
	}

	return c.JSON(dto.OK("Emergency contacts updated", dto.UserEnvelope{User: dto.NewProfileResponse(user)}))
}
