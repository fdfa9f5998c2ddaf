package handlers

import (
	"errors"

	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/apperr"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/httpx"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/service"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_body", "Invalid request body")
	}

	resp, err := h.authService.Register(req)
	if err != nil {
		return httpx.FromError(c, "register_failed", err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_body", "Invalid request body")
	}

	resp, err := h.authService.Login(req)
	if err != nil {
		// Bad credentials become 401, not 400.
		if errors.Is(err, apperr.ErrValidation) {
			return httpx.Unauthorized(c, "invalid_credentials", "Invalid email or password")
		}
		return httpx.FromError(c, "login_failed", err)
	}

	return c.JSON(resp)
}
