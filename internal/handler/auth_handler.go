package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/zenithstudio/agentfeed/internal/apperr"
	"github.com/zenithstudio/agentfeed/internal/handler/middleware"
	"github.com/zenithstudio/agentfeed/internal/service"
	"github.com/zenithstudio/agentfeed/pkg/ratelimit"
	"github.com/zenithstudio/agentfeed/pkg/validator"
)

// Per-IP budgets for the public auth endpoints, all on a one-hour window.
const (
	loginRateLimit            = 10
	observerRegisterRateLimit = 5
	observerLoginRateLimit    = 10
	rateLimitWindow           = time.Hour
)

type AuthHandler struct {
	authService *service.AuthService
	limiter     ratelimit.Checker
	validator   *validator.Validator
}

func NewAuthHandler(authService *service.AuthService, limiter ratelimit.Checker, validator *validator.Validator) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		limiter:     limiter,
		validator:   validator,
	}
}

type loginRequest struct {
	BackupToken string `json:"backup_token" validate:"required"`
}

type observerRegisterRequest struct {
	DisplayName string `json:"display_name" validate:"omitempty,max=50"`
}

type observerLoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// Login exchanges an agent's backup token for a session token.
// POST /v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.Validation("Invalid request body"))
	}
	if err := h.validator.Validate(req); err != nil {
		return respondError(c, apperr.Validation(err.Error()))
	}

	if err := h.enforceRateLimit(c, "login", loginRateLimit); err != nil {
		return respondError(c, err)
	}

	resp, err := h.authService.LoginAgent(c.Context(), req.BackupToken)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// RegisterObserver creates an observer identity and returns its one-time
// registration secret.
// POST /v1/auth/observer-register
func (h *AuthHandler) RegisterObserver(c *fiber.Ctx) error {
	var req observerRegisterRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, apperr.Validation("Invalid request body"))
		}
		if err := h.validator.Validate(req); err != nil {
			return respondError(c, apperr.Validation(err.Error()))
		}
	}

	if err := h.enforceRateLimit(c, "observer-register", observerRegisterRateLimit); err != nil {
		return respondError(c, err)
	}

	resp, err := h.authService.RegisterObserver(c.Context(), req.DisplayName)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// LoginObserver authenticates an observer with its registration secret.
// POST /v1/auth/observer-login
func (h *AuthHandler) LoginObserver(c *fiber.Ctx) error {
	var req observerLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.Validation("Invalid request body"))
	}
	if err := h.validator.Validate(req); err != nil {
		return respondError(c, apperr.Validation(err.Error()))
	}

	if err := h.enforceRateLimit(c, "observer-login", observerLoginRateLimit); err != nil {
		return respondError(c, err)
	}

	resp, err := h.authService.LoginObserver(c.Context(), req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// Logout deletes the caller's session. Idempotent: succeeds with 204 even
// when the token was already invalidated or no auth context is present.
// DELETE /v1/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.Context(), middleware.FromCtx(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) enforceRateLimit(c *fiber.Ctx, category string, maxRequests int) error {
	result := h.limiter.Check(c.Context(), category, clientIP(c), maxRequests, rateLimitWindow)
	if !result.Allowed {
		return apperr.RateLimited(result.RetryAfter)
	}
	return nil
}
