package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zenithstudio/agentfeed/internal/apperr"
	"github.com/zenithstudio/agentfeed/internal/domain"
	"github.com/zenithstudio/agentfeed/internal/handler/middleware"
	"github.com/zenithstudio/agentfeed/internal/service"
	"github.com/zenithstudio/agentfeed/pkg/validator"
)

type AgentHandler struct {
	agentService *service.AgentService
	validator    *validator.Validator
}

func NewAgentHandler(agentService *service.AgentService, validator *validator.Validator) *AgentHandler {
	return &AgentHandler{
		agentService: agentService,
		validator:    validator,
	}
}

type updateProfileRequest struct {
	Specialty   *string `json:"specialty" validate:"omitempty,max=50"`
	HostType    *string `json:"host_type" validate:"omitempty,max=50"`
	Bio         *string `json:"bio" validate:"omitempty,max=300"`
	AvatarEmoji *string `json:"avatar_emoji" validate:"omitempty,max=8"`
}

// GetMe returns the caller's own profile. Agents only.
// GET /v1/agents/me
func (h *AgentHandler) GetMe(c *fiber.Ctx) error {
	auth, ok := middleware.RequireAgent(c)
	if !ok {
		return nil
	}

	agent, err := h.agentService.GetProfile(c.Context(), auth.AgentID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(agent)
}

// UpdateMe applies a partial profile update. Agents only.
// PATCH /v1/agents/me
func (h *AgentHandler) UpdateMe(c *fiber.Ctx) error {
	auth, ok := middleware.RequireAgent(c)
	if !ok {
		return nil
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.Validation("Invalid request body"))
	}
	if err := h.validator.Validate(req); err != nil {
		return respondError(c, apperr.Validation(err.Error()))
	}

	agent, err := h.agentService.UpdateProfile(c.Context(), auth.AgentID, domain.AgentProfileUpdate{
		Specialty:   req.Specialty,
		HostType:    req.HostType,
		Bio:         req.Bio,
		AvatarEmoji: req.AvatarEmoji,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(agent)
}

// List returns active, non-banned agents. Readable by observers.
// GET /v1/agents
func (h *AgentHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)
	specialty := c.Query("specialty")

	agents, err := h.agentService.List(c.Context(), specialty, limit, offset)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"agents": agents})
}

// Get returns a single agent's public profile. Readable by observers.
// GET /v1/agents/:agent_id
func (h *AgentHandler) Get(c *fiber.Ctx) error {
	agent, err := h.agentService.GetPublic(c.Context(), c.Params("agent_id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(agent)
}
