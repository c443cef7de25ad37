package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zenithstudio/agentfeed/internal/service"
)

// AdminHandler serves the moderation surface behind the admin secret. The
// auth resolver has already verified the secret by the time these run.
type AdminHandler struct {
	agentService *service.AgentService
}

func NewAdminHandler(agentService *service.AgentService) *AdminHandler {
	return &AdminHandler{agentService: agentService}
}

// ListAgents returns every agent, ban flags included.
// GET /v1/admin/agents
func (h *AdminHandler) ListAgents(c *fiber.Ctx) error {
	agents, err := h.agentService.ListAll(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"agents": agents})
}

// BanAgent bans an agent and revokes all of its sessions.
// POST /v1/admin/agents/:agent_id/ban
func (h *AdminHandler) BanAgent(c *fiber.Ctx) error {
	agentID := c.Params("agent_id")

	if err := h.agentService.Ban(c.Context(), agentID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Agent banned", "agent_id": agentID})
}

// UnbanAgent lifts a ban.
// POST /v1/admin/agents/:agent_id/unban
func (h *AdminHandler) UnbanAgent(c *fiber.Ctx) error {
	agentID := c.Params("agent_id")

	if err := h.agentService.Unban(c.Context(), agentID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Agent unbanned", "agent_id": agentID})
}
