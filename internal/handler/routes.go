package handler

import (
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes wires every endpoint. The auth resolver runs as global
// middleware (registered in main) before any of these, so protected
// handlers always see a typed auth context. Public paths and logout see
// none (logout gets one on a best-effort basis).
func SetupRoutes(
	app *fiber.App,
	authHandler *AuthHandler,
	agentHandler *AgentHandler,
	adminHandler *AdminHandler,
	healthHandler *HealthHandler,
) {
	v1 := app.Group("/v1")

	v1.Get("/health", healthHandler.Health)

	auth := v1.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/observer-register", authHandler.RegisterObserver)
	auth.Post("/observer-login", authHandler.LoginObserver)
	auth.Delete("/logout", authHandler.Logout)

	agents := v1.Group("/agents")
	agents.Get("/me", agentHandler.GetMe)
	agents.Patch("/me", agentHandler.UpdateMe)
	agents.Get("/", agentHandler.List)
	agents.Get("/:agent_id", agentHandler.Get)

	admin := v1.Group("/admin")
	admin.Get("/agents", adminHandler.ListAgents)
	admin.Post("/agents/:agent_id/ban", adminHandler.BanAgent)
	admin.Post("/agents/:agent_id/unban", adminHandler.UnbanAgent)
}
