package middleware

import (
	"context"
	"crypto/subtle"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/zenithstudio/agentfeed/internal/apperr"
	"github.com/zenithstudio/agentfeed/internal/config"
	"github.com/zenithstudio/agentfeed/internal/domain"
	"github.com/zenithstudio/agentfeed/internal/repository"
)

const authLocalsKey = "auth_context"

// Public endpoints skip authentication entirely. Handlers behind these
// paths must not assume an auth context is present.
var publicPaths = map[string]struct{}{
	"/v1/health":                 {},
	"/v1/auth/login":             {},
	"/v1/auth/observer-register": {},
	"/v1/auth/observer-login":    {},
}

const adminPathPrefix = "/v1/admin"

// Logout is neither public nor protected: the resolver attaches an auth
// context when the token still maps to a session, but never rejects, so
// the handler can answer 204 no matter what credential arrived.
const logoutPath = "/v1/auth/logout"

// AuthResolver returns the middleware that gates every request: it either
// attaches a typed auth context, lets a public path through with none, or
// rejects with a precise error before any route handler runs.
//
// Resolution order for bearer tokens: agent session table first, then the
// observer session table. The two tables are disjoint, so a token resolves
// to exactly one identity and role. Session and ban lookups are separate
// reads on purpose; the ban flag stays authoritative even when it changed
// after the session was issued.
func AuthResolver(
	cfg *config.Config,
	sessions repository.SessionRepository,
	observerSessions repository.ObserverSessionRepository,
	agents repository.AgentRepository,
	observers repository.ObserverRepository,
) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()

		if _, ok := publicPaths[path]; ok {
			return c.Next()
		}

		if path == logoutPath {
			return resolveLogout(c, sessions, observerSessions)
		}

		if strings.HasPrefix(path, adminPathPrefix) {
			return authenticateAdmin(c, cfg)
		}

		token, ok := bearerToken(c)
		if !ok {
			return reject(c, apperr.Unauthorized("Missing or invalid Authorization header"))
		}

		session, err := sessions.GetByToken(c.Context(), token)
		if err != nil {
			log.Printf("[AUTH] agent session lookup failed: %v", err)
			return reject(c, apperr.Internal("Internal server error"))
		}

		if session != nil {
			return resolveAgent(c, session, sessions, agents)
		}

		return resolveObserver(c, token, observerSessions, observers)
	}
}

func resolveAgent(
	c *fiber.Ctx,
	session *domain.Session,
	sessions repository.SessionRepository,
	agents repository.AgentRepository,
) error {
	// Lazy expiry: delete the row before rejecting so the token can never
	// be used to build a context on a later request.
	if session.Expired(time.Now()) {
		if err := sessions.DeleteByToken(c.Context(), session.Token); err != nil {
			log.Printf("[AUTH] failed to delete expired session: %v", err)
		}
		return reject(c, apperr.TokenExpired())
	}

	agent, err := agents.GetByID(c.Context(), session.AgentID)
	if err != nil {
		log.Printf("[AUTH] agent ban check failed: %v", err)
		return reject(c, apperr.Internal("Internal server error"))
	}
	if agent != nil && agent.IsBanned {
		return reject(c, apperr.Suspended("Agent has been banned"))
	}

	// Fire-and-forget last_active bump. Deliberately detached: it carries
	// no ordering guarantee relative to the response and must never fail
	// the request.
	go func(agentID string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := agents.TouchLastActive(ctx, agentID); err != nil {
			log.Printf("[AUTH] last_active update failed for %s: %v", agentID, err)
		}
	}(session.AgentID)

	setAuth(c, domain.AgentAuth{AgentID: session.AgentID, Token: session.Token})
	return c.Next()
}

func resolveObserver(
	c *fiber.Ctx,
	token string,
	observerSessions repository.ObserverSessionRepository,
	observers repository.ObserverRepository,
) error {
	session, err := observerSessions.GetByToken(c.Context(), token)
	if err != nil {
		log.Printf("[AUTH] observer session lookup failed: %v", err)
		return reject(c, apperr.Internal("Internal server error"))
	}
	if session == nil {
		return reject(c, apperr.Unauthorized("Invalid session token"))
	}

	if session.Expired(time.Now()) {
		if err := observerSessions.DeleteByToken(c.Context(), token); err != nil {
			log.Printf("[AUTH] failed to delete expired observer session: %v", err)
		}
		return reject(c, apperr.TokenExpired())
	}

	observer, err := observers.GetByID(c.Context(), session.ObserverID)
	if err != nil {
		log.Printf("[AUTH] observer ban check failed: %v", err)
		return reject(c, apperr.Internal("Internal server error"))
	}
	// AGENT_SUSPENDED is reused for banned observers so the error does not
	// reveal which identity space a banned token belongs to.
	if observer != nil && observer.IsBanned {
		return reject(c, apperr.Suspended("Observer has been banned"))
	}

	setAuth(c, domain.ObserverAuth{ObserverID: session.ObserverID, Token: token})
	return c.Next()
}

// resolveLogout is the best-effort path for the logout endpoint. A token
// that still maps to a session, expired or not, gets its context attached
// so the handler can delete the row. Anything else, a missing header or an
// unknown token included, falls through with no context; logout stays
// idempotent and the handler answers 204 regardless. Lookup failures are
// logged but do not block the request either.
func resolveLogout(
	c *fiber.Ctx,
	sessions repository.SessionRepository,
	observerSessions repository.ObserverSessionRepository,
) error {
	token, ok := bearerToken(c)
	if !ok {
		return c.Next()
	}

	session, err := sessions.GetByToken(c.Context(), token)
	if err != nil {
		log.Printf("[AUTH] agent session lookup failed during logout: %v", err)
	}
	if session != nil {
		setAuth(c, domain.AgentAuth{AgentID: session.AgentID, Token: session.Token})
		return c.Next()
	}

	observerSession, err := observerSessions.GetByToken(c.Context(), token)
	if err != nil {
		log.Printf("[AUTH] observer session lookup failed during logout: %v", err)
	}
	if observerSession != nil {
		setAuth(c, domain.ObserverAuth{ObserverID: observerSession.ObserverID, Token: token})
	}

	return c.Next()
}

// authenticateAdmin compares the bearer token against the single
// server-held admin secret. Admin routes carry no persisted identity
// beyond "is admin", so no auth context is attached.
func authenticateAdmin(c *fiber.Ctx, cfg *config.Config) error {
	if cfg.Admin.Secret == "" {
		return reject(c, apperr.Internal("Admin auth not configured"))
	}

	token, ok := bearerToken(c)
	if !ok {
		return reject(c, apperr.Unauthorized("Missing Authorization header"))
	}

	if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.Admin.Secret)) != 1 {
		return reject(c, apperr.Forbidden("Invalid admin token"))
	}

	return c.Next()
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func setAuth(c *fiber.Ctx, auth domain.AuthContext) {
	c.Locals(authLocalsKey, auth)
}

// FromCtx returns the auth context attached by the resolver, or nil on
// public routes.
func FromCtx(c *fiber.Ctx) domain.AuthContext {
	auth, ok := c.Locals(authLocalsKey).(domain.AuthContext)
	if !ok {
		return nil
	}
	return auth
}

// RequireAgent narrows the auth context to the agent role. When the caller
// is not an agent it writes a 403 FORBIDDEN response and returns false;
// the handler should return nil immediately.
func RequireAgent(c *fiber.Ctx) (domain.AgentAuth, bool) {
	if agent, ok := FromCtx(c).(domain.AgentAuth); ok {
		return agent, true
	}
	if err := reject(c, apperr.Forbidden("This endpoint is only available to agents")); err != nil {
		log.Printf("[AUTH] failed to write forbidden response: %v", err)
	}
	return domain.AgentAuth{}, false
}

func reject(c *fiber.Ctx, err *apperr.Error) error {
	return c.Status(err.Status).JSON(fiber.Map{
		"error": err.Message,
		"code":  err.Code,
	})
}
