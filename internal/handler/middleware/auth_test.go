package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenithstudio/agentfeed/internal/config"
	"github.com/zenithstudio/agentfeed/internal/domain"
	"github.com/zenithstudio/agentfeed/internal/repository"
)

type resolverFixture struct {
	app              *fiber.App
	agents           *repository.MockAgentRepository
	observers        *repository.MockObserverRepository
	sessions         *repository.MockSessionRepository
	observerSessions *repository.MockObserverSessionRepository
}

func newResolverFixture(adminSecret string) *resolverFixture {
	f := &resolverFixture{
		agents:           repository.NewMockAgentRepository(),
		observers:        repository.NewMockObserverRepository(),
		sessions:         repository.NewMockSessionRepository(),
		observerSessions: repository.NewMockObserverSessionRepository(),
	}

	cfg := &config.Config{Admin: config.AdminConfig{Secret: adminSecret}}

	f.app = fiber.New()
	f.app.Use(AuthResolver(cfg, f.sessions, f.observerSessions, f.agents, f.observers))

	f.app.Get("/v1/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	f.app.Get("/whoami", func(c *fiber.Ctx) error {
		switch auth := FromCtx(c).(type) {
		case domain.AgentAuth:
			return c.JSON(fiber.Map{"role": "agent", "id": auth.AgentID})
		case domain.ObserverAuth:
			return c.JSON(fiber.Map{"role": "observer", "id": auth.ObserverID})
		default:
			return c.JSON(fiber.Map{"role": "none"})
		}
	})
	f.app.Get("/agent-only", func(c *fiber.Ctx) error {
		auth, ok := RequireAgent(c)
		if !ok {
			return nil
		}
		return c.JSON(fiber.Map{"id": auth.AgentID})
	})
	f.app.Get("/v1/admin/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"admin": true})
	})
	f.app.Delete("/v1/auth/logout", func(c *fiber.Ctx) error {
		switch auth := FromCtx(c).(type) {
		case domain.AgentAuth:
			return c.JSON(fiber.Map{"role": "agent", "id": auth.AgentID})
		case domain.ObserverAuth:
			return c.JSON(fiber.Map{"role": "observer", "id": auth.ObserverID})
		default:
			return c.JSON(fiber.Map{"role": "none"})
		}
	})

	return f
}

func (f *resolverFixture) seedAgentSession(t *testing.T, agentID, token string, expiresAt time.Time) {
	t.Helper()
	_, err := f.agents.Upsert(context.Background(), agentID, "Agent "+agentID)
	require.NoError(t, err)
	require.NoError(t, f.sessions.Create(context.Background(), &domain.Session{
		Token:     token,
		AgentID:   agentID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}))
}

func (f *resolverFixture) seedObserverSession(t *testing.T, observerID, token string, expiresAt time.Time) {
	t.Helper()
	require.NoError(t, f.observers.Create(context.Background(), &domain.Observer{
		ObserverID:  observerID,
		DisplayName: "Watcher",
		TokenHash:   "irrelevant",
	}))
	require.NoError(t, f.observerSessions.Create(context.Background(), &domain.ObserverSession{
		Token:      token,
		ObserverID: observerID,
		ExpiresAt:  expiresAt,
		CreatedAt:  time.Now(),
	}))
}

func doRequest(t *testing.T, app *fiber.App, method, path, bearer string) (*http.Response, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	var body map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body))
	}
	return resp, body
}

func TestAuthResolver_PublicPathSkipsAuth(t *testing.T) {
	f := newResolverFixture("")

	resp, body := doRequest(t, f.app, "GET", "/v1/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestAuthResolver_MissingHeader(t *testing.T) {
	f := newResolverFixture("")

	resp, body := doRequest(t, f.app, "GET", "/whoami", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", body["code"])
}

func TestAuthResolver_MalformedHeader(t *testing.T) {
	f := newResolverFixture("")

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthResolver_UnknownToken(t *testing.T) {
	f := newResolverFixture("")

	resp, body := doRequest(t, f.app, "GET", "/whoami", "no-such-token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", body["code"])
}

func TestAuthResolver_ValidAgentSession(t *testing.T) {
	f := newResolverFixture("")
	f.seedAgentSession(t, "agent-1", "agent-token", time.Now().Add(time.Hour))

	resp, body := doRequest(t, f.app, "GET", "/whoami", "agent-token")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "agent", body["role"])
	assert.Equal(t, "agent-1", body["id"])

	// The fire-and-forget last_active bump eventually lands.
	select {
	case touched := <-f.agents.Touched:
		assert.Equal(t, "agent-1", touched)
	case <-time.After(2 * time.Second):
		t.Fatal("last_active was never touched")
	}
}

func TestAuthResolver_ExpiredAgentSession(t *testing.T) {
	f := newResolverFixture("")
	f.seedAgentSession(t, "agent-1", "stale-token", time.Now().Add(-time.Minute))

	resp, body := doRequest(t, f.app, "GET", "/whoami", "stale-token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "TOKEN_EXPIRED", body["code"])

	// The expired row was deleted, so the second attempt cannot even find
	// the session and reads as a plain unauthorized.
	resp, body = doRequest(t, f.app, "GET", "/whoami", "stale-token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", body["code"])
}

func TestAuthResolver_BannedAgent(t *testing.T) {
	f := newResolverFixture("")
	f.seedAgentSession(t, "agent-1", "agent-token", time.Now().Add(time.Hour))

	_, err := f.agents.SetBanned(context.Background(), "agent-1", true)
	require.NoError(t, err)

	resp, body := doRequest(t, f.app, "GET", "/whoami", "agent-token")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "AGENT_SUSPENDED", body["code"])
}

func TestAuthResolver_ValidObserverSession(t *testing.T) {
	f := newResolverFixture("")
	f.seedObserverSession(t, "obs-abc123", "observer-token", time.Now().Add(time.Hour))

	resp, body := doRequest(t, f.app, "GET", "/whoami", "observer-token")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "observer", body["role"])
	assert.Equal(t, "obs-abc123", body["id"])
}

func TestAuthResolver_ExpiredObserverSession(t *testing.T) {
	f := newResolverFixture("")
	f.seedObserverSession(t, "obs-abc123", "stale-token", time.Now().Add(-time.Minute))

	resp, body := doRequest(t, f.app, "GET", "/whoami", "stale-token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "TOKEN_EXPIRED", body["code"])

	resp, body = doRequest(t, f.app, "GET", "/whoami", "stale-token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", body["code"])
}

func TestAuthResolver_BannedObserver(t *testing.T) {
	f := newResolverFixture("")
	f.seedObserverSession(t, "obs-abc123", "observer-token", time.Now().Add(time.Hour))
	f.observers.Observers["obs-abc123"].IsBanned = true

	resp, body := doRequest(t, f.app, "GET", "/whoami", "observer-token")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	// Same code as a banned agent; the error must not reveal which session
	// table the token lives in.
	assert.Equal(t, "AGENT_SUSPENDED", body["code"])
}

func TestRequireAgent_RejectsObserver(t *testing.T) {
	f := newResolverFixture("")
	f.seedObserverSession(t, "obs-abc123", "observer-token", time.Now().Add(time.Hour))

	resp, body := doRequest(t, f.app, "GET", "/agent-only", "observer-token")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", body["code"])
}

func TestRequireAgent_AllowsAgent(t *testing.T) {
	f := newResolverFixture("")
	f.seedAgentSession(t, "agent-1", "agent-token", time.Now().Add(time.Hour))

	resp, body := doRequest(t, f.app, "GET", "/agent-only", "agent-token")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "agent-1", body["id"])
}

func TestAuthResolver_AdminNotConfigured(t *testing.T) {
	f := newResolverFixture("")

	resp, body := doRequest(t, f.app, "GET", "/v1/admin/ping", "anything")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
}

func TestAuthResolver_AdminMissingHeader(t *testing.T) {
	f := newResolverFixture("super-secret")

	resp, body := doRequest(t, f.app, "GET", "/v1/admin/ping", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", body["code"])
}

func TestAuthResolver_AdminWrongSecret(t *testing.T) {
	f := newResolverFixture("super-secret")

	resp, body := doRequest(t, f.app, "GET", "/v1/admin/ping", "wrong-secret")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", body["code"])
}

func TestAuthResolver_AdminCorrectSecret(t *testing.T) {
	f := newResolverFixture("super-secret")

	resp, body := doRequest(t, f.app, "GET", "/v1/admin/ping", "super-secret")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["admin"])
}

func TestAuthResolver_AdminIgnoresSessionTables(t *testing.T) {
	f := newResolverFixture("super-secret")
	f.seedAgentSession(t, "agent-1", "agent-token", time.Now().Add(time.Hour))

	// A valid agent session token is not the admin secret.
	resp, body := doRequest(t, f.app, "GET", "/v1/admin/ping", "agent-token")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", body["code"])
}

func TestAuthResolver_LogoutPathNeverRejects(t *testing.T) {
	f := newResolverFixture("")

	// No header, an unknown token, and an expired token all reach the
	// handler instead of being rejected by the resolver.
	resp, body := doRequest(t, f.app, "DELETE", "/v1/auth/logout", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "none", body["role"])

	resp, body = doRequest(t, f.app, "DELETE", "/v1/auth/logout", "no-such-token")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "none", body["role"])

	f.seedAgentSession(t, "agent-1", "stale-token", time.Now().Add(-time.Minute))
	resp, body = doRequest(t, f.app, "DELETE", "/v1/auth/logout", "stale-token")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "agent", body["role"], "expired sessions still resolve so logout can delete them")
}

func TestAuthResolver_LogoutPathAttachesContext(t *testing.T) {
	f := newResolverFixture("")
	f.seedAgentSession(t, "agent-1", "agent-token", time.Now().Add(time.Hour))
	f.seedObserverSession(t, "obs-abc123", "observer-token", time.Now().Add(time.Hour))

	resp, body := doRequest(t, f.app, "DELETE", "/v1/auth/logout", "agent-token")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "agent", body["role"])
	assert.Equal(t, "agent-1", body["id"])

	resp, body = doRequest(t, f.app, "DELETE", "/v1/auth/logout", "observer-token")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "observer", body["role"])
	assert.Equal(t, "obs-abc123", body["id"])
}

func TestAuthResolver_LogoutPathSurvivesStorageFailure(t *testing.T) {
	f := newResolverFixture("")
	f.sessions.ForcedErr = errors.New("db down")

	resp, body := doRequest(t, f.app, "DELETE", "/v1/auth/logout", "any-token")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "none", body["role"])
}

func TestAuthResolver_StorageFailure(t *testing.T) {
	f := newResolverFixture("")
	f.sessions.ForcedErr = errors.New("db down")

	resp, body := doRequest(t, f.app, "GET", "/whoami", "any-token")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
}
