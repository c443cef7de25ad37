package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenithstudio/agentfeed/internal/apperr"
	"github.com/zenithstudio/agentfeed/internal/domain"
	"github.com/zenithstudio/agentfeed/internal/repository"
)

func strPtr(s string) *string { return &s }

func newAgentService() (*AgentService, *repository.MockAgentRepository, *repository.MockSessionRepository) {
	agents := repository.NewMockAgentRepository()
	sessions := repository.NewMockSessionRepository()
	return NewAgentService(agents, sessions), agents, sessions
}

func seedAgent(t *testing.T, agents *repository.MockAgentRepository, id, name string) {
	t.Helper()
	_, err := agents.Upsert(context.Background(), id, name)
	require.NoError(t, err)
}

func TestGetProfile(t *testing.T) {
	svc, agents, _ := newAgentService()
	seedAgent(t, agents, "agent-1", "Claude")

	agent, err := svc.GetProfile(context.Background(), "agent-1")
	require.NoError(t, err)
	assert.Equal(t, "Claude", agent.Name)
}

func TestGetProfile_NotFound(t *testing.T) {
	svc, _, _ := newAgentService()

	_, err := svc.GetProfile(context.Background(), "ghost")
	requireAppErr(t, err, apperr.CodeAgentNotFound)
}

func TestUpdateProfile(t *testing.T) {
	svc, agents, _ := newAgentService()
	seedAgent(t, agents, "agent-1", "Claude")

	agent, err := svc.UpdateProfile(context.Background(), "agent-1", domain.AgentProfileUpdate{
		Specialty: strPtr("poetry"),
		Bio:       strPtr("Writes haiku about deployments."),
	})
	require.NoError(t, err)

	require.NotNil(t, agent.Specialty)
	assert.Equal(t, "poetry", *agent.Specialty)
	require.NotNil(t, agent.Bio)
	assert.Nil(t, agent.HostType, "untouched fields stay as they were")
}

func TestUpdateProfile_EmptyUpdate(t *testing.T) {
	svc, agents, _ := newAgentService()
	seedAgent(t, agents, "agent-1", "Claude")

	_, err := svc.UpdateProfile(context.Background(), "agent-1", domain.AgentProfileUpdate{})
	requireAppErr(t, err, apperr.CodeValidationError)
}

func TestUpdateProfile_NotFound(t *testing.T) {
	svc, _, _ := newAgentService()

	_, err := svc.UpdateProfile(context.Background(), "ghost", domain.AgentProfileUpdate{
		Specialty: strPtr("poetry"),
	})
	requireAppErr(t, err, apperr.CodeAgentNotFound)
}

func TestGetPublic_HidesBannedAndInactive(t *testing.T) {
	svc, agents, _ := newAgentService()
	seedAgent(t, agents, "agent-1", "Claude")

	_, err := svc.GetPublic(context.Background(), "agent-1")
	require.NoError(t, err)

	_, err = agents.SetBanned(context.Background(), "agent-1", true)
	require.NoError(t, err)

	// Banned agents look exactly like missing ones.
	_, err = svc.GetPublic(context.Background(), "agent-1")
	requireAppErr(t, err, apperr.CodeAgentNotFound)

	_, err = svc.GetPublic(context.Background(), "never-existed")
	requireAppErr(t, err, apperr.CodeAgentNotFound)
}

func TestList_ClampsPagination(t *testing.T) {
	svc, agents, _ := newAgentService()
	for _, id := range []string{"a", "b", "c"} {
		seedAgent(t, agents, id, "Agent "+id)
	}

	listed, err := svc.List(context.Background(), "", -5, -10)
	require.NoError(t, err)
	assert.Len(t, listed, 3)

	listed, err = svc.List(context.Background(), "", 2, 0)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestList_FiltersBySpecialty(t *testing.T) {
	svc, agents, _ := newAgentService()
	seedAgent(t, agents, "a", "A")
	seedAgent(t, agents, "b", "B")

	_, err := svc.UpdateProfile(context.Background(), "a", domain.AgentProfileUpdate{
		Specialty: strPtr("poetry"),
	})
	require.NoError(t, err)

	listed, err := svc.List(context.Background(), "poetry", 20, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "a", listed[0].AgentID)
}

func TestListAll_IncludesBanned(t *testing.T) {
	svc, agents, _ := newAgentService()
	seedAgent(t, agents, "a", "A")
	seedAgent(t, agents, "b", "B")

	_, err := agents.SetBanned(context.Background(), "b", true)
	require.NoError(t, err)

	all, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestBan_RevokesSessions(t *testing.T) {
	svc, agents, sessions := newAgentService()
	seedAgent(t, agents, "agent-1", "Claude")

	session := &domain.Session{
		Token:     "live-token",
		AgentID:   "agent-1",
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
	require.NoError(t, sessions.Create(context.Background(), session))

	require.NoError(t, svc.Ban(context.Background(), "agent-1"))

	agent, err := agents.GetByID(context.Background(), "agent-1")
	require.NoError(t, err)
	assert.True(t, agent.IsBanned)

	got, err := sessions.GetByToken(context.Background(), "live-token")
	require.NoError(t, err)
	assert.Nil(t, got, "ban must revoke live sessions immediately")
}

func TestBan_NotFound(t *testing.T) {
	svc, _, _ := newAgentService()

	err := svc.Ban(context.Background(), "ghost")
	requireAppErr(t, err, apperr.CodeAgentNotFound)
}

func TestUnban(t *testing.T) {
	svc, agents, _ := newAgentService()
	seedAgent(t, agents, "agent-1", "Claude")

	require.NoError(t, svc.Ban(context.Background(), "agent-1"))
	require.NoError(t, svc.Unban(context.Background(), "agent-1"))

	agent, err := agents.GetByID(context.Background(), "agent-1")
	require.NoError(t, err)
	assert.False(t, agent.IsBanned)
}
