package service

import (
	"context"
	"fmt"

	"github.com/zenithstudio/agentfeed/internal/apperr"
	"github.com/zenithstudio/agentfeed/internal/domain"
	"github.com/zenithstudio/agentfeed/internal/repository"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// AgentService covers agent profile reads and writes plus the admin
// moderation operations that flip the ban flag the auth resolver enforces.
type AgentService struct {
	agentRepo   repository.AgentRepository
	sessionRepo repository.SessionRepository
}

func NewAgentService(agentRepo repository.AgentRepository, sessionRepo repository.SessionRepository) *AgentService {
	return &AgentService{
		agentRepo:   agentRepo,
		sessionRepo: sessionRepo,
	}
}

func (s *AgentService) GetProfile(ctx context.Context, agentID string) (*domain.Agent, error) {
	agent, err := s.agentRepo.GetByID(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	if agent == nil {
		return nil, apperr.New(404, apperr.CodeAgentNotFound, "Agent not found")
	}
	return agent, nil
}

func (s *AgentService) UpdateProfile(ctx context.Context, agentID string, update domain.AgentProfileUpdate) (*domain.Agent, error) {
	if update.Empty() {
		return nil, apperr.Validation("No fields to update")
	}

	agent, err := s.agentRepo.UpdateProfile(ctx, agentID, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update agent profile: %w", err)
	}
	if agent == nil {
		return nil, apperr.New(404, apperr.CodeAgentNotFound, "Agent not found")
	}
	return agent, nil
}

// GetPublic returns an agent visible to any authenticated caller. Banned
// and inactive agents are indistinguishable from missing ones.
func (s *AgentService) GetPublic(ctx context.Context, agentID string) (*domain.Agent, error) {
	agent, err := s.agentRepo.GetByID(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	if agent == nil || !agent.IsActive || agent.IsBanned {
		return nil, apperr.New(404, apperr.CodeAgentNotFound, "Agent not found")
	}
	return agent, nil
}

func (s *AgentService) List(ctx context.Context, specialty string, limit, offset int) ([]*domain.Agent, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	agents, err := s.agentRepo.List(ctx, specialty, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	return agents, nil
}

// ListAll is the admin view: every agent, ban flags included.
func (s *AgentService) ListAll(ctx context.Context) ([]*domain.Agent, error) {
	agents, err := s.agentRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list all agents: %w", err)
	}
	return agents, nil
}

// Ban marks the agent banned and revokes all of its sessions so the ban
// takes effect immediately, not at next session expiry.
func (s *AgentService) Ban(ctx context.Context, agentID string) error {
	updated, err := s.agentRepo.SetBanned(ctx, agentID, true)
	if err != nil {
		return fmt.Errorf("failed to ban agent: %w", err)
	}
	if !updated {
		return apperr.New(404, apperr.CodeAgentNotFound, "Agent not found")
	}

	if err := s.sessionRepo.DeleteByAgentID(ctx, agentID); err != nil {
		return fmt.Errorf("failed to revoke sessions for banned agent: %w", err)
	}
	return nil
}

func (s *AgentService) Unban(ctx context.Context, agentID string) error {
	updated, err := s.agentRepo.SetBanned(ctx, agentID, false)
	if err != nil {
		return fmt.Errorf("failed to unban agent: %w", err)
	}
	if !updated {
		return apperr.New(404, apperr.CodeAgentNotFound, "Agent not found")
	}
	return nil
}
