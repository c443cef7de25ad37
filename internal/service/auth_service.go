package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/zenithstudio/agentfeed/internal/apperr"
	"github.com/zenithstudio/agentfeed/internal/config"
	"github.com/zenithstudio/agentfeed/internal/domain"
	"github.com/zenithstudio/agentfeed/internal/repository"
	"github.com/zenithstudio/agentfeed/pkg/backup"
	"github.com/zenithstudio/agentfeed/pkg/token"
)

const defaultObserverDisplayName = "Observer"

// AuthService issues and revokes sessions for agents and observers.
type AuthService struct {
	agentRepo           repository.AgentRepository
	observerRepo        repository.ObserverRepository
	sessionRepo         repository.SessionRepository
	observerSessionRepo repository.ObserverSessionRepository
	verifier            backup.Verifier
	cfg                 *config.Config

	// randFloat drives the opportunistic cleanup sweep; replaced in tests.
	randFloat func() float64
}

func NewAuthService(
	agentRepo repository.AgentRepository,
	observerRepo repository.ObserverRepository,
	sessionRepo repository.SessionRepository,
	observerSessionRepo repository.ObserverSessionRepository,
	verifier backup.Verifier,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		agentRepo:           agentRepo,
		observerRepo:        observerRepo,
		sessionRepo:         sessionRepo,
		observerSessionRepo: observerSessionRepo,
		verifier:            verifier,
		cfg:                 cfg,
		randFloat:           rand.Float64,
	}
}

// AgentSummary is the public slice of an agent row returned on login.
type AgentSummary struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}

type LoginAgentResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Agent     *AgentSummary `json:"agent"`
}

type RegisterObserverResponse struct {
	ObserverID string `json:"observer_id"`
	Token      string `json:"token"`
	Message    string `json:"message"`
}

type LoginObserverResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Role      string    `json:"role"`
}

// LoginAgent exchanges a backup token for a session token. The backup
// service authenticates the credential, but the local ban flag is
// authoritative: a banned agent is rejected even when the upstream
// approved it.
func (s *AuthService) LoginAgent(ctx context.Context, backupToken string) (*LoginAgentResponse, error) {
	backupAgent, err := s.verifier.VerifyBackupToken(ctx, backupToken)
	if err != nil {
		switch {
		case errors.Is(err, backup.ErrTokenRejected):
			return nil, apperr.InvalidToken("Backup token rejected")
		case errors.Is(err, backup.ErrSuspended):
			return nil, apperr.Suspended("Agent is suspended on backup service")
		default:
			log.Printf("[AUTH] backup verification failed: %v", err)
			return nil, apperr.BackupUnavailable("Cannot reach backup service")
		}
	}

	agent, err := s.agentRepo.Upsert(ctx, backupAgent.AgentID, backupAgent.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert agent: %w", err)
	}

	if agent.IsBanned {
		return nil, apperr.Suspended("Agent has been banned")
	}

	sessionToken, err := token.NewSessionToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &domain.Session{
		Token:     sessionToken,
		AgentID:   agent.AgentID,
		ExpiresAt: now.Add(s.cfg.Auth.SessionTTL),
		CreatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	// Opportunistic cleanup: amortize expired-session GC across login
	// traffic. Detached from the request; failures are logged only.
	if s.randFloat() < s.cfg.Auth.CleanupProbability {
		go s.sweepExpiredSessions()
	}

	return &LoginAgentResponse{
		Token:     sessionToken,
		ExpiresAt: session.ExpiresAt,
		Agent: &AgentSummary{
			ID:       agent.AgentID,
			Name:     agent.Name,
			JoinedAt: agent.JoinedAt,
		},
	}, nil
}

func (s *AuthService) sweepExpiredSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := s.sessionRepo.DeleteExpired(ctx)
	if err != nil {
		log.Printf("[AUTH] expired session sweep failed: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("[AUTH] swept %d expired sessions", deleted)
	}
}

// RegisterObserver creates an observer identity. The returned token is the
// observer's permanent login password and is never recoverable afterwards;
// only its SHA-256 hash is stored.
func (s *AuthService) RegisterObserver(ctx context.Context, displayName string) (*RegisterObserverResponse, error) {
	if displayName == "" {
		displayName = defaultObserverDisplayName
	}

	observerID, err := token.NewObserverID()
	if err != nil {
		return nil, err
	}
	secret, err := token.NewSessionToken()
	if err != nil {
		return nil, err
	}

	observer := &domain.Observer{
		ObserverID:  observerID,
		DisplayName: displayName,
		TokenHash:   token.HashSHA256(secret),
		CreatedAt:   time.Now(),
	}
	if err := s.observerRepo.Create(ctx, observer); err != nil {
		return nil, fmt.Errorf("failed to create observer: %w", err)
	}

	return &RegisterObserverResponse{
		ObserverID: observerID,
		Token:      secret,
		Message:    "Save this token. It is your permanent login password and will not be shown again.",
	}, nil
}

// LoginObserver authenticates an observer by the SHA-256 hash of its
// registration secret; the hash is the lookup key, so there is no separate
// compare step.
func (s *AuthService) LoginObserver(ctx context.Context, password string) (*LoginObserverResponse, error) {
	observer, err := s.observerRepo.GetByTokenHash(ctx, token.HashSHA256(password))
	if err != nil {
		return nil, fmt.Errorf("failed to look up observer: %w", err)
	}
	if observer == nil {
		return nil, apperr.InvalidToken("Invalid observer credentials")
	}
	if observer.IsBanned {
		return nil, apperr.Suspended("Observer has been banned")
	}

	sessionToken, err := token.NewSessionToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &domain.ObserverSession{
		Token:      sessionToken,
		ObserverID: observer.ObserverID,
		ExpiresAt:  now.Add(s.cfg.Auth.SessionTTL),
		CreatedAt:  now,
	}
	if err := s.observerSessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create observer session: %w", err)
	}

	return &LoginObserverResponse{
		Token:     sessionToken,
		ExpiresAt: session.ExpiresAt,
		Role:      "observer",
	}, nil
}

// Logout deletes the caller's own session from the table matching its
// resolved role. A nil auth context is a no-op; logout always succeeds.
func (s *AuthService) Logout(ctx context.Context, auth domain.AuthContext) error {
	switch a := auth.(type) {
	case domain.AgentAuth:
		return s.sessionRepo.DeleteByToken(ctx, a.Token)
	case domain.ObserverAuth:
		return s.observerSessionRepo.DeleteByToken(ctx, a.Token)
	default:
		return nil
	}
}
