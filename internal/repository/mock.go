package repository

import (
	"context"
	"sync"
	"time"

	"github.com/zenithstudio/agentfeed/internal/domain"
)

// In-memory repository implementations used by unit and scenario tests.
// Every method honors ForcedErr so storage failures can be simulated.

// MockAgentRepository is an in-memory AgentRepository.
type MockAgentRepository struct {
	mu        sync.Mutex
	Agents    map[string]*domain.Agent
	ForcedErr error

	// Touched receives the agent_id of every TouchLastActive call, so
	// tests can observe the fire-and-forget last_active update.
	Touched chan string
}

func NewMockAgentRepository() *MockAgentRepository {
	return &MockAgentRepository{
		Agents:  make(map[string]*domain.Agent),
		Touched: make(chan string, 16),
	}
}

func (m *MockAgentRepository) Upsert(_ context.Context, agentID, name string) (*domain.Agent, error) {
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	agent, ok := m.Agents[agentID]
	if !ok {
		agent = &domain.Agent{AgentID: agentID, JoinedAt: now}
		m.Agents[agentID] = agent
	}
	agent.Name = name
	agent.IsActive = true
	agent.LastActive = now

	copied := *agent
	return &copied, nil
}

func (m *MockAgentRepository) GetByID(_ context.Context, agentID string) (*domain.Agent, error) {
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	agent, ok := m.Agents[agentID]
	if !ok {
		return nil, nil
	}
	copied := *agent
	return &copied, nil
}

func (m *MockAgentRepository) List(_ context.Context, specialty string, limit, offset int) ([]*domain.Agent, error) {
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	agents := []*domain.Agent{}
	for _, agent := range m.Agents {
		if !agent.IsActive || agent.IsBanned {
			continue
		}
		if specialty != "" && (agent.Specialty == nil || *agent.Specialty != specialty) {
			continue
		}
		copied := *agent
		agents = append(agents, &copied)
	}
	if offset >= len(agents) {
		return []*domain.Agent{}, nil
	}
	agents = agents[offset:]
	if limit > 0 && limit < len(agents) {
		agents = agents[:limit]
	}
	return agents, nil
}

func (m *MockAgentRepository) ListAll(_ context.Context) ([]*domain.Agent, error) {
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	agents := []*domain.Agent{}
	for _, agent := range m.Agents {
		copied := *agent
		agents = append(agents, &copied)
	}
	return agents, nil
}

func (m *MockAgentRepository) UpdateProfile(_ context.Context, agentID string, update domain.AgentProfileUpdate) (*domain.Agent, error) {
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	agent, ok := m.Agents[agentID]
	if !ok {
		return nil, nil
	}
	if update.Specialty != nil {
		agent.Specialty = update.Specialty
	}
	if update.HostType != nil {
		agent.HostType = update.HostType
	}
	if update.Bio != nil {
		agent.Bio = update.Bio
	}
	if update.AvatarEmoji != nil {
		agent.AvatarEmoji = update.AvatarEmoji
	}
	copied := *agent
	return &copied, nil
}

func (m *MockAgentRepository) SetBanned(_ context.Context, agentID string, banned bool) (bool, error) {
	if m.ForcedErr != nil {
		return false, m.ForcedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	agent, ok := m.Agents[agentID]
	if !ok {
		return false, nil
	}
	agent.IsBanned = banned
	return true, nil
}

func (m *MockAgentRepository) TouchLastActive(_ context.Context, agentID string) error {
	if m.ForcedErr != nil {
		return m.ForcedErr
	}
	m.mu.Lock()
	if agent, ok := m.Agents[agentID]; ok {
		agent.LastActive = time.Now()
	}
	m.mu.Unlock()

	select {
	case m.Touched <- agentID:
	default:
	}
	return nil
}

// MockObserverRepository is an in-memory ObserverRepository.
type MockObserverRepository struct {
	mu        sync.Mutex
	Observers map[string]*domain.Observer
	ForcedErr error
}

func NewMockObserverRepository() *MockObserverRepository {
	return &MockObserverRepository{Observers: make(map[string]*domain.Observer)}
}

func (m *MockObserverRepository) Create(_ context.Context, observer *domain.Observer) error {
	if m.ForcedErr != nil {
		return m.ForcedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *observer
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now()
	}
	m.Observers[observer.ObserverID] = &copied
	return nil
}

func (m *MockObserverRepository) GetByID(_ context.Context, observerID string) (*domain.Observer, error) {
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	observer, ok := m.Observers[observerID]
	if !ok {
		return nil, nil
	}
	copied := *observer
	return &copied, nil
}

func (m *MockObserverRepository) GetByTokenHash(_ context.Context, tokenHash string) (*domain.Observer, error) {
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, observer := range m.Observers {
		if observer.TokenHash == tokenHash {
			copied := *observer
			return &copied, nil
		}
	}
	return nil, nil
}

// MockSessionRepository is an in-memory SessionRepository keyed by token.
type MockSessionRepository struct {
	mu        sync.Mutex
	Sessions  map[string]*domain.Session
	ForcedErr error

	// SweptExpired receives one value per DeleteExpired call, so tests can
	// wait for the opportunistic cleanup goroutine.
	SweptExpired chan int64
}

func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{
		Sessions:     make(map[string]*domain.Session),
		SweptExpired: make(chan int64, 16),
	}
}

func (m *MockSessionRepository) Create(_ context.Context, session *domain.Session) error {
	if m.ForcedErr != nil {
		return m.ForcedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *session
	m.Sessions[session.Token] = &copied
	return nil
}

func (m *MockSessionRepository) GetByToken(_ context.Context, token string) (*domain.Session, error) {
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.Sessions[token]
	if !ok {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (m *MockSessionRepository) DeleteByToken(_ context.Context, token string) error {
	if m.ForcedErr != nil {
		return m.ForcedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.Sessions, token)
	return nil
}

func (m *MockSessionRepository) DeleteByAgentID(_ context.Context, agentID string) error {
	if m.ForcedErr != nil {
		return m.ForcedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for token, session := range m.Sessions {
		if session.AgentID == agentID {
			delete(m.Sessions, token)
		}
	}
	return nil
}

func (m *MockSessionRepository) DeleteExpired(_ context.Context) (int64, error) {
	if m.ForcedErr != nil {
		return 0, m.ForcedErr
	}
	m.mu.Lock()
	now := time.Now()
	var deleted int64
	for token, session := range m.Sessions {
		if session.Expired(now) {
			delete(m.Sessions, token)
			deleted++
		}
	}
	m.mu.Unlock()

	select {
	case m.SweptExpired <- deleted:
	default:
	}
	return deleted, nil
}

// MockObserverSessionRepository is an in-memory ObserverSessionRepository.
type MockObserverSessionRepository struct {
	mu        sync.Mutex
	Sessions  map[string]*domain.ObserverSession
	ForcedErr error
}

func NewMockObserverSessionRepository() *MockObserverSessionRepository {
	return &MockObserverSessionRepository{Sessions: make(map[string]*domain.ObserverSession)}
}

func (m *MockObserverSessionRepository) Create(_ context.Context, session *domain.ObserverSession) error {
	if m.ForcedErr != nil {
		return m.ForcedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *session
	m.Sessions[session.Token] = &copied
	return nil
}

func (m *MockObserverSessionRepository) GetByToken(_ context.Context, token string) (*domain.ObserverSession, error) {
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.Sessions[token]
	if !ok {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (m *MockObserverSessionRepository) DeleteByToken(_ context.Context, token string) error {
	if m.ForcedErr != nil {
		return m.ForcedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.Sessions, token)
	return nil
}

func (m *MockObserverSessionRepository) DeleteExpired(_ context.Context) (int64, error) {
	if m.ForcedErr != nil {
		return 0, m.ForcedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var deleted int64
	for token, session := range m.Sessions {
		if session.Expired(now) {
			delete(m.Sessions, token)
			deleted++
		}
	}
	return deleted, nil
}
