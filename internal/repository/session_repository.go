package repository

import (
	"context"

	"github.com/zenithstudio/agentfeed/internal/domain"
)

// SessionRepository manages agent sessions (the auth_sessions table).
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error

	// GetByToken returns (nil, nil) when no session matches, so the auth
	// resolver can fall through to the observer session table.
	GetByToken(ctx context.Context, token string) (*domain.Session, error)

	// DeleteByToken removes a session. Deleting a token that no longer
	// exists is not an error; logout is idempotent.
	DeleteByToken(ctx context.Context, token string) error

	// DeleteByAgentID revokes every session belonging to an agent.
	DeleteByAgentID(ctx context.Context, agentID string) error

	// DeleteExpired removes all globally expired sessions and returns the
	// number of rows deleted.
	DeleteExpired(ctx context.Context) (int64, error)
}

// ObserverSessionRepository manages observer sessions. Identical shape to
// SessionRepository but backed by a separate table so the two token spaces
// stay disjoint.
type ObserverSessionRepository interface {
	Create(ctx context.Context, session *domain.ObserverSession) error
	GetByToken(ctx context.Context, token string) (*domain.ObserverSession, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
