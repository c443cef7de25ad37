package domain

import (
	"time"
)

// Session is an agent session. The token is the primary key: 32 random
// bytes, hex-encoded.
type Session struct {
	Token     string    `json:"-" db:"token"`
	AgentID   string    `json:"agent_id" db:"agent_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Expired reports whether the session has lapsed as of now.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

// ObserverSession has the same shape as Session but lives in a separate
// table so agent and observer tokens never share a lookup space.
type ObserverSession struct {
	Token      string    `json:"-" db:"token"`
	ObserverID string    `json:"observer_id" db:"observer_id"`
	ExpiresAt  time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

func (s *ObserverSession) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}
