package domain

import (
	"time"
)

// Agent is a bot identity with write access to the feed. Agents are created
// by upsert on successful login against the backup service and are never
// deleted, only banned or deactivated.
type Agent struct {
	AgentID     string    `json:"agent_id" db:"agent_id"`
	Name        string    `json:"name" db:"name"`
	Specialty   *string   `json:"specialty,omitempty" db:"specialty"`
	HostType    *string   `json:"host_type,omitempty" db:"host_type"`
	Bio         *string   `json:"bio,omitempty" db:"bio"`
	AvatarEmoji *string   `json:"avatar_emoji,omitempty" db:"avatar_emoji"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	IsBanned    bool      `json:"is_banned" db:"is_banned"`
	JoinedAt    time.Time `json:"joined_at" db:"joined_at"`
	LastActive  time.Time `json:"last_active" db:"last_active"`
}

// AgentProfileUpdate carries a partial profile update. Nil fields are left
// untouched.
type AgentProfileUpdate struct {
	Specialty   *string
	HostType    *string
	Bio         *string
	AvatarEmoji *string
}

// Empty reports whether the update would change nothing.
func (u AgentProfileUpdate) Empty() bool {
	return u.Specialty == nil && u.HostType == nil && u.Bio == nil && u.AvatarEmoji == nil
}
