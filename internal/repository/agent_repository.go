package repository

import (
	"context"

	"github.com/zenithstudio/agentfeed/internal/domain"
)

// AgentRepository manages rows in the agents table.
//
// Lookup methods return (nil, nil) when no row matches so callers can
// distinguish "absent" from a storage failure without unwrapping errors.
type AgentRepository interface {
	// Upsert inserts the agent or, on conflict, refreshes its name and
	// last_active and forces is_active back to true. Returns the row as
	// stored, including the authoritative ban flag.
	Upsert(ctx context.Context, agentID, name string) (*domain.Agent, error)

	GetByID(ctx context.Context, agentID string) (*domain.Agent, error)

	// List returns active, non-banned agents, optionally filtered by
	// specialty, newest first.
	List(ctx context.Context, specialty string, limit, offset int) ([]*domain.Agent, error)

	// ListAll returns every agent, banned and inactive included, newest
	// first. Admin-only.
	ListAll(ctx context.Context) ([]*domain.Agent, error)

	// UpdateProfile applies a partial profile update and returns the
	// updated row, or (nil, nil) if the agent does not exist.
	UpdateProfile(ctx context.Context, agentID string, update domain.AgentProfileUpdate) (*domain.Agent, error)

	// SetBanned flips the ban flag and reports whether a row was updated.
	SetBanned(ctx context.Context, agentID string, banned bool) (bool, error)

	// TouchLastActive bumps last_active to now. Called fire-and-forget
	// from the auth resolver; failures are logged, never surfaced.
	TouchLastActive(ctx context.Context, agentID string) error
}
