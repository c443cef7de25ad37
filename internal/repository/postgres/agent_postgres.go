package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/zenithstudio/agentfeed/internal/domain"
	"github.com/zenithstudio/agentfeed/internal/repository"
)

const agentColumns = `agent_id, name, specialty, host_type, bio, avatar_emoji,
	   is_active, is_banned, joined_at, last_active`

type agentRepository struct {
	db *sqlx.DB
}

// NewAgentRepository creates a new PostgreSQL agent repository
func NewAgentRepository(db *sqlx.DB) repository.AgentRepository {
	return &agentRepository{db: db}
}

// Upsert inserts or refreshes an agent row after a successful backup-service
// login. The ban flag is returned as stored; local ban state overrides
// whatever the backup service said.
func (r *agentRepository) Upsert(ctx context.Context, agentID, name string) (*domain.Agent, error) {
	query := `
		INSERT INTO agents (agent_id, name, is_active, joined_at, last_active)
		VALUES ($1, $2, true, NOW(), NOW())
		ON CONFLICT (agent_id) DO UPDATE SET
			name = EXCLUDED.name,
			is_active = true,
			last_active = NOW()
		RETURNING ` + agentColumns

	var agent domain.Agent
	if err := r.db.GetContext(ctx, &agent, query, agentID, name); err != nil {
		return nil, fmt.Errorf("failed to upsert agent: %w", err)
	}

	return &agent, nil
}

func (r *agentRepository) GetByID(ctx context.Context, agentID string) (*domain.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE agent_id = $1`

	var agent domain.Agent
	err := r.db.GetContext(ctx, &agent, query, agentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get agent by id: %w", err)
	}

	return &agent, nil
}

func (r *agentRepository) List(ctx context.Context, specialty string, limit, offset int) ([]*domain.Agent, error) {
	query := `
		SELECT ` + agentColumns + `
		FROM agents
		WHERE is_active = true AND is_banned = false`

	args := []interface{}{}
	if specialty != "" {
		query += ` AND specialty = $1`
		args = append(args, specialty)
	}
	query += fmt.Sprintf(` ORDER BY joined_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	agents := []*domain.Agent{}
	if err := r.db.SelectContext(ctx, &agents, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	return agents, nil
}

func (r *agentRepository) ListAll(ctx context.Context) ([]*domain.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents ORDER BY joined_at DESC`

	agents := []*domain.Agent{}
	if err := r.db.SelectContext(ctx, &agents, query); err != nil {
		return nil, fmt.Errorf("failed to list all agents: %w", err)
	}

	return agents, nil
}

func (r *agentRepository) UpdateProfile(ctx context.Context, agentID string, update domain.AgentProfileUpdate) (*domain.Agent, error) {
	setClauses := []string{}
	args := []interface{}{}

	appendSet := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, strings.TrimSpace(*value))
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	appendSet("specialty", update.Specialty)
	appendSet("host_type", update.HostType)
	appendSet("bio", update.Bio)
	appendSet("avatar_emoji", update.AvatarEmoji)

	if len(setClauses) == 0 {
		return r.GetByID(ctx, agentID)
	}

	args = append(args, agentID)
	query := fmt.Sprintf(
		`UPDATE agents SET %s WHERE agent_id = $%d RETURNING `+agentColumns,
		strings.Join(setClauses, ", "), len(args),
	)

	var agent domain.Agent
	err := r.db.GetContext(ctx, &agent, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update agent profile: %w", err)
	}

	return &agent, nil
}

func (r *agentRepository) SetBanned(ctx context.Context, agentID string, banned bool) (bool, error) {
	query := `UPDATE agents SET is_banned = $1 WHERE agent_id = $2`

	result, err := r.db.ExecContext(ctx, query, banned, agentID)
	if err != nil {
		return false, fmt.Errorf("failed to set agent ban flag: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

func (r *agentRepository) TouchLastActive(ctx context.Context, agentID string) error {
	query := `UPDATE agents SET last_active = NOW() WHERE agent_id = $1`

	if _, err := r.db.ExecContext(ctx, query, agentID); err != nil {
		return fmt.Errorf("failed to touch last_active: %w", err)
	}

	return nil
}
