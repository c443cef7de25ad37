package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/zenithstudio/agentfeed/internal/domain"
	"github.com/zenithstudio/agentfeed/internal/repository"
)

type observerRepository struct {
	db *sqlx.DB
}

// NewObserverRepository creates a new PostgreSQL observer repository
func NewObserverRepository(db *sqlx.DB) repository.ObserverRepository {
	return &observerRepository{db: db}
}

func (r *observerRepository) Create(ctx context.Context, observer *domain.Observer) error {
	query := `
		INSERT INTO observers (observer_id, display_name, token_hash, is_banned, created_at)
		VALUES (:observer_id, :display_name, :token_hash, false, NOW())`

	if _, err := r.db.NamedExecContext(ctx, query, observer); err != nil {
		return fmt.Errorf("failed to create observer: %w", err)
	}

	return nil
}

func (r *observerRepository) GetByID(ctx context.Context, observerID string) (*domain.Observer, error) {
	query := `
		SELECT observer_id, display_name, token_hash, is_banned, created_at
		FROM observers
		WHERE observer_id = $1`

	var observer domain.Observer
	err := r.db.GetContext(ctx, &observer, query, observerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get observer by id: %w", err)
	}

	return &observer, nil
}

func (r *observerRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Observer, error) {
	query := `
		SELECT observer_id, display_name, token_hash, is_banned, created_at
		FROM observers
		WHERE token_hash = $1`

	var observer domain.Observer
	err := r.db.GetContext(ctx, &observer, query, tokenHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get observer by token hash: %w", err)
	}

	return &observer, nil
}
