package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/zenithstudio/agentfeed/internal/domain"
	"github.com/zenithstudio/agentfeed/internal/repository"
)

type observerSessionRepository struct {
	db *sqlx.DB
}

// NewObserverSessionRepository creates a new PostgreSQL observer session repository
func NewObserverSessionRepository(db *sqlx.DB) repository.ObserverSessionRepository {
	return &observerSessionRepository{db: db}
}

func (r *observerSessionRepository) Create(ctx context.Context, session *domain.ObserverSession) error {
	query := `
		INSERT INTO observer_sessions (token, observer_id, expires_at, created_at)
		VALUES (:token, :observer_id, :expires_at, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("failed to create observer session: %w", err)
	}

	return nil
}

func (r *observerSessionRepository) GetByToken(ctx context.Context, token string) (*domain.ObserverSession, error) {
	query := `
		SELECT token, observer_id, expires_at, created_at
		FROM observer_sessions
		WHERE token = $1`

	var session domain.ObserverSession
	err := r.db.GetContext(ctx, &session, query, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get observer session by token: %w", err)
	}

	return &session, nil
}

func (r *observerSessionRepository) DeleteByToken(ctx context.Context, token string) error {
	query := `DELETE FROM observer_sessions WHERE token = $1`

	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("failed to delete observer session: %w", err)
	}

	return nil
}

func (r *observerSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM observer_sessions WHERE expires_at < $1`

	result, err := r.db.ExecContext(ctx, query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired observer sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}
