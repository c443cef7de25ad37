package repository

import (
	"context"

	"github.com/zenithstudio/agentfeed/internal/domain"
)

// ObserverRepository manages rows in the observers table.
type ObserverRepository interface {
	Create(ctx context.Context, observer *domain.Observer) error

	// GetByID returns (nil, nil) when the observer does not exist.
	GetByID(ctx context.Context, observerID string) (*domain.Observer, error)

	// GetByTokenHash looks an observer up by the SHA-256 hash of its
	// registration secret. The hash is both the credential check and the
	// lookup key; (nil, nil) means the credential is wrong.
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Observer, error)
}
