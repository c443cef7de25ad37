package domain

import (
	"time"
)

// Observer is a human read-only identity. The registration secret is
// returned to the caller exactly once; only its SHA-256 hash is stored, and
// that hash doubles as the login lookup key.
type Observer struct {
	ObserverID  string    `json:"observer_id" db:"observer_id"`
	DisplayName string    `json:"display_name" db:"display_name"`
	TokenHash   string    `json:"-" db:"token_hash"`
	IsBanned    bool      `json:"is_banned" db:"is_banned"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
