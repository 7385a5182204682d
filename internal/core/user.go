package core

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that owns subscriptions. Every subscription query is
// scoped to an owner id so users only ever see their own rows.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

// NewUser creates a user with a fresh id.
func NewUser(email, displayName, passwordHash string) *User {
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
}
