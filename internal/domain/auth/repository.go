package auth

import (
	"context"

	"github.com/guillermodiarte/crmsys/internal/core/id"
)

// UserRepository defines user storage operations.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves user by ID.
	GetByID(ctx context.Context, userID id.ID) (*User, error)

	// GetByEmail retrieves user by email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// List returns all users ordered by creation time.
	List(ctx context.Context) ([]User, error)

	// Update updates user data.
	Update(ctx context.Context, user *User) error

	// Delete removes a user. The caller enforces the last-user guard.
	Delete(ctx context.Context, userID id.ID) error

	// Exists checks if email is already registered.
	Exists(ctx context.Context, email string) (bool, error)

	// Count returns the number of registered users.
	Count(ctx context.Context) (int64, error)
}
