package identity

import (
	"context"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// Update updates an existing user
	Update(ctx context.Context, user *User) error

	// Delete deletes a user by ID
	Delete(ctx context.Context, id int64) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id int64) (*User, error)

	// FindByEmail finds a user by normalized email
	FindByEmail(ctx context.Context, email string) (*User, error)

	// ExistsByEmail checks if an email is already registered
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
