package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository persists writer accounts. Username and email lookups
// are case-insensitive; missing rows surface as shared.ErrNotFound.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	// Update saves credentials, lock state and the login counters
	Update(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	// ExistsByEmail is false for an empty email
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
