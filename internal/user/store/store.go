// Package store persists user accounts.
package store

import (
	"context"

	"inkwell/internal/user/models"
)

// Error Contract:
// - Return sentinel.ErrNotFound when the requested user does not exist
// - Return sentinel.ErrConflict on username/email uniqueness collisions
// - Return wrapped errors with context for infrastructure failures
type Store interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, int, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error

	// Credentials fetches the login slice by username.
	Credentials(ctx context.Context, username string) (models.Credentials, error)
	// Exists reports whether the user id is present.
	Exists(ctx context.Context, id int64) (bool, error)
}
