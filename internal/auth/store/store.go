package store

import (
	"context"

	"keepsafe/internal/auth/models"
	dErrors "keepsafe/pkg/domain-errors"
)

var (
	// ErrNotFound keeps user-store 404s consistent across implementations.
	ErrNotFound = dErrors.New(dErrors.CodeNotFound, "user not found")
	// ErrDuplicateEmail surfaces unique-constraint violations on signup.
	ErrDuplicateEmail = dErrors.New(dErrors.CodeConflict, "an account with this email already exists")
)

// UserStore is interface-driven so services stay testable and the in-memory
// implementation can back dev mode without a database.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.User, error)
}
