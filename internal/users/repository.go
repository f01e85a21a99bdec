// Package users provides user registration.
package users

import (
	"context"

	"github.com/bissquit/notification-registry/internal/domain"
)

// Repository defines the data access interface for users. Create returns
// ErrUserExists when the store rejects a duplicate email.
type Repository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
