// Package postgres provides PostgreSQL implementation of users repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/notification-registry/internal/domain"
	pgutil "github.com/bissquit/notification-registry/internal/pkg/postgres"
	"github.com/bissquit/notification-registry/internal/users"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const emailConstraint = "users_email_unique"

// Repository implements users.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a user and fills its ID.
func (r *Repository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (first_name, last_name, email, phone, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Phone,
		user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		if constraint, ok := pgutil.UniqueViolation(err); ok && constraint == emailConstraint {
			return users.ErrUserExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetByEmail retrieves a user by normalized email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, first_name, last_name, email, phone, created_at
		FROM users
		WHERE email = $1
	`
	var user domain.User
	err := r.db.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Phone,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &user, nil
}
