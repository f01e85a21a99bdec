// Package postgres provides PostgreSQL implementation of subscriptions repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/notification-registry/internal/domain"
	pgutil "github.com/bissquit/notification-registry/internal/pkg/postgres"
	"github.com/bissquit/notification-registry/internal/subscriptions"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Unique constraints declared by the subscriptions migration.
const (
	emailConstraint = "subscriptions_email_unique"
	phoneConstraint = "subscriptions_phone_number_unique"
)

const selectColumns = `
	id, first_name, last_name, email, phone_number,
	accept_notifications, accept_promotions, status, subscribed_at
`

// Repository implements subscriptions.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a subscription and fills its ID.
func (r *Repository) Create(ctx context.Context, sub *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			first_name, last_name, email, phone_number,
			accept_notifications, accept_promotions, status, subscribed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		sub.FirstName,
		sub.LastName,
		sub.Email,
		sub.PhoneNumber,
		sub.AcceptNotifications,
		sub.AcceptPromotions,
		sub.Status,
		sub.SubscribedAt,
	).Scan(&sub.ID)
	if err != nil {
		if constraint, ok := pgutil.UniqueViolation(err); ok {
			switch constraint {
			case emailConstraint:
				return subscriptions.ErrEmailSubscribed
			case phoneConstraint:
				return subscriptions.ErrPhoneSubscribed
			}
		}
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

// GetByEmail retrieves a subscription by its normalized email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*domain.Subscription, error) {
	query := `SELECT ` + selectColumns + ` FROM subscriptions WHERE email = $1`
	sub, err := scanSubscription(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("get subscription by email: %w", err)
	}
	return sub, nil
}

// GetByPhone retrieves a subscription by its digits-only phone number.
func (r *Repository) GetByPhone(ctx context.Context, phone string) (*domain.Subscription, error) {
	query := `SELECT ` + selectColumns + ` FROM subscriptions WHERE phone_number = $1`
	sub, err := scanSubscription(r.db.QueryRow(ctx, query, phone))
	if err != nil {
		return nil, fmt.Errorf("get subscription by phone: %w", err)
	}
	return sub, nil
}

// List retrieves a page of subscriptions ordered by subscribed_at descending.
func (r *Repository) List(ctx context.Context, filter subscriptions.Filter, limit, offset int) ([]domain.Subscription, error) {
	where, args := buildWhere(filter)
	query := `SELECT ` + selectColumns + ` FROM subscriptions` + where +
		` ORDER BY subscribed_at DESC, id`

	argNum := len(args) + 1
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, limit)
		argNum++
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		result = append(result, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}

	return result, nil
}

// Count returns the number of subscriptions matching filter.
func (r *Repository) Count(ctx context.Context, filter subscriptions.Filter) (int, error) {
	where, args := buildWhere(filter)
	query := `SELECT COUNT(*) FROM subscriptions` + where

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count subscriptions: %w", err)
	}
	return count, nil
}

// UpdateStatusByEmail sets the status of the subscription with email and
// returns the updated row.
func (r *Repository) UpdateStatusByEmail(ctx context.Context, email string, status domain.SubscriptionStatus) (*domain.Subscription, error) {
	query := `
		UPDATE subscriptions SET status = $2
		WHERE email = $1
		RETURNING ` + selectColumns
	sub, err := scanSubscription(r.db.QueryRow(ctx, query, email, status))
	if err != nil {
		return nil, fmt.Errorf("update subscription status: %w", err)
	}
	return sub, nil
}

// Delete removes a subscription by ID.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	if result.RowsAffected() == 0 {
		return subscriptions.ErrSubscriptionNotFound
	}
	return nil
}

func buildWhere(filter subscriptions.Filter) (string, []interface{}) {
	where := " WHERE 1=1"
	args := []interface{}{}
	argNum := 1

	if filter.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, *filter.Status)
		argNum++
	}

	if filter.AcceptPromotions != nil {
		where += fmt.Sprintf(" AND accept_promotions = $%d", argNum)
		args = append(args, *filter.AcceptPromotions)
	}

	return where, args
}

// scanSubscription scans one row. pgx.ErrNoRows becomes
// subscriptions.ErrSubscriptionNotFound.
func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := row.Scan(
		&sub.ID,
		&sub.FirstName,
		&sub.LastName,
		&sub.Email,
		&sub.PhoneNumber,
		&sub.AcceptNotifications,
		&sub.AcceptPromotions,
		&sub.Status,
		&sub.SubscribedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, subscriptions.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}
