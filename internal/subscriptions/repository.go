// Package subscriptions provides the notification-subscription registry:
// consent records keyed by unique email and phone, their
// active → unsubscribed lifecycle and aggregate statistics.
package subscriptions

import (
	"context"

	"github.com/bissquit/notification-registry/internal/domain"
)

// Repository defines the persistence operations the registry relies on.
// Each operation must be atomic for a single record, and the store must
// enforce uniqueness of email and phone number on its own: Create returns
// ErrEmailSubscribed or ErrPhoneSubscribed when a constraint rejects the row.
type Repository interface {
	Create(ctx context.Context, sub *domain.Subscription) error
	GetByEmail(ctx context.Context, email string) (*domain.Subscription, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Subscription, error)
	// List returns records matching filter, newest subscribedAt first.
	List(ctx context.Context, filter Filter, limit, offset int) ([]domain.Subscription, error)
	Count(ctx context.Context, filter Filter) (int, error)
	// UpdateStatusByEmail sets the status and returns the updated record.
	UpdateStatusByEmail(ctx context.Context, email string, status domain.SubscriptionStatus) (*domain.Subscription, error)
	Delete(ctx context.Context, id string) error
}

// Filter narrows List and Count. Nil fields do not filter.
type Filter struct {
	Status           *domain.SubscriptionStatus
	AcceptPromotions *bool
}
