package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bissquit/notification-registry/internal/domain"
	"github.com/bissquit/notification-registry/internal/pkg/contact"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Pagination defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Column widths of the subscriptions table.
const (
	MaxNameLength  = 255
	MaxEmailLength = 320
	MaxPhoneDigits = 32
)

// SubscribeInput is the raw subscription request.
type SubscribeInput struct {
	FirstName           string `validate:"required,max=255"`
	LastName            string `validate:"required,max=255"`
	Email               string `validate:"required,max=320"`
	PhoneNumber         string `validate:"required"`
	AcceptNotifications bool
	AcceptPromotions    *bool
}

// ListInput selects a page of subscriptions. Zero values take defaults.
type ListInput struct {
	Page   int
	Limit  int
	Status domain.SubscriptionStatus
}

// ListResult is a page of subscriptions.
type ListResult struct {
	Subscriptions []domain.Subscription
	Total         int
	Page          int
	Pages         int
}

// Service provides subscription business logic.
type Service struct {
	repo      Repository
	validator *validator.Validate
	now       func() time.Time
}

// NewService creates a new subscriptions service.
func NewService(repo Repository) *Service {
	return &Service{
		repo:      repo,
		validator: validator.New(),
		now:       time.Now,
	}
}

// Subscribe validates and normalizes the input and stores a new active
// subscription. Email is checked for uniqueness before phone.
func (s *Service) Subscribe(ctx context.Context, input SubscribeInput) (sub *domain.Subscription, err error) {
	defer func() { recordOperation("subscribe", err) }()

	sub, err = s.newSubscription(input)
	if err != nil {
		return nil, err
	}

	if err := s.ensureUnique(ctx, sub); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}

	return sub, nil
}

// newSubscription builds the record to store. Nothing reaches the repository
// unless required fields, consent and formats are valid.
func (s *Service) newSubscription(input SubscribeInput) (*domain.Subscription, error) {
	input.FirstName = contact.NormalizeName(input.FirstName)
	input.LastName = contact.NormalizeName(input.LastName)
	input.Email = contact.NormalizeEmail(input.Email)

	if err := s.validator.Struct(input); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return nil, fieldError(validationErrs)
		}
		return nil, fmt.Errorf("validate subscription: %w", err)
	}

	if !input.AcceptNotifications {
		return nil, ErrConsentRequired
	}

	if err := s.validator.Var(input.Email, "email"); err != nil {
		return nil, ErrInvalidEmail
	}

	phone := contact.NormalizePhone(input.PhoneNumber)
	if phone == "" || len(phone) > MaxPhoneDigits {
		return nil, ErrInvalidPhone
	}

	acceptPromotions := false
	if input.AcceptPromotions != nil {
		acceptPromotions = *input.AcceptPromotions
	}

	return &domain.Subscription{
		FirstName:           input.FirstName,
		LastName:            input.LastName,
		Email:               input.Email,
		PhoneNumber:         phone,
		AcceptNotifications: true,
		AcceptPromotions:    acceptPromotions,
		Status:              domain.SubscriptionStatusActive,
		// Postgres keeps microseconds.
		SubscribedAt: s.now().UTC().Truncate(time.Microsecond),
	}, nil
}

// fieldError reports a missing field ahead of an oversized one.
func fieldError(errs validator.ValidationErrors) error {
	for _, fe := range errs {
		if fe.Tag() == "required" {
			return ErrFieldsRequired
		}
	}
	return ErrFieldTooLong
}

// ensureUnique is the fast path for duplicate detection. The store's
// constraints remain authoritative for concurrent requests.
func (s *Service) ensureUnique(ctx context.Context, sub *domain.Subscription) error {
	_, err := s.repo.GetByEmail(ctx, sub.Email)
	switch {
	case err == nil:
		return ErrEmailSubscribed
	case !errors.Is(err, ErrSubscriptionNotFound):
		return fmt.Errorf("check email: %w", err)
	}

	_, err = s.repo.GetByPhone(ctx, sub.PhoneNumber)
	switch {
	case err == nil:
		return ErrPhoneSubscribed
	case !errors.Is(err, ErrSubscriptionNotFound):
		return fmt.Errorf("check phone: %w", err)
	}

	return nil
}

// ListSubscriptions returns a page of subscriptions with the given status,
// newest first.
func (s *Service) ListSubscriptions(ctx context.Context, input ListInput) (*ListResult, error) {
	page, limit := input.Page, input.Limit
	if page < 0 || limit < 0 {
		return nil, ErrInvalidPagination
	}
	if page == 0 {
		page = DefaultPage
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	status := input.Status
	if status == "" {
		status = domain.SubscriptionStatusActive
	}
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	if page-1 > math.MaxInt/limit {
		return nil, ErrInvalidPagination
	}

	filter := Filter{Status: &status}

	items, err := s.repo.List(ctx, filter, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Subscriptions: items,
		Total:         total,
		Page:          page,
		Pages:         (total + limit - 1) / limit,
	}, nil
}

// GetByEmail returns the subscription registered for email.
func (s *Service) GetByEmail(ctx context.Context, email string) (*domain.Subscription, error) {
	return s.repo.GetByEmail(ctx, contact.NormalizeEmail(email))
}

// Unsubscribe moves the subscription for email to unsubscribed. Calling it
// on an already unsubscribed record succeeds and changes nothing.
func (s *Service) Unsubscribe(ctx context.Context, email string) (sub *domain.Subscription, err error) {
	defer func() { recordOperation("unsubscribe", err) }()

	return s.repo.UpdateStatusByEmail(ctx, contact.NormalizeEmail(email), domain.SubscriptionStatusUnsubscribed)
}

// DeleteSubscription permanently removes a subscription. Malformed ids are
// reported as not found.
func (s *Service) DeleteSubscription(ctx context.Context, id string) (err error) {
	defer func() { recordOperation("delete", err) }()

	if _, err := uuid.Parse(id); err != nil {
		return ErrSubscriptionNotFound
	}
	return s.repo.Delete(ctx, id)
}

// GetStats aggregates subscriber counts and the promotion opt-in share of
// active subscribers.
func (s *Service) GetStats(ctx context.Context) (*domain.SubscriptionStats, error) {
	active := domain.SubscriptionStatusActive
	unsubscribed := domain.SubscriptionStatusUnsubscribed
	promotions := true

	totalActive, err := s.repo.Count(ctx, Filter{Status: &active})
	if err != nil {
		return nil, fmt.Errorf("count active: %w", err)
	}

	totalUnsubscribed, err := s.repo.Count(ctx, Filter{Status: &unsubscribed})
	if err != nil {
		return nil, fmt.Errorf("count unsubscribed: %w", err)
	}

	optIn, err := s.repo.Count(ctx, Filter{Status: &active, AcceptPromotions: &promotions})
	if err != nil {
		return nil, fmt.Errorf("count promotion opt-in: %w", err)
	}

	stats := &domain.SubscriptionStats{
		TotalSubscribers:         totalActive,
		TotalUnsubscribed:        totalUnsubscribed,
		PromotionOptIn:           optIn,
		PromotionOptInPercentage: percentage(optIn, totalActive),
	}
	RecordStats(stats)

	return stats, nil
}

// percentage returns part/whole*100 rounded to two decimals, or 0 for an
// empty whole.
func percentage(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*100*100) / 100
}
