package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/notification-registry/internal/domain"
	"github.com/bissquit/notification-registry/internal/pkg/contact"
	"github.com/bissquit/notification-registry/internal/pkg/ctxlog"
	"github.com/go-playground/validator/v10"
)

// maxPhoneDigits is the width of users.phone.
const maxPhoneDigits = 32

// RegisterInput contains data for user registration.
type RegisterInput struct {
	FirstName string `validate:"required,max=255"`
	LastName  string `validate:"required,max=255"`
	Email     string `validate:"required,max=320"`
	Phone     string
}

// Service provides user registration business logic.
type Service struct {
	repo      Repository
	validator *validator.Validate
	now       func() time.Time
}

// NewService creates a new users service.
func NewService(repo Repository) *Service {
	return &Service{
		repo:      repo,
		validator: validator.New(),
		now:       time.Now,
	}
}

// Register creates a new user.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	input.FirstName = contact.NormalizeName(input.FirstName)
	input.LastName = contact.NormalizeName(input.LastName)
	input.Email = contact.NormalizeEmail(input.Email)

	if err := s.validator.Struct(input); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			for _, fe := range validationErrs {
				if fe.Tag() == "required" {
					return nil, ErrFieldsRequired
				}
			}
			return nil, ErrFieldTooLong
		}
		return nil, fmt.Errorf("validate user: %w", err)
	}

	if err := s.validator.Var(input.Email, "email"); err != nil {
		return nil, ErrInvalidEmail
	}

	phone := contact.NormalizePhone(input.Phone)
	if len(phone) > maxPhoneDigits {
		return nil, ErrInvalidPhone
	}

	_, err := s.repo.GetByEmail(ctx, input.Email)
	switch {
	case err == nil:
		return nil, ErrUserExists
	case !errors.Is(err, ErrUserNotFound):
		return nil, fmt.Errorf("check email: %w", err)
	}

	user := &domain.User{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     phone,
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("user registered", "user_id", user.ID)
	return user, nil
}
