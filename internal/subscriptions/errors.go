package subscriptions

import "errors"

// Validation errors.
var (
	ErrFieldsRequired    = errors.New("all fields are required")
	ErrFieldTooLong      = errors.New("field exceeds maximum length")
	ErrConsentRequired   = errors.New("must accept notifications")
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrInvalidPhone      = errors.New("phone number has no digits")
	ErrInvalidStatus     = errors.New("invalid status filter")
	ErrInvalidPagination = errors.New("page and limit must be positive integers")
)

// Conflict errors.
var (
	ErrEmailSubscribed = errors.New("email already subscribed")
	ErrPhoneSubscribed = errors.New("phone already subscribed")
)

// Repository errors.
var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

var domainErrors = []error{
	ErrFieldsRequired,
	ErrFieldTooLong,
	ErrConsentRequired,
	ErrInvalidEmail,
	ErrInvalidPhone,
	ErrInvalidStatus,
	ErrInvalidPagination,
	ErrEmailSubscribed,
	ErrPhoneSubscribed,
	ErrSubscriptionNotFound,
}

// isDomainError reports whether err is an expected, caller-caused failure
// rather than a storage or programming fault.
func isDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
