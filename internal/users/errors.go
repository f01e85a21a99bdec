package users

import "errors"

// Validation errors.
var (
	ErrFieldsRequired = errors.New("missing required fields")
	ErrFieldTooLong   = errors.New("field exceeds maximum length")
	ErrInvalidEmail   = errors.New("invalid email address")
	ErrInvalidPhone   = errors.New("phone number too long")
)

// Conflict and lookup errors.
var (
	ErrUserExists   = errors.New("user already registered")
	ErrUserNotFound = errors.New("user not found")
)
