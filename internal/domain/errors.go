package domain

import "errors"

// Error kinds surfaced by the core services. Handlers map these onto the
// HTTP status contract; anything unrecognized becomes a 500.
var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicate          = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrNotGuestBooking    = errors.New("booking is not a guest booking")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrUnauthorizedRole   = errors.New("insufficient role")
)
