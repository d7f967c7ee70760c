package domain

import "errors"

var (
	ErrInvalidCredentials  = errors.New("invalid phone or password")
	ErrPhoneNotVerified    = errors.New("phone not verified")
	ErrAccountDeactivated  = errors.New("account is deactivated")
	ErrAlreadyRegistered   = errors.New("phone number already registered")
	ErrEmailInUse          = errors.New("email already in use")
	ErrNotRegistered       = errors.New("phone number not registered")
	ErrInvalidOrExpiredOtp = errors.New("invalid or expired otp")
	ErrInvalidRole         = errors.New("invalid role")
	ErrRoleNotGranted      = errors.New("role not granted")
	ErrPasswordTooShort    = errors.New("password must be at least 6 characters")
	ErrAssertionRejected   = errors.New("phone identity assertion rejected")
	ErrAssertionNoPhone    = errors.New("phone number not found in assertion")
)
