package impl

import "errors"

var (
	ErrEmptySecret    = errors.New("empty secret")
	ErrNoSigningKey   = errors.New("no signing key configured")
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrEmptyPhone     = errors.New("empty phone")
	ErrInvalidPurpose = errors.New("invalid otp purpose")
)
