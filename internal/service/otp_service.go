package service

import (
	"context"

	"vaanikaam/internal/domain"
)

type OtpOutcome string

const (
	OtpValid    OtpOutcome = "valid"
	OtpExpired  OtpOutcome = "expired"
	OtpNotFound OtpOutcome = "not_found"
	OtpMismatch OtpOutcome = "mismatch"
)

type OtpService interface {
	// Issue generates a fresh 6-digit code, superseding any prior live
	// challenge for (phone, purpose), and returns the plaintext for
	// out-of-band delivery only.
	Issue(ctx context.Context, phone string, purpose domain.OtpPurpose) (string, error)

	// Verify reports the state of the live challenge without consuming it.
	Verify(ctx context.Context, phone string, purpose domain.OtpPurpose, candidate string) (OtpOutcome, error)

	// Consume deletes all challenges for (phone, purpose), reporting whether
	// any row existed.
	Consume(ctx context.Context, phone string, purpose domain.OtpPurpose) (bool, error)

	// VerifyAndConsume runs Verify and, when valid, Consume inside one
	// transaction so a matching code can be redeemed at most once.
	VerifyAndConsume(ctx context.Context, phone string, purpose domain.OtpPurpose, candidate string) (OtpOutcome, error)
}
