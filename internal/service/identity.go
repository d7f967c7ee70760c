package service

import "context"

// PhoneIdentityClaim is the verified result of a third-party phone identity
// assertion: proof that the current client controls Phone, plus any profile
// hints the provider bundled.
type PhoneIdentityClaim struct {
	Phone string
	Name  string
	Email string
}

// PhoneIdentityVerifier validates a client-obtained assertion token with the
// external identity provider. Implementations return (nil, nil) on an
// invalid or expired assertion and fail closed on any ambiguity.
type PhoneIdentityVerifier interface {
	VerifyAssertion(ctx context.Context, assertionToken string) (*PhoneIdentityClaim, error)
}

type BotCheckResult struct {
	Accepted   bool
	ErrorCodes []string
}

// BotCheckVerifier validates a client-side challenge-response artifact with
// the external bot-check service. Failures are reported in the result, never
// as transport-fatal errors.
type BotCheckVerifier interface {
	Verify(ctx context.Context, token, expectedAction string) BotCheckResult
}

// OtpDeliverer is the narrow "send OTP" boundary to the SMS vendor.
type OtpDeliverer interface {
	Deliver(ctx context.Context, phone, code string) error
}
