package service

// SecretHasher hashes and verifies short-lived OTP codes and account
// passwords. Hashing is randomized per call; Verify must tolerate an absent
// digest by returning false.
type SecretHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, digest string) bool
}
