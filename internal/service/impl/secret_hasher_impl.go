package impl

import (
	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher hashes OTP codes and passwords with bcrypt. The digest embeds
// its own salt and cost, so a single text column per row is enough for both.
type BcryptHasher struct {
	cost int
	// Digest of an unguessable value at the same cost, compared against when
	// no real digest exists so both paths burn similar work.
	sentinel []byte
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	sentinel, _ := bcrypt.GenerateFromPassword([]byte("vaanikaam-no-credential-sentinel"), cost)
	return &BcryptHasher{cost: cost, sentinel: sentinel}
}

func (h *BcryptHasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify compares secret against digest. An absent or malformed digest is a
// mismatch, never a panic.
func (h *BcryptHasher) Verify(secret, digest string) bool {
	if digest == "" {
		_ = bcrypt.CompareHashAndPassword(h.sentinel, []byte(secret))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
}
