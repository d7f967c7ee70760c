package domain

import (
	"time"

	"github.com/google/uuid"
)

type OtpPurpose string

const (
	OtpPurposePhoneVerification OtpPurpose = "phone-verification"
	OtpPurposePasswordReset     OtpPurpose = "password-reset"
)

// OtpChallenge is one outstanding verification code. The composite unique
// index keeps at most one live challenge per (phone, purpose); issuing a new
// code upserts onto the same row.
type OtpChallenge struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Phone     string     `gorm:"type:text;not null;uniqueIndex:ux_otp_phone_purpose"`
	Purpose   OtpPurpose `gorm:"type:text;not null;uniqueIndex:ux_otp_phone_purpose"`
	CodeHash  string     `gorm:"type:text;not null"`
	ExpiresAt time.Time  `gorm:"not null;index"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
}

func (OtpChallenge) TableName() string { return "otp_challenges" }

// Expired challenges are inert: they must never validate even if the hash
// would still match.
func (c *OtpChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
