package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuditEvent struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    *UserID   `gorm:"type:uuid;index"`
	Action    string    `gorm:"type:text;not null"` // register, login, forgot-password, reset-password, add-role, switch-role
	Result    string    `gorm:"type:text;not null"` // success / failure
	Phone     string    `gorm:"type:text"`
	IP        string    `gorm:"type:text"`
	UserAgent string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null"`
}

func (AuditEvent) TableName() string { return "audit_events" }
