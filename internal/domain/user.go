package domain

import "time"

type User struct {
	ID              UserID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string    `gorm:"type:text" json:"name,omitempty"`
	Email           *string   `gorm:"type:citext;uniqueIndex:ux_users_email,where:email IS NOT NULL" json:"email,omitempty"`
	Phone           string    `gorm:"type:text;not null;uniqueIndex:ux_users_phone" json:"phone"`
	PasswordHash    *string   `gorm:"type:text" json:"-"`
	Roles           RoleList  `gorm:"type:jsonb;serializer:json" json:"roles"`
	ActiveRole      Role      `gorm:"type:text" json:"activeRole,omitempty"`
	IsActive        bool      `gorm:"not null;default:true" json:"isActive"`
	IsPhoneVerified bool      `gorm:"not null;default:false" json:"isPhoneVerified"`
	CreatedAt       time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"not null" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// HasPassword reports whether the account finished password setup. Accounts
// without one cannot use password login.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
