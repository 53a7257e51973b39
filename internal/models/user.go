package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	Base
	Name         string `gorm:"size:100;not null" json:"name"`
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`

	IsActive     bool `gorm:"default:true" json:"isActive"`
	IsSuperAdmin bool `gorm:"default:false" json:"isSuperAdmin"` // bypasses all permission checks

	AvatarURL string `gorm:"size:500" json:"avatarUrl"`
	Phone     string `gorm:"size:20" json:"phone"`

	LastLogin           *time.Time `json:"lastLogin"`
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time `json:"-"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Roles []Role `gorm:"many2many:user_roles" json:"roles,omitempty"`
}

// AuthToken is an opaque bearer token issued at login. Only the SHA-256
// digest of the token is stored.
type AuthToken struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time `json:"-"`

	TokenHash string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	UserID    string    `gorm:"type:varchar(36);not null;index" json:"-"`
	ExpiresAt time.Time `json:"-"`
}
