package models

import (
	"time"
)

// RefreshToken stores refresh tokens for users
type RefreshToken struct {
	BaseModel
	UserID    uint      `gorm:"index;not null" json:"userId"`
	Token     string    `gorm:"size:512;uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	IsRevoked bool      `gorm:"default:false" json:"isRevoked"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
