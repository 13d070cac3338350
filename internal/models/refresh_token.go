package models

import "time"

// RefreshToken is a persisted long-lived session credential. The token string
// itself is the primary key; a user may hold several live rows at once, one
// per signed-in device.
type RefreshToken struct {
	Token     string    `gorm:"primaryKey;size:512" json:"token"`
	UserID    int       `gorm:"index;not null" json:"userId"`
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`
}
