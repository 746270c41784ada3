package model

import "time"

// User owns tasks. It is known by email (API) and/or by Telegram ID (bot).
type User struct {
	ID         uint    `gorm:"primaryKey"`
	Email      *string `gorm:"uniqueIndex"`
	TelegramID *int64  `gorm:"uniqueIndex"`
	Name       string
	Username   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
