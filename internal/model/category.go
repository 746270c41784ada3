package model

import "time"

// Category labels a user's tasks. Names are unique per user only.
type Category struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_user_category_name"`
	Name      string `gorm:"size:64;not null;uniqueIndex:idx_user_category_name"`
	CreatedAt time.Time
}
