package model

import (
	"time"

	"habit-streaks/internal/schedule"
)

// Task is a recurring habit with a completion streak.
type Task struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"index;not null"`
	CategoryID  *uint  `gorm:"index"`
	Title       string `gorm:"not null"`
	Streak      int    `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Occurrences []Occurrence `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	Completions []Completion `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
}

// Occurrence is the next scheduled instance of one weekday rule of a task.
// There is exactly one row per (task, frequency); completing it moves DueAt forward.
type Occurrence struct {
	ID        uint             `gorm:"primaryKey"`
	TaskID    uint             `gorm:"not null;uniqueIndex:idx_task_frequency"`
	Frequency schedule.Weekday `gorm:"size:3;not null;uniqueIndex:idx_task_frequency"`
	DueAt     time.Time        `gorm:"not null;index"`
	Version   int              `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Occurrence) TableName() string {
	return "task_occurrences"
}

// Completion is an append-only record of a task being done.
type Completion struct {
	ID          uint      `gorm:"primaryKey"`
	TaskID      uint      `gorm:"index;not null"`
	CompletedAt time.Time `gorm:"not null"`
}

func (Completion) TableName() string {
	return "task_completions"
}
