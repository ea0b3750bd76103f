package entity

import (
	"database/sql"
	"time"
)

// TaskCompletion records that a user has completed a task. A task counts at
// most once per user.
type TaskCompletion struct {
	UserID       string `gorm:"primaryKey"`
	TaskID       string `gorm:"primaryKey"`
	AttractionID string `gorm:"index"`
	CreatedAt    time.Time
}

type AttractionProgress struct {
	UserID         string `gorm:"primaryKey"`
	AttractionID   string `gorm:"primaryKey"`
	CompletedTasks int
	TotalTasks     int
	Percentage     int
	Unlocked       bool
	CompletedAt    sql.NullTime
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CategoryProgress only stores the tier flags. The completion percentage is
// always derived from the attraction progress rows.
type CategoryProgress struct {
	UserID         string `gorm:"primaryKey"`
	CategoryID     string `gorm:"primaryKey"`
	BronzeUnlocked bool
	SilverUnlocked bool
	GoldUnlocked   bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
