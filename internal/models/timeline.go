package models

import (
	"time"
)

// Timeline is an AI-generated ordered list of events for a topic.
type Timeline struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Pid       string    `gorm:"uniqueIndex;size:8;not null" json:"pid"`
	Topic     string    `gorm:"not null" json:"topic"`
	Events    string    `gorm:"type:text;not null" json:"events"` // JSON array of {date, title, description}
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
