package models

import (
	"time"
)

// Chart types an insight may carry.
const (
	ChartBar  = "bar"
	ChartLine = "line"
	ChartPie  = "pie"
)

// Insight is an AI-generated data story: a chart spec plus commentary.
type Insight struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Pid        string    `gorm:"uniqueIndex;size:8;not null" json:"pid"`
	Title      string    `gorm:"not null" json:"title"`
	ChartType  string    `gorm:"size:10;not null" json:"chart_type"` // bar, line, pie
	Series     string    `gorm:"type:text;not null" json:"series"`   // JSON array of {label, value}
	Commentary string    `gorm:"type:text" json:"commentary"`
	SourceType string    `gorm:"size:10;default:'flow'" json:"source_type"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
