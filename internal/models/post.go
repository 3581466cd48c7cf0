package models

import (
	"time"
)

// Partition is the logical bucket a post lives in. Moving a post from the
// feed into the pinned "topic of the day" bucket is a relocate-by-copy
// operation, never an in-place flip.
type Partition string

const (
	PartitionFeed   Partition = "feed"
	PartitionPinned Partition = "pinned"
)

// Post source types. Flow-authored posts are written by a generation flow
// and are never deleted when pinned, only re-created in the pinned bucket.
const (
	SourceUser = "user"
	SourceFlow = "flow"
)

type Post struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Pid        string    `gorm:"uniqueIndex;size:8;not null" json:"pid"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	User       User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	Partition  Partition `gorm:"size:10;not null;default:'feed';index" json:"partition"`
	Headline   string    `gorm:"not null" json:"headline"`
	Content    string    `gorm:"type:text" json:"content"` // markdown source
	ImageURL   string    `json:"image_url,omitempty"`
	Likes      int       `gorm:"default:0" json:"likes"` // derived cache of the like relation, reconciled per session
	SourceType string    `gorm:"size:10;default:'user'" json:"source_type"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Poll *Poll `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"poll,omitempty"`

	// Not a database field, filled in on detail reads
	RenderedContent string `gorm:"-" json:"rendered_content,omitempty"`
}
