package models

import (
	"time"
)

// Like is a relation record: its existence is the source of truth for "has
// this user liked this post". The post's like counter is a derived cache.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_like_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;index;uniqueIndex:idx_like_user_post" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}
