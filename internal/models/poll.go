package models

import (
	"time"
)

// VotingWindow is how long a poll accepts votes, measured from the post's
// creation time. Checked as a soft guard only; the authoritative guard is
// the unique (user, post) vote key.
const VotingWindow = 24 * time.Hour

type Poll struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	PostID        uint         `gorm:"not null;uniqueIndex" json:"post_id"`
	AllowMultiple bool         `gorm:"default:false" json:"allow_multiple"`
	Options       []PollOption `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"options"`
	CreatedAt     time.Time    `json:"created_at"`
}

type PollOption struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	PollID   uint   `gorm:"not null;index" json:"poll_id"`
	Position int    `gorm:"not null" json:"position"`
	Label    string `gorm:"size:120;not null" json:"label"`
	Votes    int    `gorm:"default:0" json:"votes"`
}

// HasOption reports whether label is one of the poll's options.
func (p *Poll) HasOption(label string) bool {
	for _, o := range p.Options {
		if o.Label == label {
			return true
		}
	}
	return false
}

// ClosedAt returns the end of the voting window for the owning post.
func ClosedAt(postCreated time.Time) time.Time {
	return postCreated.Add(VotingWindow)
}
