package models

import (
	"strings"
	"time"
)

// VoteRecord captures the option(s) a user chose on a post's poll. The
// composite (user_id, post_id) key makes a second vote from the same account
// fail at the store, whatever the client believed.
type VoteRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_vote_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;index;uniqueIndex:idx_vote_user_post" json:"post_id"`
	Options   string    `gorm:"size:500;not null" json:"options"` // chosen option labels, comma separated
	CreatedAt time.Time `json:"created_at"`
}

func (v *VoteRecord) OptionList() []string {
	if v.Options == "" {
		return nil
	}
	return strings.Split(v.Options, ",")
}

func JoinOptions(options []string) string {
	return strings.Join(options, ",")
}

// UniqueOptions drops repeated labels, keeping first-seen order. One voter
// adds at most one to any option counter.
func UniqueOptions(options []string) []string {
	seen := make(map[string]struct{}, len(options))
	out := options[:0:0]
	for _, label := range options {
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}
