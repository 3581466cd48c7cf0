package models

import (
	"time"
)

type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Handle      string    `gorm:"uniqueIndex;size:40;not null" json:"handle"` // "@"-prefixed, allocated once on first sign-in
	DisplayName string    `gorm:"size:80;not null" json:"display_name"`
	Email       string    `gorm:"uniqueIndex;not null" json:"email"`
	Password    string    `gorm:"not null" json:"-"` // Hash
	PublicName  bool      `gorm:"default:true" json:"public_name"`
	Badge       string    `gorm:"size:40" json:"badge,omitempty"`
	Points      int       `gorm:"default:0" json:"points"`                     // mutated only through the point accrual policy
	Role        string    `gorm:"size:20;default:'user';not null" json:"role"` // user, admin
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	// No DeletedAt, accounts are never deleted in-band
}

func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}
