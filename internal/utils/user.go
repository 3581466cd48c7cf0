package utils

import (
	"time"
)

// BadgeForPoints returns the badge tag shown next to a user's handle for a
// given point balance.
func BadgeForPoints(points int) (name string, icon string) {
	switch {
	case points >= 1000:
		return "editor-at-large", "🖋️"
	case points >= 250:
		return "columnist", "📰"
	case points >= 50:
		return "contributor", "✍️"
	case points >= 10:
		return "regular", "📖"
	default:
		return "reader", "🔖"
	}
}

// GetDaysSinceJoined counts whole days since the account was created.
func GetDaysSinceJoined(createdAt time.Time) int {
	return int(time.Since(createdAt).Hours() / 24)
}
