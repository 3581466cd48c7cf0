package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewPid returns a short public identifier for content rows. Collisions are
// caught by the unique index on the pid column.
func NewPid() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
