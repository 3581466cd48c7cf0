package engagement

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"techink/internal/models"
	"techink/internal/store"
)

// handleAttempts bounds the random-suffix retry loop before the timestamp
// fallback kicks in.
const handleAttempts = 5

// HandleBase reduces a display name to the lowercase alphanumeric stem of a
// handle.
func HandleBase(displayName string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(displayName) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	base := b.String()
	if len(base) > 20 {
		base = base[:20]
	}
	if base == "" {
		base = "reader"
	}
	return base
}

// proposeHandle appends a random 3-digit suffix, "@ada123"-style.
func proposeHandle(base string) string {
	return fmt.Sprintf("@%s%d", base, 100+rand.Intn(900))
}

// fallbackHandle is the deterministic last resort after the bounded retries.
func fallbackHandle(base string) string {
	return fmt.Sprintf("@%s%d", base, time.Now().Unix()%100000)
}

// CreateAccount allocates a unique handle and creates the profile in one
// store write per attempt; the handle's unique key is the reservation. An
// insert conflict is a handle collision unless the email turns out to be
// taken, which happens when two signups for one address race past the
// handler's pre-check.
func CreateAccount(ctx context.Context, st store.Store, email, passwordHash, displayName string) (*models.User, error) {
	base := HandleBase(displayName)

	for i := 0; i < handleAttempts; i++ {
		user := &models.User{
			Handle:      proposeHandle(base),
			DisplayName: displayName,
			Email:       email,
			Password:    passwordHash,
			PublicName:  true,
			Points:      0,
		}
		err := st.CreateUser(ctx, user)
		if err == nil {
			return user, nil
		}
		if errors.Is(err, store.ErrAlreadyExists) {
			if _, lookupErr := st.GetUserByEmail(ctx, email); lookupErr == nil {
				return nil, ErrEmailTaken
			}
			continue
		}
		return nil, mapStoreErr(err)
	}

	// Graceful degradation rather than a hard signup failure
	user := &models.User{
		Handle:      fallbackHandle(base),
		DisplayName: displayName,
		Email:       email,
		Password:    passwordHash,
		PublicName:  true,
	}
	err := st.CreateUser(ctx, user)
	if err == nil {
		return user, nil
	}
	if errors.Is(err, store.ErrAlreadyExists) {
		if _, lookupErr := st.GetUserByEmail(ctx, email); lookupErr == nil {
			return nil, ErrEmailTaken
		}
		return nil, ErrHandleExhausted
	}
	return nil, mapStoreErr(err)
}
