package engagement

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"techink/internal/models"
	"techink/internal/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleBase(t *testing.T) {
	assert.Equal(t, "ada", HandleBase("Ada"))
	assert.Equal(t, "adalovelace", HandleBase("Ada Lovelace!"))
	assert.Equal(t, "reader", HandleBase("!!!"))
	assert.Equal(t, "reader", HandleBase(""))
	// Long names are truncated to the stem limit
	assert.Len(t, HandleBase("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), 20)
}

func TestProposeHandleShape(t *testing.T) {
	re := regexp.MustCompile(`^@ada\d{3}$`)
	for i := 0; i < 50; i++ {
		assert.Regexp(t, re, proposeHandle("ada"))
	}
}

func TestFirstSignInScenario(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	user, err := CreateAccount(ctx, st, "ada@example.com", "hash", "Ada")
	require.NoError(t, err)

	assert.Regexp(t, `^@ada\d{3}$`, user.Handle)
	assert.Equal(t, 0, user.Points)
	assert.True(t, user.PublicName)
	assert.Equal(t, "Ada", user.DisplayName)
}

func TestCollidingBasesAlwaysTerminate(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		user, err := CreateAccount(ctx, st, fmt.Sprintf("ada%d@example.com", i), "hash", "Ada")
		require.NoError(t, err)
		assert.False(t, seen[user.Handle], "handle %s allocated twice", user.Handle)
		seen[user.Handle] = true
	}
}

func TestHandleFallbackWhenSuffixSpaceIsFull(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	// Occupy every possible 3-digit suffix
	for i := 100; i < 1000; i++ {
		st.SeedUser(&models.User{
			Handle: fmt.Sprintf("@ada%d", i),
			Email:  fmt.Sprintf("seed%d@example.com", i),
		})
	}

	user, err := CreateAccount(ctx, st, "ada@example.com", "hash", "Ada")
	if err != nil {
		// Only the timestamp fallback itself colliding is acceptable here
		assert.ErrorIs(t, err, ErrHandleExhausted)
		return
	}
	assert.Regexp(t, `^@ada\d+$`, user.Handle)
	// The allocated handle is outside the exhausted suffix space
	if len(user.Handle) == len("@ada100") {
		n := user.Handle[len("@ada"):]
		assert.True(t, n < "100" || n > "999", "handle %s should not be a 3-digit suffix", user.Handle)
	}
}

func TestDuplicateEmailIsNotAHandleCollision(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	_, err := CreateAccount(ctx, st, "ada@example.com", "hash", "Ada")
	require.NoError(t, err)

	// Same email, different display name: the handles never collide, the
	// email does. Must not burn the retry loop into ErrHandleExhausted.
	_, err = CreateAccount(ctx, st, "ada@example.com", "hash", "Ada Prime")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreateAccountSurfacesStoreFailure(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	st.FailNext(errors.New("connection reset"))
	_, err := CreateAccount(ctx, st, "ada@example.com", "hash", "Ada")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
