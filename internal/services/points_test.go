package services

import (
	"context"
	"testing"

	"techink/internal/models"
	"techink/internal/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointDeltas(t *testing.T) {
	assert.Equal(t, 1, PointDelta(ActionLike))
	assert.Equal(t, 5, PointDelta(ActionShare))
	assert.Equal(t, 25, PointDelta(ActionPost))
	assert.Equal(t, 10, PointDelta(ActionAsk))
	assert.Equal(t, 10, PointDelta(ActionAnalyze))
	assert.Equal(t, 2, PointDelta(ActionVote))
	assert.Equal(t, 0, PointDelta(Action("unknown")))
}

func TestDeltasNeverDecreaseBalances(t *testing.T) {
	for action, delta := range pointDeltas {
		assert.Greater(t, delta, 0, "action %s must not subtract points", action)
	}
}

func TestAwardPointsWritesLedgerAndBalance(t *testing.T) {
	st := memstore.New()
	user := st.SeedUser(&models.User{Handle: "@ada123", Email: "ada@example.com"})

	delta, err := AwardPoints(context.Background(), st, user, ActionPost)
	require.NoError(t, err)
	assert.Equal(t, 25, delta)

	balance, err := st.PointBalance(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, balance)

	logs := st.Logs(user.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, "post", logs[0].Action)
	assert.Equal(t, 25, logs[0].Amount)
}

func TestAwardPointsSkipsAdmins(t *testing.T) {
	st := memstore.New()
	admin := st.SeedUser(&models.User{Handle: "@ink001", Email: "ink@example.com", Role: "admin"})

	delta, err := AwardPoints(context.Background(), st, admin, ActionPost)
	require.NoError(t, err)
	assert.Equal(t, 0, delta)

	balance, err := st.PointBalance(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
	assert.Empty(t, st.Logs(admin.ID))
}

func TestAwardPointsQuietSwallowsStoreFailure(t *testing.T) {
	st := memstore.New()
	user := st.SeedUser(&models.User{Handle: "@ada123", Email: "ada@example.com"})

	st.FailNext(assert.AnError)
	delta := AwardPointsQuiet(context.Background(), st, user, ActionLike)
	assert.Equal(t, 0, delta)

	balance, err := st.PointBalance(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}
