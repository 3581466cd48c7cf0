package services

import (
	"context"

	"techink/internal/models"
	"techink/internal/store"
	"techink/internal/utils/log"
)

// Action is an engagement action that may accrue points.
type Action string

const (
	ActionLike    Action = "like"
	ActionShare   Action = "share"
	ActionPost    Action = "post"
	ActionAsk     Action = "ask-ai-question"
	ActionAnalyze Action = "analyze"
	ActionVote    Action = "vote"
)

// pointDeltas is the whole accrual policy: a pure mapping from action to
// point delta. All deltas are positive, so balances never decrease.
var pointDeltas = map[Action]int{
	ActionLike:    1,
	ActionShare:   5,
	ActionPost:    25,
	ActionAsk:     10,
	ActionAnalyze: 10,
	ActionVote:    2,
}

// PointDelta returns the delta for an action, 0 for unknown actions.
func PointDelta(action Action) int {
	return pointDeltas[action]
}

// AwardPoints applies the accrual policy for a user action: one ledger row
// plus an atomic balance increment. Administrators never accrue. Returns the
// delta actually applied.
func AwardPoints(ctx context.Context, st store.Store, user *models.User, action Action) (int, error) {
	if user.IsAdmin() {
		return 0, nil
	}
	delta := PointDelta(action)
	if delta == 0 {
		return 0, nil
	}
	if err := st.AddPoints(ctx, user.ID, delta, string(action)); err != nil {
		return 0, err
	}
	// Keep the leaderboard mirror warm; losing this write only staled a cache.
	GetLeaderboard().Bump(ctx, user.ID, delta)
	return delta, nil
}

// AwardPointsQuiet applies the policy and only logs on failure. Losing a
// point award is not user-visible-critical.
func AwardPointsQuiet(ctx context.Context, st store.Store, user *models.User, action Action) int {
	delta, err := AwardPoints(ctx, st, user, action)
	if err != nil {
		log.Log.WithError(err).WithField("user_id", user.ID).
			Warnf("point accrual for %q failed", action)
		return 0
	}
	return delta
}
