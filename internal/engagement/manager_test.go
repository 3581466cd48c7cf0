package engagement_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"techink/internal/engagement"
	"techink/internal/models"
	"techink/internal/store"
	"techink/internal/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixture(t *testing.T) (*memstore.Store, *models.User, *models.Post) {
	t.Helper()
	st := memstore.New()
	user := st.SeedUser(&models.User{
		Handle:      "@ada123",
		DisplayName: "Ada",
		Email:       "ada@example.com",
		PublicName:  true,
	})
	post := st.SeedPost(&models.Post{
		Headline: "Quantum chips hit the shelf",
		Poll: &models.Poll{
			Options: []models.PollOption{
				{Position: 0, Label: "A"},
				{Position: 1, Label: "B"},
			},
		},
	})
	return st, user, post
}

func TestLikeUnlikeRoundTrip(t *testing.T) {
	st, user, post := newFixture(t)
	ctx := context.Background()

	m, err := engagement.NewManager(ctx, st, user)
	require.NoError(t, err)

	require.NoError(t, m.Like(ctx, post.ID))
	assert.True(t, m.HasLiked(post.ID))
	assert.Equal(t, 1, st.LikeCount(post.ID))

	got, err := st.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Likes)

	require.NoError(t, m.Unlike(ctx, post.ID))
	assert.False(t, m.HasLiked(post.ID))
	assert.Equal(t, 0, st.LikeCount(post.ID))

	got, err = st.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Likes)
}

func TestLikeTwiceIsAlreadyDone(t *testing.T) {
	st, user, post := newFixture(t)
	ctx := context.Background()

	m, err := engagement.NewManager(ctx, st, user)
	require.NoError(t, err)

	require.NoError(t, m.Like(ctx, post.ID))
	err = m.Like(ctx, post.ID)
	assert.ErrorIs(t, err, engagement.ErrAlreadyDone)
	assert.Equal(t, 1, st.LikeCount(post.ID))
}

func TestLikeRollsBackOnStoreFailure(t *testing.T) {
	st, user, post := newFixture(t)
	ctx := context.Background()

	m, err := engagement.NewManager(ctx, st, user)
	require.NoError(t, err)

	st.FailNext(errors.New("connection reset"))
	err = m.Like(ctx, post.ID)
	assert.ErrorIs(t, err, engagement.ErrStoreUnavailable)

	// Local set equals the state before the call
	assert.False(t, m.HasLiked(post.ID))
	assert.Equal(t, 0, st.LikeCount(post.ID))
}

func TestUnlikeRollsBackOnStoreFailure(t *testing.T) {
	st, user, post := newFixture(t)
	ctx := context.Background()

	m, err := engagement.NewManager(ctx, st, user)
	require.NoError(t, err)
	require.NoError(t, m.Like(ctx, post.ID))

	st.FailNext(errors.New("connection reset"))
	err = m.Unlike(ctx, post.ID)
	assert.ErrorIs(t, err, engagement.ErrStoreUnavailable)

	// The failed call never committed: still liked locally and remotely
	assert.True(t, m.HasLiked(post.ID))
	assert.Equal(t, 1, st.LikeCount(post.ID))

	got, err := st.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Likes)
}

func TestVoteOnceThenAlreadyDone(t *testing.T) {
	st, user, post := newFixture(t)
	ctx := context.Background()

	m, err := engagement.NewManager(ctx, st, user)
	require.NoError(t, err)

	require.NoError(t, m.Vote(ctx, post, []string{"A"}))
	assert.Equal(t, 1, st.OptionVotes(post.ID, "A"))
	assert.Equal(t, 0, st.OptionVotes(post.ID, "B"))

	opts, voted := m.VotedOptions(post.ID)
	assert.True(t, voted)
	assert.Equal(t, []string{"A"}, opts)

	// Second vote from the same account must not double count
	err = m.Vote(ctx, post, []string{"B"})
	assert.ErrorIs(t, err, engagement.ErrAlreadyDone)
	assert.Equal(t, 1, st.OptionVotes(post.ID, "A"))
	assert.Equal(t, 0, st.OptionVotes(post.ID, "B"))
	assert.Equal(t, 1, st.VoteRecords(post.ID))
}

func TestConcurrentVotesCountOnce(t *testing.T) {
	st, user, post := newFixture(t)
	ctx := context.Background()

	// Two sessions of the same account, as from two devices
	m1, err := engagement.NewManager(ctx, st, user)
	require.NoError(t, err)
	m2, err := engagement.NewManager(ctx, st, user)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, m := range []*engagement.Manager{m1, m2} {
		wg.Add(1)
		go func(i int, m *engagement.Manager) {
			defer wg.Done()
			errs[i] = m.Vote(ctx, post, []string{"A"})
		}(i, m)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.True(t,
				errors.Is(err, engagement.ErrAlreadyDone) || errors.Is(err, engagement.ErrConflict),
				"loser must see a distinguished conflict, got %v", err)
		}
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, st.VoteRecords(post.ID))
	assert.Equal(t, 1, st.OptionVotes(post.ID, "A"))
}

func TestVoteRollsBackOnStoreFailure(t *testing.T) {
	st, user, post := newFixture(t)
	ctx := context.Background()

	m, err := engagement.NewManager(ctx, st, user)
	require.NoError(t, err)

	st.FailNext(errors.New("connection reset"))
	err = m.Vote(ctx, post, []string{"A"})
	assert.ErrorIs(t, err, engagement.ErrStoreUnavailable)

	_, voted := m.VotedOptions(post.ID)
	assert.False(t, voted)
	assert.Equal(t, 0, st.VoteRecords(post.ID))
}

func TestVoteAfterWindowClosed(t *testing.T) {
	st, user, _ := newFixture(t)
	ctx := context.Background()

	stale := st.SeedPost(&models.Post{
		Headline:  "Old poll",
		CreatedAt: time.Now().Add(-25 * time.Hour),
		Poll: &models.Poll{
			Options: []models.PollOption{
				{Position: 0, Label: "A"},
				{Position: 1, Label: "B"},
			},
		},
	})

	m, err := engagement.NewManager(ctx, st, user)
	require.NoError(t, err)

	err = m.Vote(ctx, stale, []string{"A"})
	assert.ErrorIs(t, err, engagement.ErrPollClosed)
	assert.Equal(t, 0, st.VoteRecords(stale.ID))
}

func TestVoteSelectionValidation(t *testing.T) {
	st, user, post := newFixture(t)
	ctx := context.Background()

	m, err := engagement.NewManager(ctx, st, user)
	require.NoError(t, err)

	assert.ErrorIs(t, m.Vote(ctx, post, nil), engagement.ErrInvalidSelection)
	assert.ErrorIs(t, m.Vote(ctx, post, []string{"C"}), engagement.ErrInvalidSelection)
	// Single-choice poll rejects multiple selections
	assert.ErrorIs(t, m.Vote(ctx, post, []string{"A", "B"}), engagement.ErrInvalidSelection)
	assert.Equal(t, 0, st.VoteRecords(post.ID))
}

func TestVoteWithRepeatedLabel(t *testing.T) {
	st, user, _ := newFixture(t)
	ctx := context.Background()

	multi := st.SeedPost(&models.Post{
		Headline: "Pick any stacks you run",
		Poll: &models.Poll{
			AllowMultiple: true,
			Options: []models.PollOption{
				{Position: 0, Label: "A"},
				{Position: 1, Label: "B"},
			},
		},
	})

	m, err := engagement.NewManager(ctx, st, user)
	require.NoError(t, err)

	// A repeated label must not buy a second counter increment
	err = m.Vote(ctx, multi, []string{"A", "A"})
	assert.ErrorIs(t, err, engagement.ErrInvalidSelection)
	assert.Equal(t, 0, st.OptionVotes(multi.ID, "A"))
	assert.Equal(t, 0, st.VoteRecords(multi.ID))

	_, voted := m.VotedOptions(multi.ID)
	assert.False(t, voted)
}

func TestRepeatedLabelCountsOnceAtTheStore(t *testing.T) {
	st, user, _ := newFixture(t)
	ctx := context.Background()

	multi := st.SeedPost(&models.Post{
		Headline: "Pick any stacks you run",
		Poll: &models.Poll{
			AllowMultiple: true,
			Options: []models.PollOption{
				{Position: 0, Label: "A"},
				{Position: 1, Label: "B"},
			},
		},
	})

	// Even a caller that skips the manager's validation adds at most one
	// per option
	require.NoError(t, st.CreateVote(ctx, user.ID, multi.ID, []string{"A", "A", "B"}))
	assert.Equal(t, 1, st.OptionVotes(multi.ID, "A"))
	assert.Equal(t, 1, st.OptionVotes(multi.ID, "B"))
	assert.Equal(t, 1, st.VoteRecords(multi.ID))
}

func TestReconciliationPopulatesState(t *testing.T) {
	st, user, post := newFixture(t)
	ctx := context.Background()

	m1, err := engagement.NewManager(ctx, st, user)
	require.NoError(t, err)
	require.NoError(t, m1.Like(ctx, post.ID))
	require.NoError(t, m1.Vote(ctx, post, []string{"B"}))

	// A fresh session sees the relations made by the previous one
	m2, err := engagement.NewManager(ctx, st, user)
	require.NoError(t, err)
	assert.True(t, m2.HasLiked(post.ID))
	opts, voted := m2.VotedOptions(post.ID)
	assert.True(t, voted)
	assert.Equal(t, []string{"B"}, opts)
	assert.Equal(t, m1.Points(), m2.Points())
}

func TestLikeAccruesPointsQuietly(t *testing.T) {
	st, user, post := newFixture(t)
	ctx := context.Background()

	m, err := engagement.NewManager(ctx, st, user)
	require.NoError(t, err)

	require.NoError(t, m.Like(ctx, post.ID))
	assert.Equal(t, 1, m.Points())

	balance, err := st.PointBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, balance)
	require.Len(t, st.Logs(user.ID), 1)
	assert.Equal(t, "like", st.Logs(user.ID)[0].Action)
}

func TestAccrualFailureDoesNotFailTheLike(t *testing.T) {
	st, user, post := newFixture(t)
	ctx := context.Background()

	m, err := engagement.NewManager(ctx, st, user)
	require.NoError(t, err)

	// The like write lands, the accrual write behind it fails; the like
	// must stand and the balance simply not move.
	st.FailNth(2, errors.New("connection reset"))
	require.NoError(t, m.Like(ctx, post.ID))

	assert.True(t, m.HasLiked(post.ID))
	assert.Equal(t, 1, st.LikeCount(post.ID))
	assert.Equal(t, 0, m.Points())

	balance, err := st.PointBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestAdminBalanceInvariant(t *testing.T) {
	st, _, post := newFixture(t)
	ctx := context.Background()

	admin := st.SeedUser(&models.User{
		Handle:      "@ink001",
		DisplayName: "Ink",
		Email:       "ink@example.com",
		Role:        "admin",
	})

	m, err := engagement.NewManager(ctx, st, admin)
	require.NoError(t, err)

	require.NoError(t, m.Like(ctx, post.ID))
	require.NoError(t, m.Vote(ctx, post, []string{"A"}))
	m.Share(ctx)

	balance, err := st.PointBalance(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance, "administrator balance must never move")
	assert.Empty(t, st.Logs(admin.ID))
}

func TestPinRelocatesByCopy(t *testing.T) {
	st, _, post := newFixture(t)
	ctx := context.Background()

	admin := st.SeedUser(&models.User{
		Handle:      "@ink001",
		DisplayName: "Ink",
		Email:       "ink@example.com",
		Role:        "admin",
	})
	m, err := engagement.NewManager(ctx, st, admin)
	require.NoError(t, err)

	pinned, err := m.Pin(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PartitionPinned, pinned.Partition)
	assert.NotEqual(t, post.Pid, pinned.Pid)

	// User-authored source is removed from the feed partition
	_, err = st.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPinKeepsFlowAuthoredSource(t *testing.T) {
	st, _, _ := newFixture(t)
	ctx := context.Background()

	admin := st.SeedUser(&models.User{
		Handle:      "@ink001",
		DisplayName: "Ink",
		Email:       "ink@example.com",
		Role:        "admin",
	})
	flowPost := st.SeedPost(&models.Post{
		Headline:   "Daily brief",
		SourceType: models.SourceFlow,
	})

	m, err := engagement.NewManager(ctx, st, admin)
	require.NoError(t, err)

	pinned, err := m.Pin(ctx, flowPost.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PartitionPinned, pinned.Partition)

	// Flow-authored source stays where the flow wrote it
	src, err := st.GetPost(ctx, flowPost.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PartitionFeed, src.Partition)
}

func TestPinRequiresAdmin(t *testing.T) {
	st, user, post := newFixture(t)
	ctx := context.Background()

	m, err := engagement.NewManager(ctx, st, user)
	require.NoError(t, err)

	_, err = m.Pin(ctx, post.ID)
	assert.ErrorIs(t, err, engagement.ErrNotAuthenticated)
}
