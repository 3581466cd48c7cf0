// Package engagement implements the per-session engagement state manager:
// a locally consistent view of what the current user has already liked and
// voted on, kept correct against the store by optimistic updates with
// rollback and by the store's unique relation keys.
package engagement

import (
	"context"
	"sync"
	"time"

	"techink/internal/models"
	"techink/internal/services"
	"techink/internal/store"
)

// Manager holds one signed-in user's engagement state. It is created on
// session start by reconciling against the store and dropped on sign-out.
type Manager struct {
	mu    sync.Mutex
	store store.Store
	user  *models.User

	liked  map[uint]struct{} // post ids the user has liked
	voted  map[uint][]string // post id -> chosen option labels
	points int
}

// NewManager reconciles the user's relation records into local state. This
// is a bounded O(n) scan, not a live subscription: likes and votes made from
// other sessions of the same account appear on the next sign-in.
func NewManager(ctx context.Context, st store.Store, user *models.User) (*Manager, error) {
	if user == nil {
		return nil, ErrNotAuthenticated
	}

	likes, err := st.LikesOf(ctx, user.ID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	votes, err := st.VotesOf(ctx, user.ID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	balance, err := st.PointBalance(ctx, user.ID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	m := &Manager{
		store:  st,
		user:   user,
		liked:  make(map[uint]struct{}, len(likes)),
		voted:  make(map[uint][]string, len(votes)),
		points: balance,
	}
	for _, l := range likes {
		m.liked[l.PostID] = struct{}{}
	}
	for _, v := range votes {
		m.voted[v.PostID] = v.OptionList()
	}
	return m, nil
}

// User returns the session's user.
func (m *Manager) User() *models.User {
	return m.user
}

// HasLiked reports whether the post is in the local liked set.
func (m *Manager) HasLiked(postID uint) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.liked[postID]
	return ok
}

// VotedOptions returns the locally recorded poll choices for a post.
func (m *Manager) VotedOptions(postID uint) ([]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	opts, ok := m.voted[postID]
	return opts, ok
}

// Points returns the locally tracked point balance.
func (m *Manager) Points() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.points
}

// Like adds the post to the local liked set immediately, then makes the
// durable write (counter +1 and like record in one transaction). On failure
// the local set is rolled back. Point accrual rides behind a successful like
// but its failure is logged only.
func (m *Manager) Like(ctx context.Context, postID uint) error {
	m.mu.Lock()
	if _, ok := m.liked[postID]; ok {
		m.mu.Unlock()
		return ErrAlreadyDone
	}
	m.liked[postID] = struct{}{}
	m.mu.Unlock()

	if err := m.store.CreateLike(ctx, m.user.ID, postID); err != nil {
		m.mu.Lock()
		delete(m.liked, postID)
		m.mu.Unlock()
		return mapStoreErr(err)
	}

	m.accrue(ctx, services.ActionLike)
	return nil
}

// Unlike is the symmetric rollback-on-failure removal.
func (m *Manager) Unlike(ctx context.Context, postID uint) error {
	m.mu.Lock()
	if _, ok := m.liked[postID]; !ok {
		m.mu.Unlock()
		return ErrAlreadyDone
	}
	delete(m.liked, postID)
	m.mu.Unlock()

	if err := m.store.DeleteLike(ctx, m.user.ID, postID); err != nil {
		m.mu.Lock()
		m.liked[postID] = struct{}{}
		m.mu.Unlock()
		return mapStoreErr(err)
	}
	return nil
}

// Vote records the selection locally, then runs the store transaction that
// checks the (user, post) vote key, bumps the chosen option counters, and
// inserts the vote record. A concurrent vote from another device loses at
// the store and surfaces as ErrAlreadyDone or ErrConflict, never a double
// count. The poll window check here is the soft guard.
func (m *Manager) Vote(ctx context.Context, post *models.Post, selected []string) error {
	if post.Poll == nil {
		return store.ErrNotFound
	}
	if len(selected) == 0 {
		return ErrInvalidSelection
	}
	if len(selected) > 1 && !post.Poll.AllowMultiple {
		return ErrInvalidSelection
	}
	seen := make(map[string]struct{}, len(selected))
	for _, label := range selected {
		if !post.Poll.HasOption(label) {
			return ErrInvalidSelection
		}
		// A repeated label would bump one option counter twice
		if _, dup := seen[label]; dup {
			return ErrInvalidSelection
		}
		seen[label] = struct{}{}
	}
	if time.Now().After(models.ClosedAt(post.CreatedAt)) {
		return ErrPollClosed
	}

	m.mu.Lock()
	if _, ok := m.voted[post.ID]; ok {
		m.mu.Unlock()
		return ErrAlreadyDone
	}
	m.voted[post.ID] = selected
	m.mu.Unlock()

	if err := m.store.CreateVote(ctx, m.user.ID, post.ID, selected); err != nil {
		m.mu.Lock()
		delete(m.voted, post.ID)
		m.mu.Unlock()
		return mapStoreErr(err)
	}

	m.accrue(ctx, services.ActionVote)
	return nil
}

// Pin relocates a post into the pinned-topic partition. Administrative; the
// store does the copy-and-conditional-delete in one transaction.
func (m *Manager) Pin(ctx context.Context, postID uint) (*models.Post, error) {
	if !m.user.IsAdmin() {
		return nil, ErrNotAuthenticated
	}
	pinned, err := m.store.PinPost(ctx, postID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return pinned, nil
}

// Share records a share action. There is no share relation to keep, only
// the point accrual.
func (m *Manager) Share(ctx context.Context) {
	m.accrue(ctx, services.ActionShare)
}

// Accrue applies the point policy for an arbitrary action through the same
// quiet-failure discipline.
func (m *Manager) Accrue(ctx context.Context, action services.Action) {
	m.accrue(ctx, action)
}

func (m *Manager) accrue(ctx context.Context, action services.Action) {
	delta := services.AwardPointsQuiet(ctx, m.store, m.user, action)
	if delta == 0 {
		return
	}
	m.mu.Lock()
	m.points += delta
	m.mu.Unlock()
}
