package engagement

import (
	"context"
	"sync"

	"techink/internal/models"
	"techink/internal/store"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Registry hands out one Manager per signed-in user. Managers are built by
// reconciling against the store on first use after sign-in and are dropped
// when the session changes, so state never leaks across accounts.
type Registry struct {
	mu    sync.Mutex
	store store.Store
	cache *lru.Cache[uint, *Manager]
}

func NewRegistry(st store.Store, size int) (*Registry, error) {
	cache, err := lru.New[uint, *Manager](size)
	if err != nil {
		return nil, err
	}
	return &Registry{store: st, cache: cache}, nil
}

// ManagerFor returns the cached manager for the user, reconciling a new one
// when this is the first touch of the session.
func (r *Registry) ManagerFor(ctx context.Context, user *models.User) (*Manager, error) {
	if user == nil {
		return nil, ErrNotAuthenticated
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.cache.Get(user.ID); ok {
		return m, nil
	}
	m, err := NewManager(ctx, r.store, user)
	if err != nil {
		return nil, err
	}
	r.cache.Add(user.ID, m)
	return m, nil
}

// Drop discards a user's manager. Called on sign-out and on any session
// identity transition.
func (r *Registry) Drop(userID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Remove(userID)
}
