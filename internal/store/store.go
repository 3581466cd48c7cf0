// Package store defines the transactional document-store contract the
// engagement core depends on. The uniqueness of like/vote relation keys is
// enforced here, inside store transactions, so at-most-once semantics hold
// even when several sessions of one account race.
package store

import (
	"context"
	"errors"

	"techink/internal/models"
)

var (
	// ErrNotFound means the addressed record does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrAlreadyExists means a relation with the same composite key exists.
	ErrAlreadyExists = errors.New("store: already exists")
	// ErrConflict means the transaction lost a race and was not applied.
	ErrConflict = errors.New("store: transaction conflict")
	// ErrUnavailable wraps connectivity and permission failures.
	ErrUnavailable = errors.New("store: unavailable")
)

// ReconcileLimit bounds the relation scan performed at session start. Users
// past the limit lose the local "already done" fast path but keep correctness
// through the unique relation keys.
const ReconcileLimit = 5000

type Store interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// CreateUser inserts the profile; the unique index on the handle column
	// doubles as the handle reservation. Returns ErrAlreadyExists on a
	// handle or email collision.
	CreateUser(ctx context.Context, user *models.User) error

	GetPost(ctx context.Context, postID uint) (*models.Post, error)
	GetPostByPid(ctx context.Context, pid string) (*models.Post, error)

	// LikesOf and VotesOf feed the session-start reconciliation, bounded by
	// ReconcileLimit.
	LikesOf(ctx context.Context, userID uint) ([]models.Like, error)
	VotesOf(ctx context.Context, userID uint) ([]models.VoteRecord, error)

	// CreateLike atomically inserts the like relation and bumps the post's
	// like counter. ErrAlreadyExists when the relation is present.
	CreateLike(ctx context.Context, userID, postID uint) error
	// DeleteLike atomically removes the relation and decrements the counter.
	// ErrNotFound when the relation is absent.
	DeleteLike(ctx context.Context, userID, postID uint) error

	// CreateVote atomically checks the (user, post) vote key, bumps every
	// selected option's counter, and inserts the vote record.
	CreateVote(ctx context.Context, userID, postID uint, options []string) error

	// AddPoints appends a ledger row and applies the delta to the balance
	// with an atomic increment, in one transaction.
	AddPoints(ctx context.Context, userID uint, amount int, action string) error
	PointBalance(ctx context.Context, userID uint) (int, error)

	// PinPost relocates a post into the pinned partition by copy: a fresh
	// row with a fresh pid and creation time is created, and the source is
	// deleted only when user-authored.
	PinPost(ctx context.Context, postID uint) (*models.Post, error)
}
