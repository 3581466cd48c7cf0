package engagement

import (
	"errors"
	"fmt"

	"techink/internal/store"
)

var (
	// ErrNotAuthenticated: the operation needs an active session.
	ErrNotAuthenticated = errors.New("engagement: not authenticated")
	// ErrAlreadyDone: the like/vote relation already exists. Benign from the
	// user's point of view, but distinguished so the UI can say so.
	ErrAlreadyDone = errors.New("engagement: already done")
	// ErrConflict: the durable transaction lost a race and was rolled back.
	ErrConflict = errors.New("engagement: conflict")
	// ErrPollClosed: the 24h voting window has passed. Soft guard only.
	ErrPollClosed = errors.New("engagement: poll closed")
	// ErrInvalidSelection: empty selection, an unknown option, or multiple
	// options on a single-choice poll.
	ErrInvalidSelection = errors.New("engagement: invalid selection")
	// ErrEmailTaken: the email already has an account. Distinguished from a
	// handle collision so signup races don't burn the handle retry loop.
	ErrEmailTaken = errors.New("engagement: email already registered")
	// ErrStoreUnavailable: connectivity or permission failure underneath.
	ErrStoreUnavailable = errors.New("engagement: store unavailable")
	// ErrHandleExhausted: the bounded handle retry loop failed and even the
	// timestamp fallback collided.
	ErrHandleExhausted = errors.New("engagement: handle allocation exhausted")
)

// mapStoreErr translates store sentinels into the engagement error kinds the
// callers switch on. ErrNotFound passes through untouched.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrAlreadyExists):
		return ErrAlreadyDone
	case errors.Is(err, store.ErrConflict):
		return ErrConflict
	case errors.Is(err, store.ErrNotFound):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}
