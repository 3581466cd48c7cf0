package handlers

import (
	"errors"
	"net/http"
	"techink/internal/engagement"
	"techink/internal/middleware"
	"techink/internal/models"
	"techink/internal/store"

	"github.com/gin-gonic/gin"
)

// currentUser pulls the signed-in user set by middleware.LoadUser.
func currentUser(c *gin.Context) (*models.User, bool) {
	u, exists := c.Get(middleware.CheckUserKey)
	if !exists {
		return nil, false
	}
	return u.(*models.User), true
}

// abortEngagementErr maps the engagement error kinds onto HTTP statuses.
// AlreadyDone is a 409 with its own code so the client can explain "you've
// already voted" instead of showing a generic failure.
func abortEngagementErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engagement.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	case errors.Is(err, engagement.ErrAlreadyDone):
		c.JSON(http.StatusConflict, gin.H{"error": "already done", "code": "already_done"})
	case errors.Is(err, engagement.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "lost a race, try again", "code": "conflict"})
	case errors.Is(err, engagement.ErrPollClosed):
		c.JSON(http.StatusForbidden, gin.H{"error": "poll closed", "code": "poll_closed"})
	case errors.Is(err, engagement.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered", "code": "email_taken"})
	case errors.Is(err, engagement.ErrInvalidSelection):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid poll selection"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporarily unavailable"})
	}
}
