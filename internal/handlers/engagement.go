package handlers

import (
	"net/http"
	"techink/internal/engagement"
	"techink/internal/store"

	"github.com/gin-gonic/gin"
)

// EngagementHandler exposes the like/unlike/vote operations of the per-user
// engagement manager.
type EngagementHandler struct {
	store    store.Store
	registry *engagement.Registry
}

func NewEngagementHandler(st store.Store, registry *engagement.Registry) *EngagementHandler {
	return &EngagementHandler{store: st, registry: registry}
}

func (h *EngagementHandler) manager(c *gin.Context) (*engagement.Manager, bool) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return nil, false
	}
	manager, err := h.registry.ManagerFor(c.Request.Context(), user)
	if err != nil {
		abortEngagementErr(c, err)
		return nil, false
	}
	return manager, true
}

// Like handles POST /api/posts/:pid/like.
func (h *EngagementHandler) Like(c *gin.Context) {
	manager, ok := h.manager(c)
	if !ok {
		return
	}

	post, err := h.store.GetPostByPid(c.Request.Context(), c.Param("pid"))
	if err != nil {
		abortEngagementErr(c, err)
		return
	}

	if err := manager.Like(c.Request.Context(), post.ID); err != nil {
		abortEngagementErr(c, err)
		return
	}

	// Re-read for the fresh counter
	post, err = h.store.GetPost(c.Request.Context(), post.ID)
	if err != nil {
		abortEngagementErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": true, "likes": post.Likes})
}

// Unlike handles DELETE /api/posts/:pid/like.
func (h *EngagementHandler) Unlike(c *gin.Context) {
	manager, ok := h.manager(c)
	if !ok {
		return
	}

	post, err := h.store.GetPostByPid(c.Request.Context(), c.Param("pid"))
	if err != nil {
		abortEngagementErr(c, err)
		return
	}

	if err := manager.Unlike(c.Request.Context(), post.ID); err != nil {
		abortEngagementErr(c, err)
		return
	}

	post, err = h.store.GetPost(c.Request.Context(), post.ID)
	if err != nil {
		abortEngagementErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": false, "likes": post.Likes})
}

type voteRequest struct {
	Options []string `json:"options" binding:"required,min=1"`
}

// Vote handles POST /api/posts/:pid/vote.
func (h *EngagementHandler) Vote(c *gin.Context) {
	manager, ok := h.manager(c)
	if !ok {
		return
	}

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "options are required"})
		return
	}

	post, err := h.store.GetPostByPid(c.Request.Context(), c.Param("pid"))
	if err != nil {
		abortEngagementErr(c, err)
		return
	}

	if err := manager.Vote(c.Request.Context(), post, req.Options); err != nil {
		abortEngagementErr(c, err)
		return
	}

	post, err = h.store.GetPost(c.Request.Context(), post.ID)
	if err != nil {
		abortEngagementErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"voted": req.Options, "poll": post.Poll})
}
