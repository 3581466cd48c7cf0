package handlers

import (
	"net/http"
	"techink/internal/db"
	"techink/internal/engagement"
	"techink/internal/models"
	"techink/internal/services"
	"techink/internal/store"
	"techink/internal/utils"

	"github.com/gin-gonic/gin"
)

type FeedHandler struct {
	store    store.Store
	registry *engagement.Registry
}

func NewFeedHandler(st store.Store, registry *engagement.Registry) *FeedHandler {
	return &FeedHandler{store: st, registry: registry}
}

// List returns a page of posts from one partition, newest first.
func (h *FeedHandler) List(c *gin.Context) {
	partition := models.Partition(c.DefaultQuery("partition", string(models.PartitionFeed)))
	if partition != models.PartitionFeed && partition != models.PartitionPinned {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown partition"})
		return
	}

	limit := utils.StringToInt(c.DefaultQuery("limit", "30"))
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	offset := utils.StringToInt(c.DefaultQuery("offset", "0"))

	var posts []models.Post
	err := db.DB.WithContext(c.Request.Context()).
		Preload("User").Preload("Poll.Options").Preload("Poll").
		Where("partition = ?", partition).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporarily unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// Get returns one post with rendered content and, for a signed-in viewer,
// the local engagement state (liked, voted options).
func (h *FeedHandler) Get(c *gin.Context) {
	post, err := h.store.GetPostByPid(c.Request.Context(), c.Param("pid"))
	if err != nil {
		abortEngagementErr(c, err)
		return
	}
	post.RenderedContent = utils.RenderMarkdown(post.Content)

	resp := gin.H{"post": post}
	if user, ok := currentUser(c); ok {
		if manager, err := h.registry.ManagerFor(c.Request.Context(), user); err == nil {
			resp["liked"] = manager.HasLiked(post.ID)
			if opts, voted := manager.VotedOptions(post.ID); voted {
				resp["voted_options"] = opts
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}

type createPostRequest struct {
	Headline string `json:"headline" binding:"required"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url"`
	Poll     *struct {
		Options       []string `json:"options" binding:"required,min=2,max=4"`
		AllowMultiple bool     `json:"allow_multiple"`
	} `json:"poll"`
}

// Create submits a user post into the feed partition, optionally with an
// embedded poll of 2-4 options. Awards the post action points.
func (h *FeedHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "headline required; polls carry 2-4 options"})
		return
	}

	post := models.Post{
		Pid:        utils.NewPid(),
		UserID:     user.ID,
		Partition:  models.PartitionFeed,
		Headline:   utils.SanitizeHTML(req.Headline),
		Content:    req.Content,
		ImageURL:   req.ImageURL,
		SourceType: models.SourceUser,
	}
	if req.Poll != nil {
		poll := &models.Poll{AllowMultiple: req.Poll.AllowMultiple}
		for i, label := range req.Poll.Options {
			poll.Options = append(poll.Options, models.PollOption{
				Position: i,
				Label:    label,
			})
		}
		post.Poll = poll
	}

	if err := db.DB.WithContext(c.Request.Context()).Create(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporarily unavailable"})
		return
	}

	if manager, err := h.registry.ManagerFor(c.Request.Context(), user); err == nil {
		manager.Accrue(c.Request.Context(), services.ActionPost)
	}

	c.JSON(http.StatusCreated, post)
}

// Share records a share action for points. Nothing durable beyond the
// ledger; repeat shares simply accrue again.
func (h *FeedHandler) Share(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	if _, err := h.store.GetPostByPid(c.Request.Context(), c.Param("pid")); err != nil {
		abortEngagementErr(c, err)
		return
	}

	manager, err := h.registry.ManagerFor(c.Request.Context(), user)
	if err != nil {
		abortEngagementErr(c, err)
		return
	}
	manager.Share(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"ok": true, "points": manager.Points()})
}
