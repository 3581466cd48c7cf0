package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"techink/internal/db"
	"techink/internal/engagement"
	"techink/internal/models"
	"techink/internal/services"
	"techink/internal/store"
	"techink/internal/utils"
	"techink/internal/utils/log"

	"github.com/gin-gonic/gin"
)

// AdminHandler carries the administrative surface: pinning the topic of the
// day and running the content generation flows.
type AdminHandler struct {
	store    store.Store
	registry *engagement.Registry
	llm      *services.LLMService
}

func NewAdminHandler(st store.Store, registry *engagement.Registry) *AdminHandler {
	return &AdminHandler{
		store:    st,
		registry: registry,
		llm:      services.GetLLMService(),
	}
}

// Pin relocates a feed post into the pinned-topic partition. Router mounts
// this behind AdminRequired; the manager checks the role again.
func (h *AdminHandler) Pin(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	post, err := h.store.GetPostByPid(c.Request.Context(), c.Param("pid"))
	if err != nil {
		abortEngagementErr(c, err)
		return
	}

	manager, err := h.registry.ManagerFor(c.Request.Context(), user)
	if err != nil {
		abortEngagementErr(c, err)
		return
	}

	pinned, err := manager.Pin(c.Request.Context(), post.ID)
	if err != nil {
		abortEngagementErr(c, err)
		return
	}

	utils.GetCache().Delete("topic_of_the_day")
	c.JSON(http.StatusOK, gin.H{"pinned": pinned})
}

type generateRequest struct {
	Topic string `json:"topic" binding:"required"`
}

func (h *AdminHandler) bindTopic(c *gin.Context) (string, bool) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "topic is required"})
		return "", false
	}
	return req.Topic, true
}

func (h *AdminHandler) abortLLMErr(c *gin.Context, err error) {
	if errors.Is(err, services.ErrContentUnsuitable) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "content unsuitable", "code": "content_unsuitable"})
		return
	}
	log.Log.WithError(err).Error("generation flow failed")
	c.JSON(http.StatusBadGateway, gin.H{"error": "generation failed"})
}

// GenerateArticle runs the article flow and publishes the draft as a
// flow-authored feed post.
func (h *AdminHandler) GenerateArticle(c *gin.Context) {
	topic, ok := h.bindTopic(c)
	if !ok {
		return
	}
	user, _ := currentUser(c)

	draft, err := h.llm.GenerateArticle(c.Request.Context(), topic)
	if err != nil {
		h.abortLLMErr(c, err)
		return
	}

	post := models.Post{
		Pid:        utils.NewPid(),
		UserID:     user.ID,
		Partition:  models.PartitionFeed,
		Headline:   utils.SanitizeHTML(draft.Headline),
		Content:    draft.Body,
		SourceType: models.SourceFlow,
	}
	if err := db.DB.WithContext(c.Request.Context()).Create(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporarily unavailable"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": post, "tags": draft.Tags})
}

// GeneratePost runs the social post flow.
func (h *AdminHandler) GeneratePost(c *gin.Context) {
	topic, ok := h.bindTopic(c)
	if !ok {
		return
	}
	user, _ := currentUser(c)

	draft, err := h.llm.GenerateSocialPost(c.Request.Context(), topic)
	if err != nil {
		h.abortLLMErr(c, err)
		return
	}

	post := models.Post{
		Pid:        utils.NewPid(),
		UserID:     user.ID,
		Partition:  models.PartitionFeed,
		Headline:   utils.SanitizeHTML(draft.Headline),
		Content:    draft.Content,
		SourceType: models.SourceFlow,
	}
	if err := db.DB.WithContext(c.Request.Context()).Create(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporarily unavailable"})
		return
	}
	c.JSON(http.StatusCreated, post)
}

// GenerateInsight runs the chart flow and stores the validated spec.
func (h *AdminHandler) GenerateInsight(c *gin.Context) {
	topic, ok := h.bindTopic(c)
	if !ok {
		return
	}

	draft, err := h.llm.GenerateChartInsight(c.Request.Context(), topic)
	if err != nil {
		h.abortLLMErr(c, err)
		return
	}

	series, err := json.Marshal(draft.Series)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporarily unavailable"})
		return
	}

	insight := models.Insight{
		Pid:        utils.NewPid(),
		Title:      utils.SanitizeHTML(draft.Title),
		ChartType:  draft.ChartType,
		Series:     string(series),
		Commentary: draft.Commentary,
		SourceType: models.SourceFlow,
	}
	if err := db.DB.WithContext(c.Request.Context()).Create(&insight).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporarily unavailable"})
		return
	}
	c.JSON(http.StatusCreated, insight)
}

// GenerateTimeline runs the timeline flow.
func (h *AdminHandler) GenerateTimeline(c *gin.Context) {
	topic, ok := h.bindTopic(c)
	if !ok {
		return
	}

	draft, err := h.llm.GenerateTimeline(c.Request.Context(), topic)
	if err != nil {
		h.abortLLMErr(c, err)
		return
	}

	events, err := json.Marshal(draft.Events)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporarily unavailable"})
		return
	}

	timeline := models.Timeline{
		Pid:    utils.NewPid(),
		Topic:  utils.SanitizeHTML(draft.Topic),
		Events: string(events),
	}
	if err := db.DB.WithContext(c.Request.Context()).Create(&timeline).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporarily unavailable"})
		return
	}
	c.JSON(http.StatusCreated, timeline)
}
