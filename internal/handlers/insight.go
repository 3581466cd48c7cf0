package handlers

import (
	"net/http"
	"techink/internal/db"
	"techink/internal/engagement"
	"techink/internal/models"
	"techink/internal/services"
	"techink/internal/utils"

	"github.com/gin-gonic/gin"
)

// InsightHandler serves the AI-generated insights and timelines.
type InsightHandler struct {
	registry *engagement.Registry
}

func NewInsightHandler(registry *engagement.Registry) *InsightHandler {
	return &InsightHandler{registry: registry}
}

func (h *InsightHandler) ListInsights(c *gin.Context) {
	limit := utils.StringToInt(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var insights []models.Insight
	err := db.DB.WithContext(c.Request.Context()).
		Order("created_at DESC").Limit(limit).
		Find(&insights).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporarily unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"insights": insights})
}

func (h *InsightHandler) GetInsight(c *gin.Context) {
	var insight models.Insight
	err := db.DB.WithContext(c.Request.Context()).
		Where("pid = ?", c.Param("pid")).First(&insight).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, insight)
}

// Analyze accrues the analyze action when a signed-in reader opens the full
// breakdown of an insight.
func (h *InsightHandler) Analyze(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var insight models.Insight
	err := db.DB.WithContext(c.Request.Context()).
		Where("pid = ?", c.Param("pid")).First(&insight).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if manager, err := h.registry.ManagerFor(c.Request.Context(), user); err == nil {
		manager.Accrue(c.Request.Context(), services.ActionAnalyze)
	}
	c.JSON(http.StatusOK, insight)
}

func (h *InsightHandler) ListTimelines(c *gin.Context) {
	limit := utils.StringToInt(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var timelines []models.Timeline
	err := db.DB.WithContext(c.Request.Context()).
		Order("created_at DESC").Limit(limit).
		Find(&timelines).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporarily unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"timelines": timelines})
}

func (h *InsightHandler) GetTimeline(c *gin.Context) {
	var timeline models.Timeline
	err := db.DB.WithContext(c.Request.Context()).
		Where("pid = ?", c.Param("pid")).First(&timeline).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, timeline)
}
