package handlers

import (
	"net/http"
	"time"

	"techink/internal/db"
	"techink/internal/engagement"
	"techink/internal/models"
	"techink/internal/services"
	"techink/internal/store"
	"techink/internal/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	store    store.Store
	registry *engagement.Registry
	llm      *services.LLMService
}

func NewUserHandler(st store.Store, registry *engagement.Registry) *UserHandler {
	return &UserHandler{store: st, registry: registry, llm: services.GetLLMService()}
}

type publicProfile struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name,omitempty"`
	Badge       string `json:"badge"`
	BadgeIcon   string `json:"badge_icon"`
	Points      int    `json:"points"`
	DaysJoined  int    `json:"days_joined"`
}

// Profile returns the public view of a user. The display name is withheld
// when the user opted out of showing it.
func (h *UserHandler) Profile(c *gin.Context) {
	user, err := h.store.GetUserByID(c.Request.Context(), utils.StringToUint(c.Param("id")))
	if err != nil {
		abortEngagementErr(c, err)
		return
	}

	badge, icon := utils.BadgeForPoints(user.Points)
	profile := publicProfile{
		Handle:     user.Handle,
		Badge:      badge,
		BadgeIcon:  icon,
		Points:     user.Points,
		DaysJoined: utils.GetDaysSinceJoined(user.CreatedAt),
	}
	if user.PublicName {
		profile.DisplayName = user.DisplayName
	}
	c.JSON(http.StatusOK, profile)
}

// Leaderboard returns the top balances, briefly cached.
func (h *UserHandler) Leaderboard(c *gin.Context) {
	n := utils.StringToInt(c.DefaultQuery("limit", "10"))
	if n <= 0 || n > 50 {
		n = 10
	}

	cacheKey := "leaderboard"
	if n == 10 {
		if cached := utils.GetCache().Get(cacheKey); cached != nil {
			c.JSON(http.StatusOK, gin.H{"leaders": cached})
			return
		}
	}

	users, err := services.GetLeaderboard().Top(c.Request.Context(), db.DB, n)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporarily unavailable"})
		return
	}

	leaders := make([]publicProfile, 0, len(users))
	for _, u := range users {
		badge, icon := utils.BadgeForPoints(u.Points)
		p := publicProfile{
			Handle:    u.Handle,
			Badge:     badge,
			BadgeIcon: icon,
			Points:    u.Points,
		}
		if u.PublicName {
			p.DisplayName = u.DisplayName
		}
		leaders = append(leaders, p)
	}

	if n == 10 {
		utils.GetCache().Set(cacheKey, leaders, 30*time.Second)
	}
	c.JSON(http.StatusOK, gin.H{"leaders": leaders})
}

// PointLogs returns the signed-in user's accrual ledger.
func (h *UserHandler) PointLogs(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var logs []models.PointLog
	err := db.DB.WithContext(c.Request.Context()).
		Where("user_id = ?", user.ID).
		Order("created_at DESC").Limit(100).
		Find(&logs).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporarily unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
}

// Ask forwards a reader question to the assistant flow and accrues the ask
// action.
func (h *UserHandler) Ask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	answer, err := h.llm.Answer(c.Request.Context(), req.Question)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "assistant unavailable"})
		return
	}

	if manager, err := h.registry.ManagerFor(c.Request.Context(), user); err == nil {
		manager.Accrue(c.Request.Context(), services.ActionAsk)
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}
