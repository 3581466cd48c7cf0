package handlers

import (
	"errors"
	"net/http"
	"strings"
	"techink/internal/engagement"
	"techink/internal/store"
	"techink/internal/utils"
	"techink/internal/utils/log"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	store    store.Store
	registry *engagement.Registry
}

func NewAuthHandler(st store.Store, registry *engagement.Registry) *AuthHandler {
	return &AuthHandler{store: st, registry: registry}
}

type registerRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	DisplayName string `json:"display_name" binding:"required"`
}

// Register creates the profile on first sign-in: unique handle allocation,
// zero balance, public display name.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email, password (6+ chars) and display_name are required"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := h.store.GetUserByEmail(c.Request.Context(), email); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporarily unavailable"})
		return
	}

	user, err := engagement.CreateAccount(c.Request.Context(), h.store, email, hash, strings.TrimSpace(req.DisplayName))
	if err != nil {
		if errors.Is(err, engagement.ErrHandleExhausted) {
			log.Log.WithField("email", email).Error("handle allocation exhausted")
		}
		abortEngagementErr(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	if err := session.Save(); err != nil {
		log.Log.WithError(err).Warn("session save failed after signup")
	}

	c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := h.store.GetUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil || !utils.CheckPasswordHash(req.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	session := sessions.Default(c)
	if prev := session.Get("user_id"); prev != nil {
		// Session identity transition: the previous account's local
		// engagement state must not survive.
		if prevID, ok := prev.(uint); ok && prevID != user.ID {
			h.registry.Drop(prevID)
		}
	}
	session.Set("user_id", user.ID)
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporarily unavailable"})
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	if id := session.Get("user_id"); id != nil {
		if userID, ok := id.(uint); ok {
			h.registry.Drop(userID)
		}
	}
	session.Clear()
	session.Save()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Me returns the signed-in profile with its badge and cached engagement
// state, reconciling the manager if this is the session's first touch.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	manager, err := h.registry.ManagerFor(c.Request.Context(), user)
	if err != nil {
		abortEngagementErr(c, err)
		return
	}

	badge, icon := utils.BadgeForPoints(manager.Points())
	c.JSON(http.StatusOK, gin.H{
		"user":        user,
		"points":      manager.Points(),
		"badge":       badge,
		"badge_icon":  icon,
		"days_joined": utils.GetDaysSinceJoined(user.CreatedAt),
	})
}
